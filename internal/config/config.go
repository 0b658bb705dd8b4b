// Package config loads the application settings from (in increasing priority)
// built-in defaults, an optional JSON file, the environment (including a .env file)
// and command line flags, then validates the result.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting of the admin front end.
type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	APIBaseURL          string        `env:"API_BASE_URL" json:"api_base_url" validate:"url"`
	APIKey              string        `env:"API_KEY" json:"api_key"`
	LogLevel            string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	SessionFileName     string        `env:"SESSION_FILE_PATH" json:"session_file_path" validate:"filepath"`
	DatabaseDSN         string        `env:"DATABASE_DSN" json:"database_dsn"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"db_connection_timeout"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR" json:"migrations_dir"`
	SessionCookieName   string        `env:"SESSION_COOKIE_NAME" json:"session_cookie_name" validate:"required"`
	SessionSigningKey   string        `env:"SESSION_SIGNING_KEY" json:"session_signing_key" validate:"required,base64url"`
	SessionIdleTimeout  time.Duration `env:"SESSION_IDLE_TIMEOUT" json:"session_idle_timeout"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
	ConfigFile          string        `env:"CONFIG" json:"-"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	APIBaseURL:          "https://reqres.in/api",
	LogLevel:            "info",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/usradmin/migrations",
	SessionCookieName:   "usradmin_session",
	SessionSigningKey:   "c2Vzc2lvbi1zaWduaW5nLWtleS1mb3ItbG9jYWwtZGV2IQ==",
	SessionIdleTimeout:  24 * time.Hour,
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing skips the command line, which is what tests want.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses the given arguments instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

// New builds the configuration. Later sources override earlier ones:
// defaults, JSON file, environment, flags.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := Config{}
	applyDefaults(&values, defaultConfig)

	var fromFlags Config
	flagSet := newFlagSet(&fromFlags)
	if !options.disableFlagsParsing {
		if err := flagSet.Parse(options.args); err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/New(): error while `flagSet.Parse()` calling: %w", err)
		}
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	configFile := fromEnv.ConfigFile
	if fromFlags.ConfigFile != "" {
		configFile = fromFlags.ConfigFile
	}
	if configFile != "" {
		fromJSON, err := loadJSON(configFile)
		if err != nil {
			return nil, err
		}
		applyDefaults(fromJSON, values)
		values = *fromJSON
	}

	override(&values, fromEnv)
	override(&values, fromFlags)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}

func newFlagSet(target *Config) *flag.FlagSet {
	flagSet := flag.NewFlagSet("usradmin", flag.ContinueOnError)
	flagSet.StringVar(&target.RunAddr, "a", "", "address and port to run server")
	flagSet.StringVar(&target.APIBaseURL, "u", "", "base URL of the remote user service")
	flagSet.StringVar(&target.APIKey, "k", "", "API key sent to the remote user service")
	flagSet.StringVar(&target.LogLevel, "l", "", "logger level")
	flagSet.StringVar(&target.SessionFileName, "f", "", "JSON file name with persisted sessions")
	flagSet.StringVar(&target.DatabaseDSN, "d", "", "A string with the database connection details")
	flagSet.StringVar(&target.TrustedSubnet, "t", "", "CIDR allowed to scrape /metrics")
	flagSet.StringVar(&target.ConfigFile, "c", "", "JSON configuration file")

	return flagSet
}

func loadJSON(fileName string) (*Config, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	var result Config
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	return &result, nil
}

// applyDefaults fills every empty field of values with the one from defaults.
func applyDefaults(values *Config, defaults Config) {
	if values.RunAddr == "" {
		values.RunAddr = defaults.RunAddr
	}
	if values.APIBaseURL == "" {
		values.APIBaseURL = defaults.APIBaseURL
	}
	if values.APIKey == "" {
		values.APIKey = defaults.APIKey
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.SessionFileName == "" {
		values.SessionFileName = defaults.SessionFileName
	}
	if values.DatabaseDSN == "" {
		values.DatabaseDSN = defaults.DatabaseDSN
	}
	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
	if values.MigrationsDir == "" {
		values.MigrationsDir = defaults.MigrationsDir
	}
	if values.SessionCookieName == "" {
		values.SessionCookieName = defaults.SessionCookieName
	}
	if values.SessionSigningKey == "" {
		values.SessionSigningKey = defaults.SessionSigningKey
	}
	if values.SessionIdleTimeout == 0 {
		values.SessionIdleTimeout = defaults.SessionIdleTimeout
	}
	if values.TrustedSubnet == "" {
		values.TrustedSubnet = defaults.TrustedSubnet
	}
}

// override copies every non-empty field of source over values.
func override(values *Config, source Config) {
	fallback := *values
	*values = source
	applyDefaults(values, fallback)
}
