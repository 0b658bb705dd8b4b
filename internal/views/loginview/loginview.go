// Package loginview implements the operator login form.
package loginview

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/usradmin/internal/logger"
	"github.com/patric-chuzhbe/usradmin/internal/models"
	"github.com/patric-chuzhbe/usradmin/internal/notify"
	"github.com/patric-chuzhbe/usradmin/internal/session"
)

const (
	DemoEmail    = "eve.holt@reqres.in"
	DemoPassword = "cityslicka"

	// RedirectOnSuccess is where an operator lands after logging in.
	RedirectOnSuccess = "/users"

	msgLoginSuccessful = "Login successful!"
	msgInvalidForm     = "Enter a valid email and a password"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

var ErrInvalidForm = errors.New("login form is incomplete")

type authenticator interface {
	Login(ctx context.Context, credentials models.Credentials) (models.LoginResponse, error)
}

type sessionAuthenticator interface {
	Login(ctx context.Context, s *session.Session, token string) (*session.Session, error)
}

type notifier interface {
	Notify(ctx context.Context, level notify.Level, text string)
}

type loginRecorder interface {
	IncrementLogins(outcome string)
}

// Form is the state of the login form.
type Form struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Busy     bool   `validate:"-"`
	Error    string `validate:"-"`
}

// NewForm returns the form prefilled with the demo credentials of the remote service.
func NewForm() Form {
	return Form{
		Email:    DemoEmail,
		Password: DemoPassword,
	}
}

// Result is the outcome of a submit: either a redirect to follow with the
// renewed session or the form to show again.
type Result struct {
	Redirect string
	Session  *session.Session
	Form     Form
}

type View struct {
	api      authenticator
	sessions sessionAuthenticator
	notifier notifier
	recorder loginRecorder
	validate *validator.Validate
}

type Option func(*View)

// WithLoginRecorder counts login attempts by outcome.
func WithLoginRecorder(recorder loginRecorder) Option {
	return func(v *View) {
		v.recorder = recorder
	}
}

func New(api authenticator, sessions sessionAuthenticator, notifier notifier, opts ...Option) *View {
	v := &View{
		api:      api,
		sessions: sessions,
		notifier: notifier,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

func (v *View) record(outcome string) {
	if v.recorder != nil {
		v.recorder.IncrementLogins(outcome)
	}
}

// Submit exchanges the form's credentials for a token and logs in under a
// session that replaces s. The failure notification is sent by the API client;
// Submit only logs.
func (v *View) Submit(ctx context.Context, s *session.Session, form Form) (Result, error) {
	form.Error = ""
	if err := v.validate.Struct(form); err != nil {
		form.Password = ""
		form.Error = msgInvalidForm

		return Result{Form: form}, fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}

	form.Busy = true
	response, err := v.api.Login(ctx, models.Credentials{Email: form.Email, Password: form.Password})
	form.Busy = false

	if err != nil {
		logger.Log.Errorln("Login error:", zap.Error(err))
		v.record(outcomeFailure)
		form.Password = ""

		return Result{Form: form}, err
	}

	renewed, err := v.sessions.Login(ctx, s, response.Token)
	if err != nil {
		logger.Log.Errorln("Error storing the session token:", zap.Error(err))
		v.record(outcomeFailure)
		form.Password = ""

		return Result{Form: form}, fmt.Errorf("in internal/views/loginview/loginview.go/Submit(): error while `v.sessions.Login()` calling: %w", err)
	}

	v.record(outcomeSuccess)
	v.notifier.Notify(notify.ContextWithSink(ctx, renewed), notify.LevelSuccess, msgLoginSuccessful)

	return Result{Redirect: RedirectOnSuccess, Session: renewed}, nil
}
