// Package jsondb keeps operator sessions in a JSON file, the server-side
// counterpart of a browser's local storage. The file is rewritten after every
// login and logout and once more on Close.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/patric-chuzhbe/usradmin/internal/models"
)

type JSONDB struct {
	mu       sync.RWMutex
	fileName string
	Cache    CacheStruct
}

type CacheStruct struct {
	Sessions map[string]string
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Sessions": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

// New opens the session file, creating an empty one when it does not exist yet.
func New(fileName string) (*JSONDB, error) {
	db := &JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}
	if db.Cache.Sessions == nil {
		db.Cache.Sessions = map[string]string{}
	}

	return db, nil
}

// NewInMemory returns a JSONDB that never touches the disk.
func NewInMemory() *JSONDB {
	return &JSONDB{
		Cache: CacheStruct{
			Sessions: map[string]string{},
		},
	}
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

func (db *JSONDB) GetSession(ctx context.Context, id string) (*models.SessionRecord, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	token, found := db.Cache.Sessions[id]
	if !found {
		return nil, false, nil
	}

	return &models.SessionRecord{ID: id, Token: token}, true, nil
}

func (db *JSONDB) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.Cache.Sessions[record.ID] = record.Token

	return db.flush()
}

func (db *JSONDB) DeleteSession(ctx context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, found := db.Cache.Sessions[id]; !found {
		return nil
	}
	delete(db.Cache.Sessions, id)

	return db.flush()
}

func (db *JSONDB) flush() error {
	if db.fileName == "" {
		return nil
	}

	return writeToJSONFile(db.fileName, db.Cache)
}

func (db *JSONDB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.flush()
}
