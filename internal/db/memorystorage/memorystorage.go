package memorystorage

import (
	"github.com/patric-chuzhbe/usradmin/internal/db/jsondb"
)

// MemoryStorage keeps sessions for the lifetime of the process only.
type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewInMemory(),
	}, nil
}

func (theStorage *MemoryStorage) Close() error {
	return nil
}
