package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble/v2"
	"github.com/rs/zerolog"

	"chatterbox/internal/pkg/logx"
)

// PebbleStore persists identity values in a PebbleDB directory.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens (creating if needed) the store at dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("identity store directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create identity store directory: %w", err)
	}

	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{
		Logger: pebbleLogger{logx.Component("identity-store")},
	})
	if err != nil {
		return nil, fmt.Errorf("open identity store: %w", err)
	}

	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Get(key string) (string, bool, error) {
	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer closer.Close()

	// value is only valid until closer is closed
	return string(value), true, nil
}

func (s *PebbleStore) Set(key, value string) error {
	return s.db.Set([]byte(key), []byte(value), pebble.Sync)
}

func (s *PebbleStore) Delete(key string) error {
	return s.db.Delete([]byte(key), pebble.Sync)
}

// Close releases the database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// pebbleLogger routes pebble's internal logging to zerolog at debug level.
type pebbleLogger struct {
	logger zerolog.Logger
}

func (l pebbleLogger) Infof(format string, args ...any) {
	l.logger.Debug().Msgf(format, args...)
}

func (l pebbleLogger) Errorf(format string, args ...any) {
	l.logger.Error().Msgf(format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...any) {
	l.logger.Fatal().Msgf(format, args...)
}
