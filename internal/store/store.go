// Package store persists scrim records and voice activity with gorm.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrScrimAlreadyRecorded is returned when a match id was already stored
	ErrScrimAlreadyRecorded = errors.New("scrim already recorded")
	// ErrUnknownDriver is returned for an unsupported database driver
	ErrUnknownDriver = errors.New("unknown database driver")
)

// DefaultSQLitePath is used when the sqlite driver is selected without a DSN
const DefaultSQLitePath = "scrimbot.db"

// Config selects the database backend
type Config struct {
	Driver string // "sqlite" (default) or "postgres"
	DSN    string
	Debug  bool
}

// Store wraps the gorm connection
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema
func Open(cfg Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
	}

	logLevel := gormlogger.Warn
	if cfg.Debug {
		logLevel = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.AutoMigrate(&Player{}, &ScrimMatch{}, &ScrimParticipant{}, &VoiceProfile{}, &VoiceRelationship{}); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return &Store{db: db}, nil
}

// Ping checks the database connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
