package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Config struct {
	Path string
}

func DefaultConfig() Config {
	// Docker Compose / env override
	if p := os.Getenv("PHRASEHUB_DB_PATH"); p != "" {
		return Config{Path: p}
	}

	// local default: ~/.phrasehub/history.db
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		Path: filepath.Join(home, ".phrasehub", "history.db"),
	}
}

// ConfigFor uses path when set and falls back to DefaultConfig.
func ConfigFor(path string) Config {
	if path == "" {
		return DefaultConfig()
	}
	return Config{Path: path}
}

func EnsureDataDir(cfg Config) error {
	if cfg.Path == MemoryPath {
		return nil
	}
	return os.MkdirAll(filepath.Dir(cfg.Path), 0o755)
}

func Open(cfg Config) (*sql.DB, error) {
	if err := EnsureDataDir(cfg); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if cfg.Path == MemoryPath {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma foreign_keys: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// OpenAndMigrate opens the database and applies the schema.
func OpenAndMigrate(cfg Config) (*sql.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func MustOpen(cfg Config) *sql.DB {
	db, err := OpenAndMigrate(cfg)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	return db
}
