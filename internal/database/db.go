package database

import (
	"database/sql"
	"fmt"

	"github.com/Alias1177/Sentinel/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the audit tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ticks (
			id BIGSERIAL PRIMARY KEY,
			symbol TEXT NOT NULL,
			bid DOUBLE PRECISION NOT NULL,
			ask DOUBLE PRECISION NOT NULL,
			volume DOUBLE PRECISION NOT NULL,
			ts TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT NOT NULL,
			timeframe TEXT NOT NULL,
			open_time TIMESTAMPTZ NOT NULL,
			open DOUBLE PRECISION NOT NULL,
			high DOUBLE PRECISION NOT NULL,
			low DOUBLE PRECISION NOT NULL,
			close DOUBLE PRECISION NOT NULL,
			volume DOUBLE PRECISION NOT NULL,
			UNIQUE (symbol, timeframe, open_time)
		)
	`)
	return err
}

// InsertTick stores one raw tick for audit/replay
func (db *DB) InsertTick(t models.Tick) error {
	_, err := db.Exec(
		`INSERT INTO ticks (symbol, bid, ask, volume, ts) VALUES ($1, $2, $3, $4, $5)`,
		t.Symbol, t.Bid, t.Ask, t.Volume, t.Timestamp,
	)
	return err
}

// InsertCandle stores one sealed candle; replays of the same bucket are ignored
func (db *DB) InsertCandle(c models.Candle) error {
	_, err := db.Exec(
		`INSERT INTO candles (symbol, timeframe, open_time, open, high, low, close, volume)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (symbol, timeframe, open_time) DO NOTHING`,
		c.Symbol, string(c.Timeframe), c.OpenTime, c.Open, c.High, c.Low, c.Close, c.Volume,
	)
	return err
}
