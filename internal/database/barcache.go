package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"github.com/rs/zerolog"

	"github.com/aristath/marketscan/internal/domain"
)

// BarCache stores fetched daily bars, one file database per ticker.
// Repeat fetches on the same day are served from the cache instead of
// hitting the provider again, and the cache doubles as a fallback when
// a provider is down.
type BarCache struct {
	cacheDir string
	log      zerolog.Logger
}

// NewBarCache creates a bar cache rooted at cacheDir.
func NewBarCache(cacheDir string, log zerolog.Logger) (*BarCache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bar cache directory: %w", err)
	}
	return &BarCache{
		cacheDir: cacheDir,
		log:      log.With().Str("component", "bar_cache").Logger(),
	}, nil
}

// Put upserts bars for a ticker, recording the provider they came
// from and the fetch date.
func (c *BarCache) Put(ticker, source string, bars []domain.Bar) error {
	db, err := c.open(ticker)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO daily_bars
			(date, open, high, low, close, adj_close, volume, source, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC().Format("2006-01-02")
	for _, b := range bars {
		if _, err := stmt.Exec(
			b.Date.Format("2006-01-02"),
			b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume,
			source, fetchedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to cache bar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bar cache: %w", err)
	}
	return nil
}

// Get returns the cached bars for a ticker within [start, end],
// ascending by date. A missing cache file yields an empty slice.
func (c *BarCache) Get(ticker string, start, end time.Time) ([]domain.Bar, error) {
	path := c.pathFor(ticker)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := c.open(ticker)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT date, open, high, low, close, adj_close, volume
		FROM daily_bars
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC`,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to query bar cache: %w", err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		var date string
		var volume sql.NullInt64
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan cached bar: %w", err)
		}
		b.Date, err = time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("bad cached date %q: %w", date, err)
		}
		if volume.Valid {
			b.Volume = volume.Int64
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bar cache: %w", err)
	}
	return bars, nil
}

// open opens (and if needed creates) the per-ticker cache database.
func (c *BarCache) open(ticker string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", c.pathFor(ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to open bar cache for %s: %w", ticker, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_bars (
			date       TEXT PRIMARY KEY,
			open       REAL NOT NULL,
			high       REAL NOT NULL,
			low        REAL NOT NULL,
			close      REAL NOT NULL,
			adj_close  REAL NOT NULL,
			volume     INTEGER,
			source     TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init bar cache for %s: %w", ticker, err)
	}
	return db, nil
}

// pathFor maps a ticker to its cache file: ^VIX -> _VIX.db.
func (c *BarCache) pathFor(ticker string) string {
	name := strings.NewReplacer(".", "_", "^", "_", "/", "_").Replace(ticker)
	return filepath.Join(c.cacheDir, name+".db")
}
