package weather

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "modernc.org/sqlite"
)

// CityIndex resolves a Chinese place name to an AMap adcode.
type CityIndex interface {
	Lookup(ctx context.Context, name string) (adcode string, ok bool, err error)
}

// SQLiteCityIndex keeps the AMap adcode table in SQLite.
type SQLiteCityIndex struct {
	conn *sql.DB
	path string
}

// OpenCityIndex opens (and creates if needed) the adcode database at path.
func OpenCityIndex(path string) (*SQLiteCityIndex, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(2)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	idx := &SQLiteCityIndex{conn: conn, path: path}
	if err := idx.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return idx, nil
}

func (idx *SQLiteCityIndex) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cities (
			name     TEXT NOT NULL,
			adcode   TEXT NOT NULL,
			citycode TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cities_adcode ON cities(adcode)`,
	}
	for _, stmt := range statements {
		if _, err := idx.conn.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}

// Close closes the database.
func (idx *SQLiteCityIndex) Close() error {
	return idx.conn.Close()
}

// Path returns the database file path.
func (idx *SQLiteCityIndex) Path() string { return idx.path }

// Lookup returns the adcode of the first row whose name contains name.
func (idx *SQLiteCityIndex) Lookup(ctx context.Context, name string) (string, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, nil
	}

	var adcode string
	err := idx.conn.QueryRowContext(ctx,
		`SELECT adcode FROM cities WHERE name LIKE '%' || ? || '%' ESCAPE '\' ORDER BY rowid LIMIT 1`,
		escapeLike(name),
	).Scan(&adcode)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %q: %w", name, err)
	}
	return adcode, true, nil
}

// Count returns the number of rows in the index.
func (idx *SQLiteCityIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := idx.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM cities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cities: %w", err)
	}
	return n, nil
}

// ImportCSV replaces the table with rows of 中文名,adcode,citycode. A header
// row is skipped when present. Row order is kept, so lookups prefer the
// earliest match like the spreadsheet did.
func (idx *SQLiteCityIndex) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	tx, err := idx.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cities`); err != nil {
		return 0, fmt.Errorf("clear cities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cities (name, adcode, citycode) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	n := 0
	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv line %d: %w", line, err)
		}
		if line == 1 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
			if isHeader(rec) {
				continue
			}
		}
		if len(rec) < 2 {
			return 0, fmt.Errorf("csv line %d: expected at least 2 fields, got %d", line, len(rec))
		}
		name := strings.TrimSpace(rec[0])
		adcode := strings.TrimSpace(rec[1])
		if name == "" || adcode == "" {
			continue
		}
		citycode := ""
		if len(rec) > 2 {
			citycode = strings.TrimSpace(rec[2])
		}
		if _, err := stmt.ExecContext(ctx, name, adcode, citycode); err != nil {
			return 0, fmt.Errorf("insert line %d: %w", line, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func isHeader(rec []string) bool {
	if len(rec) < 2 {
		return false
	}
	return strings.Contains(rec[0], "中文名") || strings.EqualFold(strings.TrimSpace(rec[1]), "adcode")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
