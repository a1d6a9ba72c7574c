package source

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/lib/pq"                  // PostgreSQL driver
	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver
)

// SQL streams the first column of a query result. Rows are fetched by the
// driver as they are consumed.
type SQL struct {
	db    *sql.DB
	query string
	args  []any
	owned bool

	rows *sql.Rows
}

// NewSQL runs query against db on first use. db stays open after Close.
func NewSQL(db *sql.DB, query string, args ...any) *SQL {
	return &SQL{db: db, query: query, args: args}
}

// OpenSQL opens a database with driver ("postgres" or "snowflake") and dsn.
// The connection pool is closed together with the source.
func OpenSQL(ctx context.Context, driver, dsn, query string) (*SQL, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", driver, err)
	}
	db.SetMaxOpenConns(2)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", driver, err)
	}
	s := NewSQL(db, query)
	s.owned = true
	return s, nil
}

func (s *SQL) Next(ctx context.Context) (string, error) {
	if s.rows == nil {
		rows, err := s.db.QueryContext(ctx, s.query, s.args...)
		if err != nil {
			return "", fmt.Errorf("querying identifiers: %w", err)
		}
		s.rows = rows
	}

	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return "", fmt.Errorf("iterating identifiers: %w", err)
		}
		return "", io.EOF
	}

	var v sql.NullString
	if err := s.rows.Scan(&v); err != nil {
		return "", fmt.Errorf("scanning identifier: %w", err)
	}
	return v.String, nil
}

func (s *SQL) Close() error {
	var err error
	if s.rows != nil {
		err = s.rows.Close()
	}
	if s.owned {
		if cerr := s.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
