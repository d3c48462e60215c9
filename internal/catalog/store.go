package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Row is one result row keyed by column name.
type Row map[string]any

// ResultSet is the outcome of a single executed statement.
type ResultSet struct {
	Rows         []Row
	RowsAffected int64
}

// Store owns the catalog file and executes registry operations against it.
type Store struct {
	db       *sqlx.DB
	path     string
	registry Registry

	closeOnce sync.Once
	closeErr  error
}

// Open acquires the catalog file at path, creating it when absent.
// Tables are not created; see EnsureSchema.
func Open(path string) (*Store, error) {
	return OpenWithRegistry(path, DefaultRegistry())
}

// OpenWithRegistry is Open with a caller-supplied registry.
func OpenWithRegistry(path string, registry Registry) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: create directory: %v", ErrStoreUnavailable, err)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// SQLite only supports one writer and the tool is single-threaded.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	log.WithField("path", path).Debug("Opened catalog")
	return &Store{db: db, path: path, registry: registry}, nil
}

// With opens the catalog at path, runs fn and always closes the store again.
func With(ctx context.Context, path string, fn func(ctx context.Context, s *Store) error) (err error) {
	s, err := Open(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(ctx, s)
}

// Path returns the location of the catalog file.
func (s *Store) Path() string {
	return s.path
}

// Exec runs the named operation and returns one result set per statement.
// All statements of an operation run in a single transaction.
func (s *Store) Exec(ctx context.Context, name string, args ...string) ([]ResultSet, error) {
	stmts, err := s.registry.Render(name, args)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: begin: %v", ErrQueryFailed, name, err)
	}
	defer tx.Rollback()

	results := make([]ResultSet, 0, len(stmts))
	for _, stmt := range stmts {
		log.WithFields(log.Fields{
			"op":   name,
			"sql":  stmt.SQL,
			"args": stmt.Args,
		}).Trace("Executing catalog statement")

		var rs ResultSet
		if stmt.Query {
			rs, err = queryRows(ctx, tx, stmt)
		} else {
			rs, err = execStatement(ctx, tx, stmt)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrQueryFailed, name, err)
		}
		results = append(results, rs)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %s: commit: %v", ErrQueryFailed, name, err)
	}
	return results, nil
}

func queryRows(ctx context.Context, tx *sqlx.Tx, stmt Statement) (ResultSet, error) {
	rows, err := tx.QueryxContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return ResultSet{}, err
	}
	defer rows.Close()

	rs := ResultSet{Rows: []Row{}}
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return ResultSet{}, fmt.Errorf("scan: %w", err)
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, rows.Err()
}

func execStatement(ctx context.Context, tx *sqlx.Tx, stmt Statement) (ResultSet, error) {
	res, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return ResultSet{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ResultSet{}, err
	}
	return ResultSet{RowsAffected: n}, nil
}

// EnsureSchema creates the feeds and articles tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	tables := []struct {
		name   string
		create string
	}{
		{tableFeeds, OpCreateTableFeeds},
		{tableArticles, OpCreateTableArticles},
	}

	for _, t := range tables {
		found, err := s.Exec(ctx, OpHasTable, t.name)
		if err != nil {
			return err
		}
		if len(found) > 0 && len(found[0].Rows) > 0 {
			continue
		}
		log.WithField("table", t.name).Info("Creating missing table")
		if _, err := s.Exec(ctx, t.create); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the catalog file. Calling it more than once is a no-op.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
		log.WithField("path", s.path).Debug("Closed catalog")
	})
	return s.closeErr
}
