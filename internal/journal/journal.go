// Package journal records dispatched exchanges in SQLite. It is an audit
// trail only; nothing is replayed from it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/EchoPBX/c2host/internal/dispatch"
	"github.com/EchoPBX/c2host/pkg/sdk"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// MaxRecent caps the number of rows Recent returns.
const MaxRecent = 1000

type Journal struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (and creates if needed) the journal database at path.
func Open(ctx context.Context, path string, log *zap.Logger) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One writer; the dispatch goroutine is the only one appending.
	db.SetMaxOpenConns(1)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := bootstrap(pctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, log: log.Named("journal")}, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS exchanges (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  id         TEXT NOT NULL,
  kind       TEXT NOT NULL,
  from_id    TEXT NOT NULL,
  to_id      TEXT NOT NULL,
  payload    TEXT NOT NULL,
  at         TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS exchanges_id_idx ON exchanges(id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap journal: %w", err)
		}
	}
	return nil
}

// Observe appends ex. Write failures are logged; the dispatcher never sees
// them.
func (j *Journal) Observe(ex dispatch.Exchange) {
	if err := j.Append(context.Background(), ex); err != nil {
		j.log.Warn("could not record exchange", zap.String("id", ex.ID), zap.Error(err))
	}
}

func (j *Journal) Append(ctx context.Context, ex dispatch.Exchange) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO exchanges(id, kind, from_id, to_id, payload, at) VALUES(?, ?, ?, ?, ?, ?);`,
		ex.ID, string(ex.Kind), string(ex.From), string(ex.To), ex.Payload,
		ex.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert exchange: %w", err)
	}
	return nil
}

// Recent returns the last limit exchanges, oldest first. A limit outside
// 1..MaxRecent is clamped.
func (j *Journal) Recent(ctx context.Context, limit int) ([]dispatch.Exchange, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > MaxRecent {
		limit = MaxRecent
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, from_id, to_id, payload, at FROM (
  SELECT seq, id, kind, from_id, to_id, payload, at FROM exchanges ORDER BY seq DESC LIMIT ?
) ORDER BY seq ASC;`, limit)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	var out []dispatch.Exchange
	for rows.Next() {
		var (
			ex             dispatch.Exchange
			kind, from, to string
			at             string
		)
		if err := rows.Scan(&ex.ID, &kind, &from, &to, &ex.Payload, &at); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		ex.Kind = dispatch.ExchangeKind(kind)
		ex.From, ex.To = sdk.PluginID(from), sdk.PluginID(to)
		if ex.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse exchange time: %w", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error { return j.db.Close() }
