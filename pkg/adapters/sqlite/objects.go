package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// ObjectStore implements ports.ObjectStore on the objects table. Versions are
// revision numbers checked inside a transaction.
type ObjectStore struct {
	db *DB
}

// NewObjectStore creates an object store on db.
func NewObjectStore(db *DB) *ObjectStore {
	return &ObjectStore{db: db}
}

// Get reads one row.
func (s *ObjectStore) Get(ctx context.Context, key string) (*ports.Object, error) {
	var (
		body []byte
		rev  int64
		ms   int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT body, revision, modified_ms FROM objects WHERE key = ?`, key).Scan(&body, &rev, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying object %s: %w", key, err)
	}
	return &ports.Object{Key: key, Body: body, Version: strconv.FormatInt(rev, 10), LastModified: time.UnixMilli(ms)}, nil
}

// Put upserts a row after checking the preconditions in the same transaction.
func (s *ObjectStore) Put(ctx context.Context, key string, body []byte, opts ports.PutOptions) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var cur int64
	err = tx.QueryRowContext(ctx, `SELECT revision FROM objects WHERE key = ?`, key).Scan(&cur)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("querying revision of %s: %w", key, err)
	}
	if opts.IfNoneMatch && exists {
		return "", domain.ErrVersionConflict
	}
	if opts.IfMatch != "" && (!exists || strconv.FormatInt(cur, 10) != opts.IfMatch) {
		return "", domain.ErrVersionConflict
	}

	next := cur + 1
	_, err = tx.ExecContext(ctx, `
		INSERT INTO objects (key, body, revision, modified_ms) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, revision = excluded.revision, modified_ms = excluded.modified_ms`,
		key, body, next, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("writing object %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing object %s: %w", key, err)
	}
	return strconv.FormatInt(next, 10), nil
}

// List returns keys under prefix in key order.
func (s *ObjectStore) List(ctx context.Context, prefix string) ([]ports.ObjectInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, modified_ms FROM objects WHERE substr(key, 1, ?) = ? ORDER BY key`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}
	defer rows.Close()

	var out []ports.ObjectInfo
	for rows.Next() {
		var (
			key string
			ms  int64
		)
		if err := rows.Scan(&key, &ms); err != nil {
			return nil, fmt.Errorf("scanning object row: %w", err)
		}
		out = append(out, ports.ObjectInfo{Key: key, Filename: strings.TrimPrefix(key, prefix), LastModified: time.UnixMilli(ms)})
	}
	return out, rows.Err()
}

// Delete removes a row.
func (s *ObjectStore) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting object %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrObjectNotFound
	}
	return nil
}
