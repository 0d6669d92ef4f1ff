package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artpar/pathsource/core/datasource"
	"github.com/artpar/pathsource/ports"
)

// ResourceStore is a sqlite-backed data source over one collection of
// the shared resources table. Values are JSON-encoded objects.
type ResourceStore struct {
	db         *DB
	collection string
	ids        ports.IDGenerator
	validate   func(map[string]any) error
}

// ResourceOption configures a ResourceStore.
type ResourceOption func(*ResourceStore)

// WithIDGenerator injects the identifier generator used by Create.
// Without one, Create is unsupported.
func WithIDGenerator(g ports.IDGenerator) ResourceOption {
	return func(s *ResourceStore) { s.ids = g }
}

// WithValidator injects a value validator. Invalid values fail the
// call before any mutation.
func WithValidator(fn func(map[string]any) error) ResourceOption {
	return func(s *ResourceStore) { s.validate = fn }
}

// NewResourceStore creates a data source over the named collection.
func NewResourceStore(db *DB, collection string, opts ...ResourceOption) *ResourceStore {
	s := &ResourceStore{db: db, collection: collection}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collection returns the collection name this store is scoped to.
func (s *ResourceStore) Collection() string { return s.collection }

// Retrieve returns the value stored under key.
func (s *ResourceStore) Retrieve(ctx context.Context, key string) (map[string]any, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT value FROM resources
		WHERE collection = ? AND key = ?
	`, s.collection, key)

	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, datasource.ErrNotFound
		}
		return nil, fmt.Errorf("query resource: %w", err)
	}
	return decodeValue(raw)
}

// Keys returns all keys of the collection in sorted order.
func (s *ResourceStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM resources
		WHERE collection = ?
		ORDER BY key
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("query keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Create validates the value, generates a key and inserts the entry.
// Without an injected ID generator, creation is unsupported.
func (s *ResourceStore) Create(ctx context.Context, value map[string]any) (string, error) {
	if s.ids == nil {
		return "", &datasource.UnsupportedError{Op: "create"}
	}
	if err := s.check(value); err != nil {
		return "", err
	}
	raw, err := encodeValue(value)
	if err != nil {
		return "", err
	}

	key := s.ids.New()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resources (collection, key, value)
		VALUES (?, ?, ?)
	`, s.collection, key, raw)
	if err != nil {
		return "", fmt.Errorf("insert resource: %w", err)
	}
	return key, nil
}

// Update replaces the value under key. It reports false without error
// when the key is absent.
func (s *ResourceStore) Update(ctx context.Context, key string, value map[string]any) (bool, error) {
	if err := s.check(value); err != nil {
		return false, err
	}
	raw, err := encodeValue(value)
	if err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE resources
		SET value = ?, updated_at = CURRENT_TIMESTAMP
		WHERE collection = ? AND key = ?
	`, raw, s.collection, key)
	if err != nil {
		return false, fmt.Errorf("update resource: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Remove deletes the entry under key. It reports false without error
// when the key is absent.
func (s *ResourceStore) Remove(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM resources
		WHERE collection = ? AND key = ?
	`, s.collection, key)
	if err != nil {
		return false, fmt.Errorf("delete resource: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// Put stores a value under an explicit key, inserting or replacing.
// Used for seeding collections from configuration.
func (s *ResourceStore) Put(ctx context.Context, key string, value map[string]any) error {
	if err := s.check(value); err != nil {
		return err
	}
	raw, err := encodeValue(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO resources (collection, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (collection, key) DO UPDATE
		SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, s.collection, key, raw)
	if err != nil {
		return fmt.Errorf("put resource: %w", err)
	}
	return nil
}

func (s *ResourceStore) check(value map[string]any) error {
	if s.validate == nil {
		return nil
	}
	if err := s.validate(value); err != nil {
		return &datasource.InvalidValueError{Cause: err}
	}
	return nil
}

// Capabilities exposes the store as a data-source capability record.
func (s *ResourceStore) Capabilities() datasource.Capabilities[string, map[string]any] {
	caps := datasource.Capabilities[string, map[string]any]{
		Retrieve: s.Retrieve,
		Keys:     s.Keys,
		Update:   s.Update,
		Remove:   s.Remove,
	}
	if s.ids != nil {
		caps.Create = s.Create
	}
	return caps
}

// DataSource wraps the store in a normalized data source.
func (s *ResourceStore) DataSource() (*datasource.DataSource[string, map[string]any], error) {
	return datasource.New(s.Capabilities())
}

func encodeValue(value map[string]any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return string(raw), nil
}

func decodeValue(raw string) (map[string]any, error) {
	var value map[string]any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return value, nil
}
