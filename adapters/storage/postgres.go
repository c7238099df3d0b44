package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"tripcost/internal/errors"
	"tripcost/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS cotations (
	id           UUID PRIMARY KEY,
	profile_id   TEXT NOT NULL,
	profile_name TEXT NOT NULL DEFAULT '',
	trip_id      TEXT NOT NULL,
	fingerprint  TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL,
	metadata     JSONB,
	grid         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS cotations_profile_idx ON cotations (profile_id, created_at DESC);
CREATE INDEX IF NOT EXISTS cotations_fingerprint_idx ON cotations (fingerprint, created_at DESC);
`

const selectColumns = `SELECT id, profile_id, profile_name, trip_id, fingerprint, created_at, metadata, grid FROM cotations`

// PostgresStore keeps cotations in a PostgreSQL table, the grid as JSONB
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore connects to dsn and creates the table when missing
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.Input("postgres storage requires a DSN")
	}
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logging.Info("postgres storage ready")
	return s, nil
}

// NewPostgresStoreFromPool wraps an existing pool without migrating
func NewPostgresStoreFromPool(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create cotations table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, c *StoredCotation) error {
	if err := c.prepare(); err != nil {
		return err
	}
	grid, meta, err := encodeRow(c)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO cotations (id, profile_id, profile_name, trip_id, fingerprint, created_at, metadata, grid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			metadata    = EXCLUDED.metadata,
			grid        = EXCLUDED.grid`,
		c.ID, c.ProfileID, c.ProfileName, c.TripID, c.Fingerprint, c.CreatedAt, meta, grid,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cotation: %w", err)
	}
	logging.Debug("cotation stored", zap.String("id", c.ID), logging.Profile(c.ProfileID))
	return nil
}

// encodeRow marshals the JSONB columns of a record
func encodeRow(c *StoredCotation) (grid, meta []byte, err error) {
	grid, err = json.Marshal(c.Grid)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal grid: %w", err)
	}
	if len(c.Metadata) > 0 {
		meta, err = json.Marshal(c.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}
	return grid, meta, nil
}

// decodeRow fills the JSONB fields of a scanned record
func decodeRow(c *StoredCotation, grid, meta []byte) error {
	if err := json.Unmarshal(grid, &c.Grid); err != nil {
		return fmt.Errorf("failed to unmarshal grid of %s: %w", c.ID, err)
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Metadata); err != nil {
			return fmt.Errorf("failed to unmarshal metadata of %s: %w", c.ID, err)
		}
	}
	return nil
}

func scanRow(row pgx.Row) (*StoredCotation, error) {
	var c StoredCotation
	var grid, meta []byte
	if err := row.Scan(&c.ID, &c.ProfileID, &c.ProfileName, &c.TripID, &c.Fingerprint, &c.CreatedAt, &meta, &grid); err != nil {
		return nil, err
	}
	if err := decodeRow(&c, grid, meta); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*StoredCotation, error) {
	c, err := scanRow(s.db.QueryRow(ctx, selectColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NotFound("cotation", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// listQuery builds the WHERE clause of a filter
func listQuery(filter *ListFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter != nil {
		if filter.ProfileID != "" {
			add("profile_id = $%d", filter.ProfileID)
		}
		if filter.TripID != "" {
			add("trip_id = $%d", filter.TripID)
		}
		if filter.Fingerprint != "" {
			add("fingerprint = $%d", filter.Fingerprint)
		}
		if !filter.Since.IsZero() {
			add("created_at >= $%d", filter.Since)
		}
		if !filter.Until.IsZero() {
			add("created_at <= $%d", filter.Until)
		}
	}

	q := selectColumns
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC, id"
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter != nil && filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return q, args
}

func (s *PostgresStore) List(ctx context.Context, filter *ListFilter) ([]*StoredCotation, error) {
	q, args := listQuery(filter)
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cotations: %w", err)
	}
	defer rows.Close()

	var results []*StoredCotation
	for rows.Next() {
		c, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cotations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("cotation", id)
	}
	return nil
}

func (s *PostgresStore) GetLatest(ctx context.Context, profileID string) (*StoredCotation, error) {
	return latest(ctx, s, &ListFilter{ProfileID: profileID}, profileID)
}

func (s *PostgresStore) FindByFingerprint(ctx context.Context, fingerprint string) (*StoredCotation, error) {
	return latest(ctx, s, &ListFilter{Fingerprint: fingerprint}, fingerprint)
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
