// Package source loads the two reconcile inputs: loosely typed rows from the
// live Postgres feed and static fixtures from GeoJSON or YAML.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/hydromap/internal/domain/asset"
	"github.com/okian/hydromap/pkg/logger"
)

const listAssetsSQL = `SELECT * FROM assets ORDER BY created_at DESC`

// PostgresLive reads the live asset table.
type PostgresLive struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewPostgresLive connects a pgx pool to databaseURL.
func NewPostgresLive(ctx context.Context, databaseURL string) (*PostgresLive, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLiveUnavailable, err)
	}
	return &PostgresLive{pool: pool, logger: logger.Get().Named("source.postgres")}, nil
}

// Close releases the pool resources.
func (p *PostgresLive) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// FetchLive returns every row of the assets table, newest first, keyed by
// column name.
func (p *PostgresLive) FetchLive(ctx context.Context) ([]asset.RawRecord, error) {
	rows, err := p.pool.Query(ctx, listAssetsSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLiveUnavailable, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	records := make([]asset.RawRecord, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLiveUnavailable, err)
		}
		records = append(records, rowToRecord(fields, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLiveUnavailable, err)
	}
	p.logger.Debug(ctx, "fetched live assets", logger.Int("rows", len(records)))
	return records, nil
}

// rowToRecord turns pgx's decoded values into the plain shapes Normalize
// understands.
func rowToRecord(fields []pgconn.FieldDescription, values []any) asset.RawRecord {
	rec := make(asset.RawRecord, len(fields))
	for i, f := range fields {
		if i >= len(values) {
			break
		}
		rec[f.Name] = plainValue(values[i])
	}
	return rec
}

func plainValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
