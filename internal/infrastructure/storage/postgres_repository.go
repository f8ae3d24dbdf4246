package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsMarkets/internal/domain"
	"NewsMarkets/internal/ports"
)

// PostgresRepository records every market a run produces for audit and
// cross-run history.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.MarketRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveMarkets upserts the produced markets keyed by their external id.
func (r *PostgresRepository) SaveMarkets(ctx context.Context, markets []domain.Market) error {
	if r.db == nil || len(markets) == 0 {
		return nil
	}

	for _, market := range markets {
		query, args, err := r.builder.
			Insert("generated_markets").
			Columns("external_id", "title", "description", "category", "tags",
				"status", "end_time", "resolution_source", "created_at").
			Values(market.ID, market.Title, market.Description, market.Category,
				pq.StringArray(market.Tags), string(market.Status), market.EndTime,
				market.ResolutionSource, market.CreatedAt).
			Suffix(`ON CONFLICT (external_id) DO UPDATE
                SET description = EXCLUDED.description,
                    tags = EXCLUDED.tags,
                    status = EXCLUDED.status,
                    end_time = EXCLUDED.end_time`).
			ToSql()
		if err != nil {
			return fmt.Errorf("build upsert for %s: %w", market.ID, err)
		}

		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert market %s: %w", market.ID, err)
		}
	}

	return nil
}

// CountByCategory reports how many markets have been recorded per category
// across all runs.
func (r *PostgresRepository) CountByCategory(ctx context.Context) (map[string]int, error) {
	if r.db == nil {
		return map[string]int{}, nil
	}

	query, args, err := r.builder.
		Select("category", "COUNT(*)").
		From("generated_markets").
		GroupBy("category").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("scan count row: %w", err)
		}
		counts[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return counts, nil
}
