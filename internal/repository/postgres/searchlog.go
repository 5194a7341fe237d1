package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kitbuilder587/websearch/internal/domain"
)

type SearchLogRepo struct {
	db *DB
}

func NewSearchLogRepo(db *DB) *SearchLogRepo {
	return &SearchLogRepo{db: db}
}

func (r *SearchLogRepo) Create(ctx context.Context, log *domain.SearchLog) error {
	query := `
        INSERT INTO search_logs (id, query, provider, success, result_count, dropped, diagnostics, duration_ms)
        VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
        RETURNING created_at
    `

	diagnostics := log.Diagnostics
	if diagnostics == nil {
		diagnostics = []string{}
	}

	err := r.db.Pool.QueryRow(ctx, query,
		log.ID,
		log.Query,
		log.Provider,
		log.Success,
		log.ResultCount,
		log.Dropped,
		diagnostics,
		log.Duration.Milliseconds(),
	).Scan(&log.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: duplicate search log id %s", domain.ErrInternal, log.ID)
		}
		return fmt.Errorf("create search log: %w", err)
	}

	return nil
}

func (r *SearchLogRepo) ListRecent(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
        SELECT id::text, query, provider, success, result_count, dropped, diagnostics, duration_ms, created_at
        FROM search_logs
        ORDER BY created_at DESC
        LIMIT $1
    `

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list search logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.SearchLog
	for rows.Next() {
		var (
			l          domain.SearchLog
			durationMs int64
		)
		err := rows.Scan(
			&l.ID,
			&l.Query,
			&l.Provider,
			&l.Success,
			&l.ResultCount,
			&l.Dropped,
			&l.Diagnostics,
			&durationMs,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search log: %w", err)
		}
		l.Duration = time.Duration(durationMs) * time.Millisecond
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search logs: %w", err)
	}

	return logs, nil
}

func (r *SearchLogRepo) CountByProvider(ctx context.Context) (map[string]int, error) {
	query := `
        SELECT provider, COUNT(*)
        FROM search_logs
        WHERE success
        GROUP BY provider
    `

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count search logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			provider string
			n        int
		)
		if err := rows.Scan(&provider, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[provider] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}

	return counts, nil
}
