package deals

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listStageAggregatesSQL = `
SELECT s.id::text,
       s.title,
       EXTRACT(YEAR FROM d.close_date)::int AS close_year,
       EXTRACT(MONTH FROM d.close_date)::int AS close_month,
       SUM(d.value)::float8 AS total,
       COUNT(d.id) AS deal_count
FROM deal_stages s
LEFT JOIN deals d ON d.stage_id = s.id AND d.close_date IS NOT NULL
WHERE s.title = ANY($1)
GROUP BY s.id, s.title, close_year, close_month
ORDER BY s.title, close_year NULLS FIRST, close_month NULLS FIRST`

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresSource aggregates deal values straight from the CRM tables.
type PostgresSource struct {
	db dbtx
}

// NewPostgresSource constructs a source backed by the pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: pool}
}

// ListDealStages groups deal values per stage and close month. The GraphQL document is
// not used; the SQL mirrors its shape.
func (p *PostgresSource) ListDealStages(ctx context.Context, filter ListFilter, _ string) ([]DealStage, error) {
	if p == nil || p.db == nil {
		return nil, fmt.Errorf("postgres source not initialised")
	}
	rows, err := p.db.Query(ctx, listStageAggregatesSQL, filter.Titles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []DealStage
	index := make(map[string]int)
	for rows.Next() {
		var (
			id, title   string
			year, month pgtype.Int4
			total       pgtype.Float8
			count       int64
		)
		if err := rows.Scan(&id, &title, &year, &month, &total, &count); err != nil {
			return nil, err
		}
		pos, ok := index[id]
		if !ok {
			stages = append(stages, DealStage{ID: id, Title: title, DealsAggregate: []DealAggregateRow{}})
			pos = len(stages) - 1
			index[id] = pos
		}
		// open deals carry no close month
		if count == 0 || !year.Valid || !month.Valid {
			continue
		}
		row := DealAggregateRow{
			GroupBy: &AggregateGroupBy{CloseDateYear: int(year.Int32), CloseDateMonth: int(month.Int32)},
		}
		if total.Valid {
			row.Sum = &AggregateSum{Value: total.Float64}
		}
		stages[pos].DealsAggregate = append(stages[pos].DealsAggregate, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stages, nil
}
