package insights

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const insightsColumns = `industry, salary_ranges, growth_rate, demand_level, top_skills, market_outlook, key_trends, recommended_skills, last_updated, next_update`

func (r *PGRepo) Get(ctx context.Context, industry string) (Insights, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+insightsColumns+` FROM industry_insights WHERE industry = $1`, industry)
	out, err := scanInsights(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Insights{}, ErrNotFound
	}
	return out, err
}

func (r *PGRepo) CreateIfAbsent(ctx context.Context, row Insights) (Insights, error) {
	args, err := insightsArgs(row)
	if err != nil {
		return Insights{}, err
	}
	if _, err := r.DB.ExecContext(ctx, `
INSERT INTO industry_insights (`+insightsColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (industry) DO NOTHING`, args...); err != nil {
		return Insights{}, err
	}
	// Another process may have won the insert; return what is stored.
	return r.Get(ctx, row.Industry)
}

func (r *PGRepo) Save(ctx context.Context, row Insights) error {
	args, err := insightsArgs(row)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
INSERT INTO industry_insights (`+insightsColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (industry) DO UPDATE SET
    salary_ranges = EXCLUDED.salary_ranges,
    growth_rate = EXCLUDED.growth_rate,
    demand_level = EXCLUDED.demand_level,
    top_skills = EXCLUDED.top_skills,
    market_outlook = EXCLUDED.market_outlook,
    key_trends = EXCLUDED.key_trends,
    recommended_skills = EXCLUDED.recommended_skills,
    last_updated = EXCLUDED.last_updated,
    next_update = EXCLUDED.next_update`, args...)
	return err
}

func (r *PGRepo) Markers(ctx context.Context) ([]Marker, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT industry, next_update FROM industry_insights ORDER BY industry`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Marker{}
	for rows.Next() {
		var m Marker
		if err := rows.Scan(&m.Industry, &m.NextUpdate); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func insightsArgs(row Insights) ([]any, error) {
	ranges := row.SalaryRanges
	if ranges == nil {
		ranges = []SalaryRange{}
	}
	salaryJSON, err := json.Marshal(ranges)
	if err != nil {
		return nil, fmt.Errorf("encode salary ranges: %w", err)
	}
	return []any{
		row.Industry,
		salaryJSON,
		row.GrowthRate,
		string(row.DemandLevel),
		pq.Array(nonNil(row.TopSkills)),
		string(row.MarketOutlook),
		pq.Array(nonNil(row.KeyTrends)),
		pq.Array(nonNil(row.RecommendedSkills)),
		row.LastUpdated,
		row.NextUpdate,
	}, nil
}

func scanInsights(row *sql.Row) (Insights, error) {
	var out Insights
	var salaryJSON []byte
	var demand, outlook string
	if err := row.Scan(
		&out.Industry,
		&salaryJSON,
		&out.GrowthRate,
		&demand,
		pq.Array(&out.TopSkills),
		&outlook,
		pq.Array(&out.KeyTrends),
		pq.Array(&out.RecommendedSkills),
		&out.LastUpdated,
		&out.NextUpdate,
	); err != nil {
		return Insights{}, err
	}
	if len(salaryJSON) > 0 {
		if err := json.Unmarshal(salaryJSON, &out.SalaryRanges); err != nil {
			return Insights{}, fmt.Errorf("decode salary ranges: %w", err)
		}
	}
	out.DemandLevel = DemandLevel(demand)
	out.MarketOutlook = MarketOutlook(outlook)
	out.Payload = normalize(out.Payload)
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
