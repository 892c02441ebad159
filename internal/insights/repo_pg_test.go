package insights

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInsights() Insights {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	return Insights{
		Industry: "tech",
		Payload: Payload{
			SalaryRanges:      []SalaryRange{{Role: "SRE", Min: 100, Max: 200, Median: 150, Location: "Remote"}},
			GrowthRate:        4.2,
			DemandLevel:       DemandMedium,
			TopSkills:         []string{"Go", "Terraform"},
			MarketOutlook:     OutlookNeutral,
			KeyTrends:         []string{"Platform teams"},
			RecommendedSkills: []string{"eBPF"},
		},
		LastUpdated: now,
		NextUpdate:  now.Add(DefaultTTL),
	}
}

func arrayValue(t *testing.T, values []string) driver.Value {
	t.Helper()
	v, err := pq.Array(values).Value()
	require.NoError(t, err)
	return v
}

func insightsRow(t *testing.T, in Insights) *sqlmock.Rows {
	t.Helper()
	salary, err := json.Marshal(in.SalaryRanges)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{
		"industry", "salary_ranges", "growth_rate", "demand_level", "top_skills",
		"market_outlook", "key_trends", "recommended_skills", "last_updated", "next_update",
	}).AddRow(
		in.Industry, salary, in.GrowthRate, string(in.DemandLevel), arrayValue(t, in.TopSkills),
		string(in.MarketOutlook), arrayValue(t, in.KeyTrends), arrayValue(t, in.RecommendedSkills),
		in.LastUpdated, in.NextUpdate,
	)
}

func TestPGRepoCreateIfAbsentRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	in := sampleInsights()
	mock.ExpectExec("INSERT INTO industry_insights.*ON CONFLICT \\(industry\\) DO NOTHING").
		WithArgs(in.Industry, sqlmock.AnyArg(), in.GrowthRate, "MEDIUM", sqlmock.AnyArg(), "NEUTRAL", sqlmock.AnyArg(), sqlmock.AnyArg(), in.LastUpdated, in.NextUpdate).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM industry_insights WHERE industry = \\$1").
		WithArgs("tech").
		WillReturnRows(insightsRow(t, in))

	repo := &PGRepo{DB: db}
	out, err := repo.CreateIfAbsent(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoGetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM industry_insights").
		WithArgs("none").
		WillReturnRows(sqlmock.NewRows([]string{"industry"}))

	_, err = (&PGRepo{DB: db}).Get(context.Background(), "none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoSaveUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("ON CONFLICT \\(industry\\) DO UPDATE SET").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, (&PGRepo{DB: db}).Save(context.Background(), sampleInsights()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoMarkers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	next := time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT industry, next_update FROM industry_insights").
		WillReturnRows(sqlmock.NewRows([]string{"industry", "next_update"}).
			AddRow("finance", next).
			AddRow("tech", next))

	markers, err := (&PGRepo{DB: db}).Markers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Marker{{Industry: "finance", NextUpdate: next}, {Industry: "tech", NextUpdate: next}}, markers)
}
