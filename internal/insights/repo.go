package insights

import "context"

// Repo persists insights keyed by industry.
type Repo interface {
	Get(ctx context.Context, industry string) (Insights, error)

	// CreateIfAbsent inserts row unless the industry already exists and returns
	// whichever row is stored afterwards.
	CreateIfAbsent(ctx context.Context, row Insights) (Insights, error)

	// Save overwrites the row for the industry, inserting it if missing.
	Save(ctx context.Context, row Insights) error

	// Markers lists every cached industry with its next refresh time.
	Markers(ctx context.Context) ([]Marker, error)
}
