package insights

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores insights in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows map[string]Insights
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[string]Insights)}
}

func (r *MemoryRepo) Get(ctx context.Context, industry string) (Insights, error) {
	if err := ctx.Err(); err != nil {
		return Insights{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[industry]
	if !ok {
		return Insights{}, ErrNotFound
	}
	return cloneInsights(row), nil
}

func (r *MemoryRepo) CreateIfAbsent(ctx context.Context, row Insights) (Insights, error) {
	if err := ctx.Err(); err != nil {
		return Insights{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.rows[row.Industry]; ok {
		return cloneInsights(existing), nil
	}
	r.rows[row.Industry] = cloneInsights(row)
	return cloneInsights(row), nil
}

func (r *MemoryRepo) Save(ctx context.Context, row Insights) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[row.Industry] = cloneInsights(row)
	return nil
}

func (r *MemoryRepo) Markers(ctx context.Context) ([]Marker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Marker, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, Marker{Industry: row.Industry, NextUpdate: row.NextUpdate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Industry < out[j].Industry })
	return out, nil
}

func cloneInsights(in Insights) Insights {
	in.SalaryRanges = append([]SalaryRange{}, in.SalaryRanges...)
	in.TopSkills = append([]string{}, in.TopSkills...)
	in.KeyTrends = append([]string{}, in.KeyTrends...)
	in.RecommendedSkills = append([]string{}, in.RecommendedSkills...)
	return in
}

var _ Repo = (*MemoryRepo)(nil)
