package recipe

import (
	"context"
	"fmt"
	"sync"

	"recipe-importer/internal/core/catalog"
	"recipe-importer/internal/pkg/common"
)

type fakeCatalog struct {
	entries []catalog.Entry
	err     error
}

func (f *fakeCatalog) ListIngredients(ctx context.Context) ([]catalog.Entry, error) {
	return f.entries, f.err
}

func (f *fakeCatalog) CreateIngredients(ctx context.Context, entries []catalog.Entry) ([]string, error) {
	return nil, fmt.Errorf("not supported")
}

type fakeRecords struct {
	mu        sync.Mutex
	created   [][]Draft
	records   map[string]*Record
	createErr error
	shortIDs  bool
	nextID    int
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[string]*Record{}}
}

func (f *fakeRecords) CreateRecipes(ctx context.Context, drafts []Draft) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, drafts)
	ids := make([]string, 0, len(drafts))
	for _, d := range drafts {
		f.nextID++
		id := fmt.Sprintf("rec-%d", f.nextID)
		f.records[id] = &Record{ID: id, Draft: d}
		ids = append(ids, id)
	}
	if f.shortIDs {
		ids = ids[:len(ids)-1]
	}
	return ids, nil
}

func (f *fakeRecords) UpdateNutrition(ctx context.Context, id string, info NutritionResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return common.ErrNotFound
	}
	rec.NutritionalInfo = &info
	return nil
}

func (f *fakeRecords) GetRecipe(ctx context.Context, id string) (*Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

type fakeDispatcher struct {
	jobs []EnrichmentJob
	full bool
}

func (f *fakeDispatcher) Fire(job EnrichmentJob) bool {
	if f.full {
		return false
	}
	f.jobs = append(f.jobs, job)
	return true
}

func soupCatalog() *fakeCatalog {
	return &fakeCatalog{entries: []catalog.Entry{
		{ID: "ing-tomato", Name: "Tomato", CostPerUnit: 0.005, BaseUnit: "g"},
		{ID: "ing-onion", Name: "Onion", CostPerUnit: 0.3, BaseUnit: "unit"},
	}}
}

func soupRow() ImportRow {
	return ImportRow{
		Name:              "Tomato Soup",
		Instructions:      "Boil everything for 20 minutes total time.",
		IngredientsString: "Tomato:500:g;Onion:1:unit",
	}
}
