package pipeline

import (
	"context"
	"errors"
	"sync"

	"immo-tracker/models"
	"immo-tracker/scraper/immowelt"
	"immo-tracker/storage"
)

type fakeCrawler struct {
	result immowelt.CrawlResult
	calls  int
}

func (f *fakeCrawler) CrawlAll(_ context.Context, _ string) immowelt.CrawlResult {
	f.calls++
	return f.result
}

type fakeEnricher struct {
	seen []string
}

func (f *fakeEnricher) Enrich(_ context.Context, listings []*models.Listing) int {
	for _, l := range listings {
		f.seen = append(f.seen, l.Link)
		addr := "Detail " + l.Link
		l.Enrich(&models.DetailInfo{FullAddress: &addr})
	}
	return len(listings)
}

// memStore is an in-memory storage.Store.
type memStore struct {
	mu          sync.Mutex
	rows        []*models.Listing
	loadErr     error
	saveErr     error
	backupErr   error
	saves       int
	checkpoints int
	backups     int
}

func (m *memStore) Load(context.Context) ([]*models.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]*models.Listing, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r.Clone())
	}
	return out, nil
}

func (m *memStore) Save(_ context.Context, listings []*models.Listing, checkpoint bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	if checkpoint {
		m.checkpoints++
	}
	m.rows = nil
	for _, l := range listings {
		m.rows = append(m.rows, l.Clone())
	}
	return nil
}

func (m *memStore) Backup(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.backupErr != nil {
		return "", m.backupErr
	}
	m.backups++
	return "backup.csv", nil
}

func (m *memStore) Query(ctx context.Context, c storage.Conditions, limit int) ([]*models.Listing, error) {
	return nil, errors.New("not implemented")
}

func (m *memStore) Close() error { return nil }

func (m *memStore) byLink() map[string]*models.Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*models.Listing, len(m.rows))
	for _, r := range m.rows {
		out[r.Link] = r
	}
	return out
}
