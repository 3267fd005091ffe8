package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fjacquet/ekstre-csv/internal/parsererror"

	"github.com/google/uuid"
)

// MemoryStore is a Store kept in process memory. It is used when no
// database is configured.
type MemoryStore struct {
	mu          sync.RWMutex
	statements  map[uuid.UUID]Statement
	conversions map[uuid.UUID]Conversion
	now         func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statements:  make(map[uuid.UUID]Statement),
		conversions: make(map[uuid.UUID]Conversion),
		now:         time.Now,
	}
}

func (m *MemoryStore) SaveStatement(ctx context.Context, s *Statement) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.UploadDate.IsZero() {
		s.UploadDate = m.now().UTC()
	}
	m.statements[s.ID] = *s
	return s.ID, nil
}

func (m *MemoryStore) SaveConversion(ctx context.Context, c *Conversion) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.statements[c.StatementID]; !ok {
		return uuid.Nil, fmt.Errorf("statement %s: %w", c.StatementID, parsererror.ErrNotFound)
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.ConversionDate.IsZero() {
		c.ConversionDate = m.now().UTC()
	}
	m.conversions[c.ID] = *c
	return c.ID, nil
}

func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Summary, 0, len(m.statements))
	for _, s := range m.statements {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadDate.Equal(out[j].UploadDate) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].UploadDate.After(out[j].UploadDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Statement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.statements[id]
	if !ok {
		return nil, fmt.Errorf("statement %s: %w", id, parsererror.ErrNotFound)
	}
	return &s, nil
}

func (m *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	since := m.now().Add(-RecentWindow)
	st := Stats{TotalStatements: len(m.statements), TotalConversions: len(m.conversions)}
	for _, s := range m.statements {
		if !s.UploadDate.Before(since) {
			st.RecentStatements++
		}
	}
	return st, nil
}

func (m *MemoryStore) CleanOlderThan(ctx context.Context, days int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	limit := cutoff(m.now(), days)
	removed := 0
	for id, s := range m.statements {
		if !s.UploadDate.Before(limit) {
			continue
		}
		for cid, c := range m.conversions {
			if c.StatementID == id {
				delete(m.conversions, cid)
			}
		}
		delete(m.statements, id)
		removed++
	}
	return removed, nil
}

func (m *MemoryStore) Purge(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statements = make(map[uuid.UUID]Statement)
	m.conversions = make(map[uuid.UUID]Conversion)
	return nil
}

func (m *MemoryStore) Close() {}
