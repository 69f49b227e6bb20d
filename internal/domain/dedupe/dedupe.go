// Package dedupe drops repeated (player, season) rows from provider tables.
package dedupe

import (
	"sync"

	"github.com/okian/defscout/internal/domain/model"
)

// Key identifies one player-season.
type Key struct {
	PlayerID int64
	Season   string
}

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord reports whether key was seen before and records it if not.
	SeenAndRecord(key Key) bool
	Size() int
}

type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[Key]struct{}
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	return &inMemoryDeduper{seen: make(map[Key]struct{}, s.capacity)}
}

func (d *inMemoryDeduper) SeenAndRecord(key Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Table returns t without repeated (idCol, SEASON) rows, keeping the first
// occurrence, and the number of rows dropped. Rows without an id are kept.
func Table(t model.RawTable, idCol string) (model.RawTable, int) {
	d := NewInMemoryDeduper(WithCapacity(len(t.Rows)))
	out := model.RawTable{Name: t.Name, Columns: t.Columns, Rows: make([]model.Row, 0, len(t.Rows))}
	dropped := 0
	for _, r := range t.Rows {
		id, ok := r.ID(idCol)
		if ok && d.SeenAndRecord(Key{PlayerID: id, Season: r.String(model.ColSeason)}) {
			dropped++
			continue
		}
		out.Rows = append(out.Rows, r)
	}
	return out, dropped
}
