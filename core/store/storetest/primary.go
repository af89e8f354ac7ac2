// Package storetest provides an in-memory primary store for tests.
package storetest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"press-pass/core/pass"
)

// ErrDown is returned by every call while a Primary is down.
var ErrDown = errors.New("primary store unreachable")

// Primary is an in-memory store.Primary with a failure switch.
type Primary struct {
	mu    sync.Mutex
	rows  map[string]pass.Record
	down  bool
	calls int
}

// NewPrimary returns an empty, reachable Primary.
func NewPrimary() *Primary {
	return &Primary{rows: make(map[string]pass.Record)}
}

// SetDown toggles the failure switch.
func (p *Primary) SetDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

// Calls returns how many calls reached the store, failed ones included.
func (p *Primary) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Rows returns a copy of the stored rows.
func (p *Primary) Rows() map[string]pass.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]pass.Record, len(p.rows))
	for k, v := range p.rows {
		out[k] = v
	}
	return out
}

// Put stores rec directly, bypassing the switch.
func (p *Primary) Put(rec pass.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[rec.ID] = rec
}

func (p *Primary) enter() error {
	p.calls++
	if p.down {
		return ErrDown
	}
	return nil
}

func (p *Primary) Insert(_ context.Context, rec pass.Record) (pass.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(); err != nil {
		return pass.Record{}, err
	}
	if _, ok := p.rows[rec.ID]; ok {
		return pass.Record{}, errors.New("duplicate key value violates unique constraint")
	}
	p.rows[rec.ID] = rec
	return rec, nil
}

func (p *Primary) Get(_ context.Context, id string) (pass.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(); err != nil {
		return pass.Record{}, err
	}
	rec, ok := p.rows[id]
	if !ok {
		return pass.Record{}, pass.ErrNotFound
	}
	return rec, nil
}

func (p *Primary) List(_ context.Context, q pass.Query) ([]pass.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(); err != nil {
		return nil, err
	}

	out := make([]pass.Record, 0, len(p.rows))
	for _, r := range p.rows {
		if q.Email != "" && r.Email != q.Email {
			continue
		}
		if q.Organization != "" && (r.Organization == nil || *r.Organization != q.Organization) {
			continue
		}
		out = append(out, r)
	}

	col := q.SortColumn()
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		switch col {
		case pass.ColumnID:
			less = out[i].ID < out[j].ID
		case "name":
			less = strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		case "email":
			less = out[i].Email < out[j].Email
		default:
			less = out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		if q.Ascending {
			return less
		}
		return !less
	})

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []pass.Record{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(out) {
		out = out[:q.Limit]
	}
	return out, nil
}

func (p *Primary) Update(_ context.Context, id string, patch pass.Patch) (pass.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(); err != nil {
		return pass.Record{}, err
	}
	rec, ok := p.rows[id]
	if !ok {
		return pass.Record{}, pass.ErrNotFound
	}
	rec = patch.Apply(rec)
	p.rows[id] = rec
	return rec, nil
}

func (p *Primary) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enter(); err != nil {
		return err
	}
	if _, ok := p.rows[id]; !ok {
		return pass.ErrNotFound
	}
	delete(p.rows, id)
	return nil
}
