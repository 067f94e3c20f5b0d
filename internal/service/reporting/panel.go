package reporting

import (
	"context"
	"errors"
	"sync"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

// ErrStaleResult is returned by Panel.Refresh when a newer refresh started meanwhile.
var ErrStaleResult = errors.New("report superseded by a newer filter")

// ReportFunc builds one report for a filter.
type ReportFunc func(ctx context.Context, req models.ReportRequest) (models.Report, error)

// Panel holds the latest report of one dashboard view. When the filter changes while
// a refresh is in flight, the older result is discarded on arrival.
type Panel struct {
	build ReportFunc

	mu         sync.Mutex
	generation uint64
	current    models.Report
	hasCurrent bool
}

// NewPanel builds a panel around build.
func NewPanel(build ReportFunc) *Panel {
	return &Panel{build: build}
}

// Refresh builds a report for req and publishes it unless superseded.
func (p *Panel) Refresh(ctx context.Context, req models.ReportRequest) (models.Report, error) {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	report, err := p.build(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return models.Report{}, ErrStaleResult
	}
	if err != nil {
		return models.Report{}, err
	}
	p.current = report
	p.hasCurrent = true
	return report, nil
}

// Current returns the last published report.
func (p *Panel) Current() (models.Report, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.hasCurrent
}

// Panels keeps one Panel per dashboard view key. A view is dropped once no
// refresh for it is in flight.
type Panels struct {
	build ReportFunc

	mu     sync.Mutex
	panels map[string]*panelEntry
}

type panelEntry struct {
	panel    *Panel
	inflight int
}

// NewPanels builds a panel registry around build.
func NewPanels(build ReportFunc) *Panels {
	return &Panels{build: build, panels: make(map[string]*panelEntry)}
}

// Refresh refreshes the panel named key. An empty key bypasses staleness tracking.
func (ps *Panels) Refresh(ctx context.Context, key string, req models.ReportRequest) (models.Report, error) {
	if key == "" {
		return ps.build(ctx, req)
	}

	ps.mu.Lock()
	e, ok := ps.panels[key]
	if !ok {
		e = &panelEntry{panel: NewPanel(ps.build)}
		ps.panels[key] = e
	}
	e.inflight++
	ps.mu.Unlock()

	report, err := e.panel.Refresh(ctx, req)

	ps.mu.Lock()
	e.inflight--
	if e.inflight == 0 {
		delete(ps.panels, key)
	}
	ps.mu.Unlock()

	return report, err
}

// Len reports how many views have a refresh in flight.
func (ps *Panels) Len() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.panels)
}
