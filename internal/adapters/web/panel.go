package web

import (
	"html/template"
	"sync"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
)

// PanelState is a snapshot of the results container.
type PanelState struct {
	Loading      bool
	LoadingQuery template.HTML
	Result       template.HTML
}

func (s PanelState) Empty() bool {
	return !s.Loading && s.Result == ""
}

// ResultPanel is the results container of one browser session.
type ResultPanel struct {
	renderer *Renderer

	mu      sync.RWMutex
	state   PanelState
	changed chan struct{}
}

func NewResultPanel(renderer *Renderer) *ResultPanel {
	return &ResultPanel{renderer: renderer, changed: make(chan struct{})}
}

// Changed returns a channel closed at the next state change.
func (p *ResultPanel) Changed() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.changed
}

func (p *ResultPanel) ShowLoading(query string) {
	p.mu.Lock()
	p.setLocked(PanelState{Loading: true, LoadingQuery: template.HTML(query)})
	p.mu.Unlock()
}

func (p *ResultPanel) ShowResult(query string, resp *domain.QueryResponse) error {
	fragment, err := p.renderer.RenderResult(query, resp)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.setLocked(PanelState{})
		return err
	}
	p.setLocked(PanelState{Result: fragment})
	return nil
}

func (p *ResultPanel) Clear() {
	p.mu.Lock()
	p.setLocked(PanelState{})
	p.mu.Unlock()
}

func (p *ResultPanel) setLocked(state PanelState) {
	p.state = state
	close(p.changed)
	p.changed = make(chan struct{})
}

func (p *ResultPanel) State() PanelState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}
