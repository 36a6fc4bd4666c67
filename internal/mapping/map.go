package mapping

import (
	"fmt"
	"sync"

	"go.ngs.io/hydroviewer/internal/chart"
)

// Map is the heatmap figure of one session. Trace 0 is the region outline and
// is never replaced; at most one data trace follows it.
type Map struct {
	mu  sync.RWMutex
	fig *chart.Figure
}

// NewMap starts a session map from the shared outline figure.
func NewMap(base *chart.Figure) (*Map, error) {
	if len(base.Data) == 0 {
		return nil, fmt.Errorf("base figure has no outline trace")
	}
	fig := base.Clone()
	fig.Data = fig.Data[:1]
	return &Map{fig: fig}, nil
}

// SetData drops any previous data trace and appends t.
func (m *Map) SetData(t chart.Trace) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fig.Data = append(m.fig.Data[:1:1], t)
}

// ClearData keeps only the outline trace.
func (m *Map) ClearData() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fig.Data = m.fig.Data[:1:1]
}

// Len returns the number of traces.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.fig.Data)
}

// RegionAt resolves a click on point index i of the outline trace.
func (m *Map) RegionAt(i int) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return RegionIDAt(m.fig.Data[0], i)
}

// Figure returns a snapshot of the figure.
func (m *Map) Figure() *chart.Figure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fig.Clone()
}
