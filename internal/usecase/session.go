package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"go.ngs.io/hydroviewer/internal/adapter/store"
	"go.ngs.io/hydroviewer/internal/adapter/store/region"
	"go.ngs.io/hydroviewer/internal/chart"
	"go.ngs.io/hydroviewer/internal/config"
	"go.ngs.io/hydroviewer/internal/domain"
	"go.ngs.io/hydroviewer/internal/mapping"
	"go.ngs.io/hydroviewer/internal/reactive"
	"go.ngs.io/hydroviewer/internal/zonal"
)

// NoTimeMessage replaces the time slider when the dataset cannot provide a time axis.
const NoTimeMessage = "No dataset loaded or time variable missing."

// SliderLabel is the caption of the time slider.
const SliderLabel = "Move the slider below to switch time instance"

var (
	// ErrInvalidInput is returned for selections the catalog or dataset rejects.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoRegionAtLocation is returned when a clicked position is outside every region.
	ErrNoRegionAtLocation = errors.New("no region at location")
)

// Graph inputs and nodes.
const (
	inVariable = "variable"
	inTime     = "time"
	inProfile  = "profile"
	inDataType = "data_type"
	inRegion   = "region"

	nodeSource  = "source"
	nodeSlider  = "slider"
	nodeLabel   = "label"
	nodeHeatmap = "heatmap"
	nodeBoxplot = "boxplot"

	cycleDataset = "dataset"
)

// Deps are the shared, read-only collaborators of every session.
type Deps struct {
	Catalog *config.Catalog
	Paths   map[domain.Family]string
	Layer   *region.Layer
	Opener  store.DatasetOpener
	BaseMap *chart.Figure
	Log     zerolog.Logger
}

// Slider is the time control. When Available is false only Message is shown.
type Slider struct {
	Available bool   `json:"available"`
	Label     string `json:"label,omitempty"`
	Min       int    `json:"min"`
	Max       int    `json:"max"`
	Step      int    `json:"step"`
	Value     int    `json:"value"`
	Animate   bool   `json:"animate"`
	Message   string `json:"message,omitempty"`
}

// View is a snapshot of every output of a session.
type View struct {
	ID          string            `json:"id"`
	Seq         uint64            `json:"seq"`
	Selection   domain.Selection  `json:"selection"`
	DatasetPath string            `json:"dataset_path"`
	Slider      Slider            `json:"slider"`
	TimeLabel   string            `json:"time_label"`
	Heatmap     *chart.Figure     `json:"heatmap"`
	Boxplot     *chart.Figure     `json:"boxplot"`
	BoxStats    []chart.BoxStats  `json:"box_stats,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// Session is the reactive state of one dashboard visitor. Events are
// serialised: each one runs its recomputation cycle to completion before the
// next is accepted.
type Session struct {
	id    string
	deps  Deps
	graph *reactive.Graph

	// lastSeen is read by the idle sweep without taking mu, which a busy
	// cycle holds for as long as its dataset takes to load.
	lastSeen atomic.Int64

	mu  sync.Mutex
	sel domain.Selection

	path      string
	times     []time.Time
	slider    Slider
	timeLabel string
	heat      *mapping.Map
	box       *chart.Figure
	stats     []chart.BoxStats
	errs      map[string]string
	seq       uint64

	subMu  sync.Mutex
	subs   map[int]func(View)
	nextID int

	closeOnce sync.Once
	done      chan struct{}
}

// NewSession wires the recomputation graph of a session. Call Refresh to
// render the initial outputs.
func NewSession(id string, deps Deps) (*Session, error) {
	heat, err := mapping.NewMap(deps.BaseMap)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:    id,
		deps:  deps,
		graph: reactive.New(),
		sel:   domain.DefaultSelection(deps.Catalog.DefaultVariable),
		heat:  heat,
		box:   chart.Placeholder(domain.NoRegion),
		errs:  map[string]string{},
		subs:  map[int]func(View){},
		done:  make(chan struct{}),
	}
	s.touch()
	if len(deps.Catalog.Profiles) > 0 {
		s.sel.Profile = deps.Catalog.Profiles[0].Index
	}

	g := s.graph
	for _, in := range []string{inVariable, inTime, inProfile, inDataType, inRegion} {
		if err := g.Input(in); err != nil {
			return nil, err
		}
	}
	nodes := []struct {
		name string
		deps []string
		fn   reactive.ComputeFunc
	}{
		{nodeSource, []string{inVariable}, s.computeSource},
		{nodeSlider, []string{nodeSource}, s.computeSlider},
		{nodeLabel, []string{nodeSlider, inTime}, s.computeLabel},
		{nodeHeatmap, []string{nodeSource, inTime, inProfile}, s.computeHeatmap},
		{nodeBoxplot, []string{nodeSource, inProfile, inDataType, inRegion}, s.computeBoxplot},
	}
	for _, n := range nodes {
		if err := g.Register(n.name, n.deps, n.fn); err != nil {
			return nil, err
		}
	}
	g.Subscribe(s.recordCycle)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LastSeen returns the time of the last event.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Close ends the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Refresh recomputes every output.
func (s *Session) Refresh(ctx context.Context) (View, error) {
	return s.publish(ctx, func() error { return nil })
}

// Inputs is a batch of control changes. Nil fields are left alone.
type Inputs struct {
	Variable  *string
	TimeIndex *int
	Profile   *int
	DataType  *string
}

func (in Inputs) names() []string {
	var out []string
	if in.Variable != nil {
		out = append(out, inVariable, inTime)
	}
	if in.TimeIndex != nil && in.Variable == nil {
		out = append(out, inTime)
	}
	if in.Profile != nil {
		out = append(out, inProfile)
	}
	if in.DataType != nil {
		out = append(out, inDataType)
	}
	return out
}

// Apply validates every field of in and, when all are valid, applies them
// together as one event. A new variable resets the time index to 0 unless
// in carries one; that index is checked against the new variable's dataset.
// On error the selection is unchanged.
func (s *Session) Apply(ctx context.Context, in Inputs) (View, error) {
	names := in.names()
	if len(names) == 0 {
		return s.View(), nil
	}
	return s.publish(ctx, func() error {
		next := s.sel
		if in.Variable != nil {
			if _, ok := s.deps.Catalog.Lookup(*in.Variable); !ok {
				return fmt.Errorf("%w: unknown variable %q", ErrInvalidInput, *in.Variable)
			}
			next.Variable = *in.Variable
			next.TimeIndex = 0
		}
		if in.Profile != nil {
			if !s.deps.Catalog.HasProfile(*in.Profile) {
				return fmt.Errorf("%w: unknown profile %d", ErrInvalidInput, *in.Profile)
			}
			next.Profile = *in.Profile
		}
		if in.DataType != nil {
			if !s.deps.Catalog.HasDataType(*in.DataType) {
				return fmt.Errorf("%w: unknown data type %q", ErrInvalidInput, *in.DataType)
			}
			next.DataType = *in.DataType
		}
		if in.TimeIndex != nil {
			limit, err := s.timeLimit(ctx, next.Variable)
			if err != nil {
				return err
			}
			if idx := *in.TimeIndex; idx < 0 || idx > limit {
				return fmt.Errorf("%w: time index %d out of range [0, %d]", ErrInvalidInput, idx, limit)
			}
			next.TimeIndex = *in.TimeIndex
		}
		s.sel = next
		return nil
	}, names...)
}

// timeLimit returns the largest valid time index for variable. The current
// slider answers for the current dataset; another dataset is opened to read
// its time axis.
func (s *Session) timeLimit(ctx context.Context, variable string) (int, error) {
	v, ok := s.deps.Catalog.Lookup(variable)
	if !ok {
		return 0, fmt.Errorf("%w: unknown variable %q", ErrInvalidInput, variable)
	}
	path := s.deps.Paths[v.Family]
	if path == s.path {
		if s.slider.Available {
			return s.slider.Max, nil
		}
		return 0, nil
	}

	ds, err := s.deps.Opener.Open(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer ds.Close()
	_, _, times, err := mapping.StandardCoordinates(ds)
	if err != nil {
		return 0, err
	}
	if len(times) == 0 {
		return 0, nil
	}
	return len(times) - 1, nil
}

// SetVariable selects another variable. The slider is rebuilt for the new
// dataset and the time index returns to 0.
func (s *Session) SetVariable(ctx context.Context, name string) (View, error) {
	return s.Apply(ctx, Inputs{Variable: &name})
}

// SetTimeIndex moves the time slider.
func (s *Session) SetTimeIndex(ctx context.Context, idx int) (View, error) {
	return s.Apply(ctx, Inputs{TimeIndex: &idx})
}

// SetProfile selects a soil layer.
func (s *Session) SetProfile(ctx context.Context, profile int) (View, error) {
	return s.Apply(ctx, Inputs{Profile: &profile})
}

// SetDataType selects how the ensemble is presented.
func (s *Session) SetDataType(ctx context.Context, dataType string) (View, error) {
	return s.Apply(ctx, Inputs{DataType: &dataType})
}

// ClickPoint selects the region attached to point index i of the outline trace.
func (s *Session) ClickPoint(ctx context.Context, i int) (View, error) {
	return s.publish(ctx, func() error {
		id, err := s.heat.RegionAt(i)
		if err != nil {
			return err
		}
		return s.selectRegion(id)
	}, inRegion)
}

// ClickLocation selects the region containing (lon, lat).
func (s *Session) ClickLocation(ctx context.Context, lon, lat float64) (View, error) {
	return s.publish(ctx, func() error {
		r, ok := s.deps.Layer.Locate(lon, lat)
		if !ok {
			return fmt.Errorf("%w: %.4f, %.4f", ErrNoRegionAtLocation, lon, lat)
		}
		return s.selectRegion(r.ID)
	}, inRegion)
}

func (s *Session) selectRegion(id string) error {
	if _, err := s.deps.Layer.Get(id); err != nil {
		return err
	}
	s.sel.RegionID = id
	return nil
}

// View returns the current outputs.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe calls fn with the outputs after every recomputation. fn runs
// while the session is locked and must not call back into the session.
func (s *Session) Subscribe(fn func(View)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// publish applies an input change and runs one cycle. With no inputs every
// output is recomputed.
func (s *Session) publish(ctx context.Context, apply func() error, inputs ...string) (View, error) {
	s.touch()
	defer s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := apply(); err != nil {
		return s.snapshot(), err
	}
	if _, err := s.graph.Publish(ctx, inputs...); err != nil {
		return s.snapshot(), err
	}
	return s.snapshot(), nil
}

// recordCycle stores the outcome of a cycle and fans the new view out to
// subscribers.
func (s *Session) recordCycle(ev reactive.Event) {
	s.seq = ev.Seq
	for _, name := range ev.Recomputed {
		delete(s.errs, name)
	}
	for name, err := range ev.Errors {
		s.errs[name] = err.Error()
		s.deps.Log.Warn().Err(err).Str("session", s.id).Str("node", name).Msg("recompute failed")
	}

	s.subMu.Lock()
	fns := make([]func(View), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	if len(fns) == 0 {
		return
	}
	view := s.snapshot()
	for _, fn := range fns {
		fn(view)
	}
}

func (s *Session) snapshot() View {
	v := View{
		ID:          s.id,
		Seq:         s.seq,
		Selection:   s.sel,
		DatasetPath: s.path,
		Slider:      s.slider,
		TimeLabel:   s.timeLabel,
		Heatmap:     s.heat.Figure(),
		Boxplot:     s.box.Clone(),
		BoxStats:    s.stats,
	}
	if len(s.errs) > 0 {
		v.Errors = make(map[string]string, len(s.errs))
		for k, e := range s.errs {
			v.Errors[k] = e
		}
	}
	return v
}

func (s *Session) variable() (domain.Variable, error) {
	v, ok := s.deps.Catalog.Lookup(s.sel.Variable)
	if !ok {
		return domain.Variable{}, fmt.Errorf("%w: unknown variable %q", ErrInvalidInput, s.sel.Variable)
	}
	return v, nil
}

// dataset opens the current source at most once per cycle and closes it when
// the cycle ends.
func (s *Session) dataset(ctx context.Context, c *reactive.Cycle) (store.Dataset, error) {
	type opened struct {
		ds  store.Dataset
		err error
	}
	if v, ok := c.Value(cycleDataset); ok {
		o := v.(opened)
		return o.ds, o.err
	}
	ds, err := s.deps.Opener.Open(ctx, s.path)
	if err != nil {
		err = fmt.Errorf("failed to open %s: %w", s.path, err)
	} else {
		c.OnEnd(func() {
			if cerr := ds.Close(); cerr != nil {
				s.deps.Log.Warn().Err(cerr).Str("path", s.path).Msg("failed to close dataset")
			}
		})
	}
	c.SetValue(cycleDataset, opened{ds: ds, err: err})
	return ds, err
}

func (s *Session) computeSource(context.Context, *reactive.Cycle) error {
	v, err := s.variable()
	if err != nil {
		return err
	}
	path, ok := s.deps.Paths[v.Family]
	if !ok || path == "" {
		return fmt.Errorf("no dataset configured for %s variables", v.Family)
	}
	s.path = path
	return nil
}

func (s *Session) computeSlider(ctx context.Context, c *reactive.Cycle) error {
	s.times = nil
	s.slider = Slider{Message: NoTimeMessage}

	ds, err := s.dataset(ctx, c)
	if err != nil {
		return err
	}
	_, _, times, err := mapping.StandardCoordinates(ds)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return nil
	}
	s.times = times
	s.slider = Slider{
		Available: true,
		Label:     SliderLabel,
		Min:       0,
		Max:       len(times) - 1,
		Step:      1,
		Value:     s.sel.TimeIndex,
		Animate:   true,
	}
	return nil
}

func (s *Session) computeLabel(context.Context, *reactive.Cycle) error {
	s.slider.Value = s.sel.TimeIndex
	if s.sel.TimeIndex < 0 || s.sel.TimeIndex >= len(s.times) {
		s.timeLabel = ""
		return nil
	}
	s.timeLabel = domain.FormatTime(s.times[s.sel.TimeIndex])
	return nil
}

func (s *Session) computeHeatmap(ctx context.Context, c *reactive.Cycle) error {
	s.heat.ClearData()

	v, err := s.variable()
	if err != nil {
		return err
	}
	ds, err := s.dataset(ctx, c)
	if err != nil {
		return err
	}
	lon, lat, _, err := mapping.StandardCoordinates(ds)
	if err != nil {
		return err
	}
	arr, err := ds.Variable(v.Name)
	if err != nil {
		return err
	}
	trace, err := mapping.HeatmapTrace(arr, v, lon, lat, s.sel.TimeIndex, s.sel.Profile)
	if err != nil {
		return err
	}
	s.heat.SetData(trace)
	return nil
}

func (s *Session) computeBoxplot(ctx context.Context, c *reactive.Cycle) error {
	s.stats = nil
	if !s.sel.HasRegion() {
		s.box = chart.Placeholder(domain.NoRegion)
		return nil
	}

	fig, err := s.zonalFigure(ctx, c)
	if err != nil {
		s.box = chart.Placeholder(err.Error())
		return err
	}
	s.box = fig
	s.stats = chart.Describe(fig)
	return nil
}

func (s *Session) zonalFigure(ctx context.Context, c *reactive.Cycle) (*chart.Figure, error) {
	v, err := s.variable()
	if err != nil {
		return nil, err
	}
	ds, err := s.dataset(ctx, c)
	if err != nil {
		return nil, err
	}
	lon, lat, times, err := mapping.StandardCoordinates(ds)
	if err != nil {
		return nil, err
	}
	table, err := zonal.Summarize(zonal.Request{
		Layer:    s.deps.Layer,
		Dataset:  ds,
		RegionID: s.sel.RegionID,
		Variable: v,
		Lon:      lon,
		Lat:      lat,
		Times:    times,
	})
	if err != nil {
		return nil, err
	}
	return chart.Box(table, v, s.sel.Profile), nil
}
