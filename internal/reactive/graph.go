// Package reactive is a small synchronous dependency graph. Inputs are
// published, the nodes that depend on them are recomputed in registration
// order and subscribers are told once per cycle what changed.
package reactive

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownNode is returned when publishing or depending on an unregistered name.
var ErrUnknownNode = errors.New("unknown node")

// ComputeFunc recomputes one node during a cycle.
type ComputeFunc func(ctx context.Context, c *Cycle) error

type node struct {
	name    string
	deps    []string
	compute ComputeFunc // nil for inputs
}

// Event describes one finished cycle.
type Event struct {
	Seq        uint64
	Inputs     []string
	Recomputed []string
	Errors     map[string]error
}

// Graph holds nodes in topological order. Cycles are serialised.
type Graph struct {
	mu     sync.Mutex // held for a whole cycle
	nodes  []*node
	byName map[string]*node
	seq    uint64

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		byName: make(map[string]*node),
		subs:   make(map[int]func(Event)),
	}
}

// Input declares a named input.
func (g *Graph) Input(name string) error {
	return g.add(&node{name: name})
}

// Register adds a derived node. Every dependency must already be registered,
// which keeps registration order topological.
func (g *Graph) Register(name string, deps []string, fn ComputeFunc) error {
	if fn == nil {
		return fmt.Errorf("node %s has no compute function", name)
	}
	if len(deps) == 0 {
		return fmt.Errorf("node %s has no dependencies", name)
	}
	return g.add(&node{name: name, deps: deps, compute: fn})
}

func (g *Graph) add(n *node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n.name == "" {
		return fmt.Errorf("node without name")
	}
	if _, dup := g.byName[n.name]; dup {
		return fmt.Errorf("node %s already registered", n.name)
	}
	for _, d := range n.deps {
		if _, ok := g.byName[d]; !ok {
			return fmt.Errorf("%w: %s depends on %s", ErrUnknownNode, n.name, d)
		}
	}
	g.nodes = append(g.nodes, n)
	g.byName[n.name] = n
	return nil
}

// Publish marks inputs as changed and recomputes every node that depends on
// them, directly or transitively. With no inputs every derived node is
// recomputed. Compute errors do not stop the cycle; they are reported in the
// returned Event and to subscribers.
func (g *Graph) Publish(ctx context.Context, inputs ...string) (Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	dirty := make(map[string]bool, len(g.nodes))
	for _, in := range inputs {
		n, ok := g.byName[in]
		if !ok {
			return Event{}, fmt.Errorf("%w: %s", ErrUnknownNode, in)
		}
		if n.compute != nil {
			return Event{}, fmt.Errorf("%s is not an input", in)
		}
		dirty[in] = true
	}

	g.seq++
	ev := Event{Seq: g.seq, Inputs: inputs, Errors: map[string]error{}}
	c := &Cycle{values: map[string]any{}}
	for _, n := range g.nodes {
		if n.compute == nil {
			continue
		}
		if len(inputs) > 0 && !anyDirty(dirty, n.deps) {
			continue
		}
		dirty[n.name] = true
		ev.Recomputed = append(ev.Recomputed, n.name)
		if err := n.compute(ctx, c); err != nil {
			ev.Errors[n.name] = err
		}
	}
	c.end()

	g.notify(ev)
	return ev, nil
}

func anyDirty(dirty map[string]bool, deps []string) bool {
	for _, d := range deps {
		if dirty[d] {
			return true
		}
	}
	return false
}

// Subscribe registers fn to be called after every cycle. The returned
// function removes the subscription.
func (g *Graph) Subscribe(fn func(Event)) (cancel func()) {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	return func() {
		g.subMu.Lock()
		defer g.subMu.Unlock()
		delete(g.subs, id)
	}
}

func (g *Graph) notify(ev Event) {
	g.subMu.Lock()
	fns := make([]func(Event), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.subMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Cycle carries values shared by the nodes of one recomputation and
// releases cycle-scoped resources when it ends.
type Cycle struct {
	values  map[string]any
	cleanup []func()
}

// Value returns a value stored earlier in the cycle.
func (c *Cycle) Value(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// SetValue stores a value for later nodes of the same cycle.
func (c *Cycle) SetValue(key string, v any) {
	c.values[key] = v
}

// OnEnd registers fn to run when the cycle finishes, in reverse order.
func (c *Cycle) OnEnd(fn func()) {
	c.cleanup = append(c.cleanup, fn)
}

func (c *Cycle) end() {
	for i := len(c.cleanup) - 1; i >= 0; i-- {
		c.cleanup[i]()
	}
	c.cleanup = nil
}
