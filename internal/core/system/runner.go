package system

import (
	"container/heap"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Runner keeps registered units and resolves their run order from declared
// dependencies. Registration may reference units that are registered later;
// nothing is checked until Finalize.
type Runner[U Unit] struct {
	units []U
	index map[string]int
	order []U
	state State
	log   *zap.Logger
}

func NewRunner[U Unit](log *zap.Logger) *Runner[U] {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner[U]{
		units: make([]U, 0, 16),
		index: make(map[string]int, 16),
		state: StatePending,
		log:   log,
	}
}

// Register adds a unit. Any previously finalized order is discarded and the
// whole graph goes back to pending.
func (r *Runner[U]) Register(u U) error {
	name := u.Name()
	if name == "" {
		return ErrEmptySystemName
	}
	if _, ok := r.index[name]; ok {
		return eris.Wrapf(ErrDuplicateSystem, "register %q", name)
	}
	r.index[name] = len(r.units)
	r.units = append(r.units, u)
	r.order = nil
	r.state = StatePending
	return nil
}

func (r *Runner[U]) Len() int { return len(r.units) }

// Finalized reports whether the current registrations have a valid order.
func (r *Runner[U]) Finalized() bool { return r.state == StateOrdered }

// State returns the lifecycle state of the named unit.
func (r *Runner[U]) State(name string) State {
	if _, ok := r.index[name]; !ok {
		return StateUnknown
	}
	return r.state
}

// Names returns unit names in registration order.
func (r *Runner[U]) Names() []string { return namesOf(r.units) }

// Order returns the finalized run order, or nil while pending.
func (r *Runner[U]) Order() []U {
	if r.state != StateOrdered {
		return nil
	}
	return r.order
}

// Finalize validates the dependency graph and fixes the run order using
// Kahn's algorithm. The ready set is a min-heap on registration index, so the
// earliest registered ready unit always runs next, including units that became
// ready later than others still waiting. Registering A, B (after A), C yields
// A, B, C rather than the A, C, B a FIFO queue would give. The result is the
// registration order whenever the dependencies allow it. On error the runner
// stays pending.
func (r *Runner[U]) Finalize() error {
	if r.state == StateOrdered {
		return nil
	}

	n := len(r.units)
	indegree := make([]int, n)
	dependents := make([][]int, n)
	for i, u := range r.units {
		seen := make(map[int]struct{}, len(u.Dependencies()))
		for _, dep := range u.Dependencies() {
			j, ok := r.index[dep]
			if !ok {
				err := &UnknownDependencyError{System: u.Name(), Dependency: dep}
				r.log.Error("unresolved system dependency",
					zap.String("system", err.System), zap.String("dependency", err.Dependency))
				return err
			}
			if _, dup := seen[j]; dup {
				continue
			}
			seen[j] = struct{}{}
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	ready := make(readyQueue, 0, n)
	for i := range r.units {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	heap.Init(&ready)

	order := make([]U, 0, n)
	for ready.Len() > 0 {
		i := heap.Pop(&ready).(int)
		order = append(order, r.units[i])
		for _, d := range dependents[i] {
			indegree[d]--
			if indegree[d] == 0 {
				heap.Push(&ready, d)
			}
		}
	}

	if len(order) < n {
		err := r.cycleError(indegree, dependents)
		r.log.Error("circular system dependency",
			zap.Strings("cycle", err.Cycle), zap.Strings("unresolved", err.Unresolved))
		return err
	}

	r.order = order
	r.state = StateOrdered
	r.log.Info("systems finalized", zap.Strings("order", namesOf(order)))
	return nil
}

// cycleError reports the units Kahn's algorithm could not place. Cycle keeps
// only the members of strongly connected components that actually loop
// (size > 1, or a unit depending on itself), found with Tarjan's algorithm
// over the unresolved subgraph.
func (r *Runner[U]) cycleError(indegree []int, dependents [][]int) *CircularDependencyError {
	n := len(r.units)
	unresolved := make([]string, 0)
	for i := 0; i < n; i++ {
		if indegree[i] > 0 {
			unresolved = append(unresolved, r.units[i].Name())
		}
	}

	t := tarjan{
		edges:   dependents,
		skip:    func(i int) bool { return indegree[i] == 0 },
		index:   make([]int, n),
		low:     make([]int, n),
		onStack: make([]bool, n),
		cyclic:  make([]bool, n),
	}
	for i := range t.index {
		t.index[i] = -1
	}
	for i := 0; i < n; i++ {
		if !t.skip(i) && t.index[i] < 0 {
			t.visit(i)
		}
	}

	cycle := make([]string, 0, len(unresolved))
	for i := 0; i < n; i++ {
		if t.cyclic[i] {
			cycle = append(cycle, r.units[i].Name())
		}
	}
	return &CircularDependencyError{Cycle: cycle, Unresolved: unresolved}
}

type tarjan struct {
	edges   [][]int
	skip    func(int) bool
	index   []int
	low     []int
	onStack []bool
	stack   []int
	next    int
	cyclic  []bool
}

func (t *tarjan) visit(v int) {
	t.index[v] = t.next
	t.low[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	selfLoop := false
	for _, w := range t.edges[v] {
		if t.skip(w) {
			continue
		}
		if w == v {
			selfLoop = true
		}
		if t.index[w] < 0 {
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.onStack[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var scc []int
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		scc = append(scc, w)
		if w == v {
			break
		}
	}
	if len(scc) > 1 || selfLoop {
		for _, w := range scc {
			t.cyclic[w] = true
		}
	}
}

func namesOf[U Unit](units []U) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name()
	}
	return names
}

// readyQueue is a min-heap of registration indices.
type readyQueue []int

func (q readyQueue) Len() int           { return len(q) }
func (q readyQueue) Less(i, j int) bool { return q[i] < q[j] }
func (q readyQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *readyQueue) Push(x any)        { *q = append(*q, x.(int)) }
func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}
