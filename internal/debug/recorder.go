package debug

import (
	"sort"

	"github.com/goccy/go-json"
	"github.com/l1jgo/gridecs/internal/core/ecs"
	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"
	"go.uber.org/zap"
)

// Diff is one component change made by one system run.
type Diff struct {
	Step      uint64     `json:"step"`
	System    string     `json:"system"`
	Entity    ecs.Entity `json:"entity"`
	Component string     `json:"component"`
	Patch     string     `json:"patch"` // RFC 6902 operations, one per line
}

type key struct {
	entity    ecs.Entity
	component string
}

// Recorder is an ecs.SystemObserver that snapshots the watched components
// before and after every system and keeps a JSON Patch for each change.
// Added and removed components diff against null.
type Recorder struct {
	watch   []string
	max     int
	before  map[key][]byte
	diffs   []Diff
	dropped int
	errs    int
	log     *zap.Logger
}

// NewRecorder watches the named components. maxDiffs bounds the kept
// history; older diffs are dropped first. Zero means unbounded.
func NewRecorder(watch []string, maxDiffs int, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		watch:  append([]string(nil), watch...),
		max:    maxDiffs,
		before: make(map[key][]byte),
		log:    log,
	}
}

func (r *Recorder) BeforeSystem(w *ecs.World, _ string) {
	clear(r.before)
	r.capture(w, r.before)
}

func (r *Recorder) AfterSystem(w *ecs.World, system string) {
	after := make(map[key][]byte, len(r.before))
	r.capture(w, after)

	keys := make([]key, 0, len(after))
	for k := range after {
		keys = append(keys, k)
	}
	for k := range r.before {
		if _, ok := after[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].component != keys[j].component {
			return keys[i].component < keys[j].component
		}
		return keys[i].entity < keys[j].entity
	})

	for _, k := range keys {
		patch, err := compare(r.before[k], after[k])
		if err != nil {
			r.errs++
			r.log.Warn("diff failed", zap.String("component", k.component), zap.Uint64("entity", uint64(k.entity)), zap.Error(err))
			continue
		}
		if len(patch) == 0 {
			continue
		}
		d := Diff{
			Step:      w.Step(),
			System:    system,
			Entity:    k.entity,
			Component: k.component,
			Patch:     patch.String(),
		}
		r.record(d)
		r.log.Debug("component changed",
			zap.Uint64("step", d.Step),
			zap.String("system", d.System),
			zap.Uint64("entity", uint64(d.Entity)),
			zap.String("component", d.Component),
			zap.String("patch", d.Patch),
		)
	}
}

func (r *Recorder) capture(w *ecs.World, into map[key][]byte) {
	for _, name := range r.watch {
		for _, e := range w.EntitiesWith(name) {
			v, ok := w.Snapshot(e, name)
			if !ok {
				continue
			}
			b, err := json.Marshal(v)
			if err != nil {
				r.errs++
				r.log.Warn("snapshot encode failed", zap.String("component", name), zap.Error(err))
				continue
			}
			into[key{entity: e, component: name}] = b
		}
	}
}

func compare(before, after []byte) (jsondiff.Patch, error) {
	if before == nil {
		before = []byte("null")
	}
	if after == nil {
		after = []byte("null")
	}
	patch, err := jsondiff.CompareJSON(before, after, jsondiff.UnmarshalFunc(json.Unmarshal))
	if err != nil {
		return nil, eris.Wrap(err, "compare snapshots")
	}
	return patch, nil
}

func (r *Recorder) record(d Diff) {
	if r.max > 0 && len(r.diffs) >= r.max {
		n := copy(r.diffs, r.diffs[1:])
		r.diffs = r.diffs[:n]
		r.dropped++
	}
	r.diffs = append(r.diffs, d)
}

// Diffs returns the kept history, oldest first.
func (r *Recorder) Diffs() []Diff {
	return append([]Diff(nil), r.diffs...)
}

// Dropped is how many diffs were discarded to respect the bound.
func (r *Recorder) Dropped() int { return r.dropped }

// Failures counts snapshots that could not be encoded or compared.
func (r *Recorder) Failures() int { return r.errs }

// Reset forgets the history.
func (r *Recorder) Reset() {
	r.diffs = r.diffs[:0]
	r.dropped = 0
	r.errs = 0
}

// MarshalJSON encodes the kept history.
func (r *Recorder) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.diffs)
}
