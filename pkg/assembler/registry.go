package assembler

import "github.com/tosih/a2l2ecu/pkg/models"

// CategoryRegistry is the ordered set of category names seen during a run.
// A category's index is its 1-based position of first appearance. It is
// not safe for concurrent use.
type CategoryRegistry struct {
	names []string
	index map[string]int
}

func NewCategoryRegistry(names ...string) *CategoryRegistry {
	r := &CategoryRegistry{index: make(map[string]int)}
	for _, name := range names {
		r.Add(name)
	}
	return r
}

// Add registers name if it is new and returns its index
func (r *CategoryRegistry) Add(name string) int {
	if i, ok := r.index[name]; ok {
		return i
	}
	r.names = append(r.names, name)
	r.index[name] = len(r.names)
	return len(r.names)
}

// Index returns the index of a registered name
func (r *CategoryRegistry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Names returns the registered names in index order
func (r *CategoryRegistry) Names() []string {
	return append([]string(nil), r.names...)
}

func (r *CategoryRegistry) Len() int {
	return len(r.names)
}

// AxisKey identifies a shared axis in the binary
type AxisKey struct {
	Address int64
	Kind    models.AxisKind
}

// AxisTracker remembers which shared axes already have a standalone
// table. It is not safe for concurrent use.
type AxisTracker struct {
	seen map[AxisKey]struct{}
}

func NewAxisTracker() *AxisTracker {
	return &AxisTracker{seen: make(map[AxisKey]struct{})}
}

// FirstSeen marks key and reports whether it was new
func (t *AxisTracker) FirstSeen(key AxisKey) bool {
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

func (t *AxisTracker) Len() int {
	return len(t.seen)
}
