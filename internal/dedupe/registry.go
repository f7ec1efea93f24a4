package dedupe

// Entry is an accepted unique image.
type Entry struct {
	Digest Digest
	Path   string
	Width  int
}

// Registry maps digests to survivors and remembers insertion order. Replacing
// the entry behind an existing digest keeps that digest's position.
type Registry struct {
	order   []Digest
	entries map[Digest]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[Digest]Entry)}
}

func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) Lookup(d Digest) (Entry, bool) {
	e, ok := r.entries[d]
	return e, ok
}

// Put inserts or replaces the entry stored under key.
func (r *Registry) Put(key Digest, e Entry) {
	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
	}
	r.entries[key] = e
}

// Entries returns the survivors in insertion order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key])
	}
	return out
}

// Keys returns the registry keys in insertion order. A key differs from its
// entry's Digest once a wider near duplicate has replaced the original.
func (r *Registry) Keys() []Digest {
	return append([]Digest(nil), r.order...)
}

// Paths returns survivor file paths in insertion order.
func (r *Registry) Paths() []string {
	out := make([]string, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entries[key].Path)
	}
	return out
}
