package sdk

import (
	"sort"
)

// Overlay buffers writes over a parent State. Nothing reaches the parent until Commit,
// so a failed instruction is dropped by simply not committing.
type Overlay struct {
	parent  State
	writes  map[string][]byte
	deleted map[string]bool
}

func NewOverlay(parent State) *Overlay {
	return &Overlay{
		parent:  parent,
		writes:  make(map[string][]byte),
		deleted: make(map[string]bool),
	}
}

func (o *Overlay) Get(key string) ([]byte, bool, error) {
	if o.deleted[key] {
		return nil, false, nil
	}
	if v, ok := o.writes[key]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, true, nil
	}
	return o.parent.Get(key)
}

func (o *Overlay) Set(key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	o.writes[key] = cp
	delete(o.deleted, key)
	return nil
}

func (o *Overlay) Delete(key string) error {
	delete(o.writes, key)
	o.deleted[key] = true
	return nil
}

// Keys merges the parent listing with buffered writes.
func (o *Overlay) Keys(prefix string) ([]string, error) {
	seen := make(map[string]bool)
	if sc, ok := o.parent.(Scanner); ok {
		keys, err := sc.Keys(prefix)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			seen[k] = true
		}
	}
	for k := range o.writes {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		if !o.deleted[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Commit pushes the buffered set into the parent, as one batch when the parent supports it.
func (o *Overlay) Commit() error {
	deletes := make([]string, 0, len(o.deleted))
	for k := range o.deleted {
		deletes = append(deletes, k)
	}
	sort.Strings(deletes)

	if b, ok := o.parent.(Batcher); ok {
		if err := b.Apply(o.writes, deletes); err != nil {
			return err
		}
		o.Discard()
		return nil
	}
	for k, v := range o.writes {
		if err := o.parent.Set(k, v); err != nil {
			return err
		}
	}
	for _, k := range deletes {
		if err := o.parent.Delete(k); err != nil {
			return err
		}
	}
	o.Discard()
	return nil
}

// Apply lets a child overlay merge into this one in a single step.
func (o *Overlay) Apply(sets map[string][]byte, deletes []string) error {
	for k, v := range sets {
		_ = o.Set(k, v)
	}
	for _, k := range deletes {
		_ = o.Delete(k)
	}
	return nil
}

// Discard drops everything buffered.
func (o *Overlay) Discard() {
	o.writes = make(map[string][]byte)
	o.deleted = make(map[string]bool)
}
