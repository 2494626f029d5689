// Package directory holds the static tables consulted when issuing permits:
// which printers each identity may use, and which printers can be selected
// at all. Both are built once and never change afterwards.
package directory

import (
	"fmt"
	"sort"
)

// Directory maps an identity to the set of printers it is authorized to use.
// Identities match exactly and case-sensitively.
type Directory struct {
	grants map[string]map[string]struct{}
}

// New builds a Directory from identity to printer lists. The input is copied.
func New(grants map[string][]string) (*Directory, error) {
	d := &Directory{grants: make(map[string]map[string]struct{}, len(grants))}
	for identity, printers := range grants {
		if identity == "" {
			return nil, ErrEmptyIdentity
		}
		set := make(map[string]struct{}, len(printers))
		for _, p := range printers {
			if p == "" {
				return nil, fmt.Errorf("identity %s: %w", identity, ErrEmptyPrinter)
			}
			set[p] = struct{}{}
		}
		d.grants[identity] = set
	}
	return d, nil
}

// Contains reports whether identity has an entry
func (d *Directory) Contains(identity string) bool {
	_, ok := d.grants[identity]
	return ok
}

// Allows reports whether identity has an entry that includes printer
func (d *Directory) Allows(identity, printer string) bool {
	set, ok := d.grants[identity]
	if !ok {
		return false
	}
	_, ok = set[printer]
	return ok
}

// Identities returns all identities in sorted order
func (d *Directory) Identities() []string {
	ids := make([]string, 0, len(d.grants))
	for id := range d.grants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Printers returns the sorted printers identity may use, or nil if the
// identity is unknown
func (d *Directory) Printers(identity string) []string {
	set, ok := d.grants[identity]
	if !ok {
		return nil
	}
	return sortedKeys(set)
}

// AllPrinters returns the sorted union of every printer named in d
func (d *Directory) AllPrinters() []string {
	union := make(map[string]struct{})
	for _, set := range d.grants {
		for p := range set {
			union[p] = struct{}{}
		}
	}
	return sortedKeys(union)
}

// Registry is the ordered set of printers offered for selection. It only
// restricts what can be chosen; it plays no part in the decision itself.
type Registry struct {
	printers []string
	index    map[string]struct{}
}

// NewRegistry builds a Registry preserving the given order. Duplicates are dropped.
func NewRegistry(printers []string) (*Registry, error) {
	r := &Registry{index: make(map[string]struct{}, len(printers))}
	for _, p := range printers {
		if p == "" {
			return nil, ErrEmptyPrinter
		}
		if _, dup := r.index[p]; dup {
			continue
		}
		r.index[p] = struct{}{}
		r.printers = append(r.printers, p)
	}
	return r, nil
}

// Contains reports whether printer can be selected
func (r *Registry) Contains(printer string) bool {
	_, ok := r.index[printer]
	return ok
}

// List returns a copy of the selectable printers
func (r *Registry) List() []string {
	out := make([]string, len(r.printers))
	copy(out, r.printers)
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// build turns a decoded document into the two tables. Without an explicit
// printer list the registry is every printer the directory mentions.
func build(doc document) (*Directory, *Registry, error) {
	dir, err := New(doc.Users)
	if err != nil {
		return nil, nil, err
	}
	printers := doc.Printers
	if len(printers) == 0 {
		printers = dir.AllPrinters()
	}
	reg, err := NewRegistry(printers)
	if err != nil {
		return nil, nil, err
	}
	return dir, reg, nil
}
