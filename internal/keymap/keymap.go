// Package keymap holds the immutable tables that translate logical key names
// sent by clients into evdev key codes emitted on the virtual device.
package keymap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// KeyCode is an evdev EV_KEY code.
type KeyCode = evdev.EvCode

var ErrUnknownProfile = errors.New("unknown key profile")

// Table maps upper-case logical names to key codes. It is never mutated after
// NewTable returns.
type Table struct {
	name  string
	codes map[string]KeyCode
}

// NewTable copies entries into a new table, upper-casing every name.
func NewTable(name string, entries map[string]KeyCode) *Table {
	codes := make(map[string]KeyCode, len(entries))
	for k, v := range entries {
		codes[strings.ToUpper(k)] = v
	}
	return &Table{name: name, codes: codes}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Len() int { return len(t.codes) }

// Lookup is case-insensitive.
func (t *Table) Lookup(name string) (KeyCode, bool) {
	code, ok := t.codes[strings.ToUpper(name)]
	return code, ok
}

// ListKeys returns the logical names in sorted order.
func (t *Table) ListKeys() []string {
	keys := make([]string, 0, len(t.codes))
	for k := range t.codes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Codes returns the distinct key codes the device must advertise, sorted.
func (t *Table) Codes() []KeyCode {
	seen := make(map[KeyCode]struct{}, len(t.codes))
	out := make([]KeyCode, 0, len(t.codes))
	for _, c := range t.codes {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Registry is a read-only set of named tables.
type Registry struct {
	tables map[string]*Table
}

// NewRegistry returns a registry holding the built-in profiles plus extra.
// Extra tables replace built-ins of the same name.
func NewRegistry(extra ...*Table) *Registry {
	r := &Registry{tables: make(map[string]*Table)}
	for _, t := range builtinProfiles() {
		r.tables[t.Name()] = t
	}
	for _, t := range extra {
		r.tables[t.Name()] = t
	}
	return r
}

// Profile returns the table registered under name (case-insensitive).
func (r *Registry) Profile(name string) (*Table, error) {
	t, ok := r.tables[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProfile, name, strings.Join(r.Names(), ", "))
	}
	return t, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
