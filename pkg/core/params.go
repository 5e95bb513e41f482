package core

import (
	"iter"
	"slices"
)

// Params is an ordered mapping from parameter name to a primitive value.
// Values are strings or numbers (Go integer and float kinds, apd.Decimal, *apd.Decimal).
// Iteration follows insertion order; overwriting a key keeps its original position.
// The zero value is ready to use.
type Params struct {
	keys   []string
	values map[string]any
}

// NewParams creates a Params from alternating key/value arguments.
// A trailing key without value is ignored.
func NewParams(kv ...any) *Params {
	p := &Params{}
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		p.Set(key, kv[i+1])
	}
	return p
}

// Set stores value under key and returns p for chaining.
func (p *Params) Set(key string, value any) *Params {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
	return p
}

// Get returns the value stored under key.
func (p *Params) Get(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// String returns the value under key when it is a string.
func (p *Params) String(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key is present.
func (p *Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Delete removes key and returns p for chaining.
func (p *Params) Delete(key string) *Params {
	if p == nil || p.values == nil {
		return p
	}
	if _, ok := p.values[key]; !ok {
		return p
	}
	delete(p.values, key)
	p.keys = slices.DeleteFunc(p.keys, func(k string) bool { return k == key })
	return p
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	if p == nil {
		return nil
	}
	return slices.Clone(p.keys)
}

// Len returns the number of entries.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Clone returns an independent copy.
func (p *Params) Clone() *Params {
	c := &Params{}
	if p == nil {
		return c
	}
	for _, k := range p.keys {
		c.Set(k, p.values[k])
	}
	return c
}

// All iterates over the entries in insertion order.
func (p *Params) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if p == nil {
			return
		}
		for _, k := range p.keys {
			if !yield(k, p.values[k]) {
				return
			}
		}
	}
}
