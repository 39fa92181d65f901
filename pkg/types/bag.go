package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Bag is an ordered, string-keyed attribute mapping for one record. Values
// are opaque to the hierarchy core; they are only moved around.
// The zero value is an empty bag ready to use.
type Bag struct {
	keys   []string
	values map[string]any
}

// NewBag returns an empty bag.
func NewBag() *Bag {
	return &Bag{values: make(map[string]any)}
}

// BagOf builds a bag from alternating key, value arguments. It panics if a
// key is not a string or the argument count is odd.
func BagOf(kv ...any) *Bag {
	if len(kv)%2 != 0 {
		panic("types.BagOf: odd number of arguments")
	}
	b := NewBag()
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("types.BagOf: key %v is not a string", kv[i]))
		}
		b.Set(k, kv[i+1])
	}
	return b
}

// BagFromMap builds a bag from m with keys in sorted order.
func BagFromMap(m map[string]any) *Bag {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b := NewBag()
	for _, k := range keys {
		b.Set(k, m[k])
	}
	return b
}

// Set stores value under key. A new key is appended; an existing key keeps
// its position.
func (b *Bag) Set(key string, value any) {
	if b.values == nil {
		b.values = make(map[string]any)
	}
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

// Get returns the value stored under key.
func (b *Bag) Get(key string) (any, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b.values[key]
	return v, ok
}

// Has reports whether key is present, even with a nil value.
func (b *Bag) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

// Delete removes key. Missing keys are ignored.
func (b *Bag) Delete(key string) {
	if b == nil {
		return
	}
	if _, ok := b.values[key]; !ok {
		return
	}
	delete(b.values, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (b *Bag) Keys() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Len returns the number of keys.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Clone returns a shallow copy; values are shared.
func (b *Bag) Clone() *Bag {
	out := NewBag()
	if b == nil {
		return out
	}
	for _, k := range b.keys {
		out.Set(k, b.values[k])
	}
	return out
}

// Map returns the contents as a plain map.
func (b *Bag) Map() map[string]any {
	out := make(map[string]any, b.Len())
	if b == nil {
		return out
	}
	for _, k := range b.keys {
		out[k] = b.values[k]
	}
	return out
}

// Equal reports whether b and other hold the same keys in the same order
// with deeply equal values.
func (b *Bag) Equal(other *Bag) bool {
	if b.Len() != other.Len() {
		return false
	}
	for i, k := range b.Keys() {
		if other.keys[i] != k {
			return false
		}
		if !reflect.DeepEqual(b.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the bag as a JSON object, preserving key order.
func (b *Bag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(b.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal attribute %s: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping keys in document order.
// Numbers decode as json.Number so large integers survive.
func (b *Bag) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attribute bag must be a JSON object")
	}

	b.keys = nil
	b.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode attribute %s: %w", key, err)
		}
		b.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
