package trace

import (
	"iter"
	"strconv"

	"github.com/valyala/fastjson"
)

// Value is one JSON value kept as raw bytes. A nil Value reads as null.
type Value []byte

var nullValue = []byte("null")

// StringValue encodes s as a JSON string.
func StringValue(s string) Value {
	var a fastjson.Arena
	return a.NewString(s).MarshalTo(nil)
}

// IntValue encodes n as a JSON number.
func IntValue(n int64) Value {
	return strconv.AppendInt(nil, n, 10)
}

// Raw returns the JSON text.
func (v Value) Raw() []byte {
	if len(v) == 0 {
		return nullValue
	}
	return v
}

func (v Value) String() string {
	return string(v.Raw())
}

// IsNull reports whether v is absent or the JSON literal null.
func (v Value) IsNull() bool {
	return len(v) == 0 || string(v) == "null"
}

// Text returns the unquoted content of a JSON string and the raw JSON text
// for anything else.
func (v Value) Text() string {
	if len(v) > 0 && v[0] == '"' {
		parsed, err := fastjson.ParseBytes(v)
		if err == nil {
			if b, err := parsed.StringBytes(); err == nil {
				return string(b)
			}
		}
	}
	return v.String()
}

// Int returns v as an integer when it is a JSON number without fraction.
func (v Value) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Attr is one key/value pair of an attribute set.
type Attr struct {
	Key   string
	Value Value
}

// Attrs is an insertion-ordered attribute set. Keys are unique.
type Attrs struct {
	list []Attr
}

// Set stores v under key. An existing key keeps its slot and takes the new
// value; a new key is appended. Only backends call Set, while building.
func (a *Attrs) Set(key string, v Value) {
	for i := range a.list {
		if a.list[i].Key == key {
			a.list[i].Value = v
			return
		}
	}
	a.list = append(a.list, Attr{Key: key, Value: v})
}

// Len returns the number of keys.
func (a *Attrs) Len() int {
	if a == nil {
		return 0
	}
	return len(a.list)
}

// At returns the i-th attribute in insertion order.
func (a *Attrs) At(i int) (Attr, bool) {
	if a == nil || i < 0 || i >= len(a.list) {
		return Attr{}, false
	}
	return a.list[i], true
}

// Get returns the value stored under key.
func (a *Attrs) Get(key string) (Value, bool) {
	if a == nil {
		return nil, false
	}
	for _, at := range a.list {
		if at.Key == key {
			return at.Value, true
		}
	}
	return nil, false
}

// All yields the attributes in insertion order.
func (a *Attrs) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if a == nil {
			return
		}
		for _, at := range a.list {
			if !yield(at.Key, at.Value) {
				return
			}
		}
	}
}
