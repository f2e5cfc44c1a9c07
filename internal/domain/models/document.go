package models

// Field is one key of an ordered JSON object
type Field struct {
	Key   string
	Value any
}

// Document is a JSON object that keeps its keys in insertion order.
// Values are raw Go values; the writer decides how each one is rendered.
type Document []Field

// Set appends a key, or replaces its value if the key already exists
func (d Document) Set(key string, value any) Document {
	for i := range d {
		if d[i].Key == key {
			d[i].Value = value
			return d
		}
	}
	return append(d, Field{Key: key, Value: value})
}

// Get returns the value of a key
func (d Document) Get(key string) (any, bool) {
	for _, f := range d {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order
func (d Document) Keys() []string {
	keys := make([]string, len(d))
	for i, f := range d {
		keys[i] = f.Key
	}
	return keys
}
