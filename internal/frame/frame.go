// Package frame provides a minimal in-memory column table used to carry
// feature records through the prediction pipeline.
//
// Columns are typed: numeric (float64), categorical (fixed ordered level
// set plus an explicit missing code), or raw string. Categorical columns
// re-map their values onto the declared level set at construction time;
// a value outside the level set becomes missing rather than an error,
// matching how categories were handled when the classifier was trained.
package frame

import "fmt"

// Kind identifies the type of values a Column holds.
type Kind int

const (
	Numeric Kind = iota
	Categorical
	String
)

// missing is the categorical code for a value outside the level set.
const missing = -1

// Column is an immutable, single-typed vector of values.
type Column struct {
	kind   Kind
	nums   []float64
	codes  []int
	levels []string
	strs   []string
}

// Numbers builds a numeric column.
func Numbers(values ...float64) Column {
	return Column{kind: Numeric, nums: values}
}

// Strings builds a raw string column.
func Strings(values ...string) Column {
	return Column{kind: String, strs: values}
}

// Factor builds a categorical column by mapping values onto the given
// ordered level set. Level order is significant: it must match the order
// used when the downstream model was trained. Values not present in
// levels are coded as missing, silently.
func Factor(values []string, levels []string) Column {
	index := make(map[string]int, len(levels))
	for i, l := range levels {
		index[l] = i
	}
	codes := make([]int, len(values))
	for i, v := range values {
		if code, ok := index[v]; ok {
			codes[i] = code
		} else {
			codes[i] = missing
		}
	}
	lv := make([]string, len(levels))
	copy(lv, levels)
	return Column{kind: Categorical, codes: codes, levels: lv}
}

// Kind reports the column type.
func (c Column) Kind() Kind { return c.kind }

// Len reports the number of rows in the column.
func (c Column) Len() int {
	switch c.kind {
	case Numeric:
		return len(c.nums)
	case Categorical:
		return len(c.codes)
	default:
		return len(c.strs)
	}
}

// Float returns the numeric value at row i. Valid only for Numeric columns.
func (c Column) Float(i int) float64 { return c.nums[i] }

// Code returns the categorical code at row i, or -1 when the value is
// missing. Valid only for Categorical columns.
func (c Column) Code(i int) int { return c.codes[i] }

// Level returns the decoded categorical value at row i. ok is false when
// the value is missing.
func (c Column) Level(i int) (value string, ok bool) {
	code := c.codes[i]
	if code == missing {
		return "", false
	}
	return c.levels[code], true
}

// Levels returns the declared level set in its fixed order.
func (c Column) Levels() []string {
	out := make([]string, len(c.levels))
	copy(out, c.levels)
	return out
}

// Value returns the string value at row i for String and Categorical
// columns. Missing categorical values decode to "".
func (c Column) Value(i int) string {
	switch c.kind {
	case String:
		return c.strs[i]
	case Categorical:
		v, _ := c.Level(i)
		return v
	default:
		return fmt.Sprintf("%g", c.nums[i])
	}
}

// Values returns all rows of a String or Categorical column as strings,
// with "" for missing categorical values.
func (c Column) Values() []string {
	out := make([]string, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// Frame is an ordered collection of named, equal-length columns.
type Frame struct {
	names []string
	cols  map[string]Column
}

// New creates an empty frame.
func New() *Frame {
	return &Frame{cols: make(map[string]Column)}
}

// Set adds or replaces a column. Adding a column whose length differs
// from the frame's row count is an error.
func (f *Frame) Set(name string, c Column) error {
	if len(f.names) > 0 {
		if rows := f.Rows(); c.Len() != rows {
			return fmt.Errorf("frame: column %s has %d rows, frame has %d", name, c.Len(), rows)
		}
	}
	if _, exists := f.cols[name]; !exists {
		f.names = append(f.names, name)
	}
	f.cols[name] = c
	return nil
}

// Get returns the named column.
func (f *Frame) Get(name string) (Column, bool) {
	c, ok := f.cols[name]
	return c, ok
}

// Has reports whether the named column exists.
func (f *Frame) Has(name string) bool {
	_, ok := f.cols[name]
	return ok
}

// Names returns the column names in insertion order.
func (f *Frame) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Rows returns the number of rows, 0 for an empty frame.
func (f *Frame) Rows() int {
	if len(f.names) == 0 {
		return 0
	}
	return f.cols[f.names[0]].Len()
}

// Clone returns a frame sharing the receiver's columns. Columns are
// immutable, so adding columns to the clone leaves the original intact.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		names: make([]string, len(f.names)),
		cols:  make(map[string]Column, len(f.cols)),
	}
	copy(out.names, f.names)
	for k, v := range f.cols {
		out.cols[k] = v
	}
	return out
}
