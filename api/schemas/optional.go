// File: api/schemas/optional.go
package schemas

import (
	"bytes"
	"fmt"
	"strconv"

	json "github.com/json-iterator/go"
)

// rawJSON re-renders tokens kept verbatim. Numbers keep their literal form.
var rawJSON = json.Config{UseNumber: true, SortMapKeys: true}.Froze()

// Optional carries a server-provided field that may be absent. The zero value
// is "missing". JSON null is treated the same as an absent key.
//
// Placeholders are never stored in an Optional; they are substituted by Or at
// render time so "missing" and "N/A" stay distinguishable until serialization.
type Optional[T any] struct {
	Value T
	Set   bool
	// Raw holds the token as sent when it did not decode into T, e.g. a
	// count delivered as 4.0 or "3". Value is then the zero value.
	Raw   json.RawMessage
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether a typed value is available.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set && o.Raw == nil
}

// Or renders the value, or returns placeholder when the value is missing.
func (o Optional[T]) Or(placeholder string) string {
	if !o.Set {
		return placeholder
	}
	return o.render()
}

// Text converts the value to its rendered text, keeping a missing value missing.
func (o Optional[T]) Text() Optional[string] {
	if !o.Set {
		return Optional[string]{}
	}
	return Some(o.render())
}

func (o Optional[T]) render() string {
	if o.Raw != nil {
		return formatRaw(o.Raw)
	}
	return formatValue(o.Value)
}

// UnmarshalJSON implements json.Unmarshaler. A token of an unexpected shape
// is kept verbatim instead of failing the enclosing document.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		if !json.Valid(trimmed) {
			return err
		}
		*o = Optional[T]{Set: true, Raw: append(json.RawMessage(nil), trimmed...)}
		return nil
	}
	*o = Some(v)
	return nil
}

// MarshalJSON implements json.Marshaler. A missing value encodes as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	if o.Raw != nil {
		return o.Raw, nil
	}
	return json.Marshal(o.Value)
}

// formatValue renders numbers in their shortest exact decimal form, so 50.0
// becomes "50" and 33.5 stays "33.5".
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.RawMessage:
		return formatRaw(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// formatRaw renders an arbitrary JSON scalar or document as report text.
// Strings lose their quotes, numbers keep the literal the server sent and
// everything else is emitted in compact form.
func formatRaw(raw []byte) string {
	var v any
	if err := rawJSON.Unmarshal(raw, &v); err != nil {
		return string(bytes.TrimSpace(raw))
	}
	if s, ok := v.(string); ok {
		return s
	}
	out, err := rawJSON.Marshal(v)
	if err != nil {
		return string(bytes.TrimSpace(raw))
	}
	return string(out)
}
