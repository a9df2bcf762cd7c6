package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Supported value types, after Canonical: nil, bool, float64, time.Time
// (UTC), string, []any and Fields. Anything else is stored as its
// fmt.Sprint form.

type serverTimestamp struct{}

// ServerTimestamp is a write-time placeholder replaced by the store's clock
// when the document is written. Clients never supply their own timestamps.
var ServerTimestamp any = serverTimestamp{}

// timeLayout is fixed width so that encoded timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// timeKey tags encoded timestamps in JSON.
const timeKey = "@ts"

// Canonical converts v to one of the supported value types.
func Canonical(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case serverTimestamp:
		return x
	case bool, string, float64:
		return x
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC()
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC()
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Canonical(e)
		}
		return out
	case Fields:
		return cloneFields(x)
	case map[string]any:
		return cloneFields(Fields(x))
	default:
		return fmt.Sprint(x)
	}
}

// Clone returns a deep, canonical copy of f.
func Clone(f Fields) Fields {
	if f == nil {
		return nil
	}
	return cloneFields(f)
}

func cloneFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = Canonical(v)
	}
	return out
}

// Merge returns a copy of base with patch applied on top.
func Merge(base, patch Fields) Fields {
	out := Clone(base)
	if out == nil {
		out = Fields{}
	}
	for k, v := range patch {
		out[k] = Canonical(v)
	}
	return out
}

// ResolveTransforms replaces every ServerTimestamp in f with now.
func ResolveTransforms(f Fields, now time.Time) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = now.UTC()
			continue
		}
		out[k] = v
	}
	return out
}

// typeRank orders values of different types the way the store does:
// null < bool < number < timestamp < string < array < map.
func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	case []any:
		return 5
	case Fields:
		return 6
	default:
		return 7
	}
}

// SameType reports whether a and b have the same type rank. Range filters
// only match values of the filter's type.
func SameType(a, b any) bool {
	return typeRank(Canonical(a)) == typeRank(Canonical(b))
}

// Compare orders two values. Strings compare by UTF-8 bytes.
func Compare(a, b any) int {
	a, b = Canonical(a), Canonical(b)
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch x := a.(type) {
	case nil:
		return 0
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case float64:
		y := b.(float64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case time.Time:
		return x.Compare(b.(time.Time))
	case string:
		return strings.Compare(x, b.(string))
	case []any:
		y := b.([]any)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := Compare(x[i], y[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(x), len(y))
	case Fields:
		return compareFields(x, b.(Fields))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// Equal reports whether a and b are the same value.
func Equal(a, b any) bool {
	return Compare(a, b) == 0
}

func compareFields(a, b Fields) int {
	ka, kb := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if c := strings.Compare(ka[i], kb[i]); c != 0 {
			return c
		}
		if c := Compare(a[ka[i]], b[kb[i]]); c != 0 {
			return c
		}
	}
	return cmpInt(len(ka), len(kb))
}

func sortedKeys(f Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// EncodeValue converts v into a JSON-ready value. Timestamps become
// {"@ts": "<fixed-width UTC>"} objects.
func EncodeValue(v any) any {
	switch x := Canonical(v).(type) {
	case time.Time:
		return map[string]any{timeKey: x.Format(timeLayout)}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = EncodeValue(e)
		}
		return out
	case Fields:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = EncodeValue(e)
		}
		return out
	default:
		return x
	}
}

// DecodeValue reverses EncodeValue on a value produced by encoding/json.
func DecodeValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if raw, ok := x[timeKey].(string); ok && len(x) == 1 {
			if t, err := time.Parse(timeLayout, raw); err == nil {
				return t.UTC()
			}
		}
		out := make(Fields, len(x))
		for k, e := range x {
			out[k] = DecodeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = DecodeValue(e)
		}
		return out
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return x.String()
		}
		return f
	default:
		return Canonical(x)
	}
}

// MarshalFields encodes a document as JSON.
func MarshalFields(f Fields) ([]byte, error) {
	enc := make(map[string]any, len(f))
	for k, v := range f {
		enc[k] = EncodeValue(v)
	}
	return json.Marshal(enc)
}

// UnmarshalFields decodes a document produced by MarshalFields.
func UnmarshalFields(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("docstore: decode document: %w", err)
	}
	out := make(Fields, len(raw))
	for k, v := range raw {
		out[k] = DecodeValue(v)
	}
	return out, nil
}

// MarshalValue encodes a single value as JSON.
func MarshalValue(v any) ([]byte, error) {
	return json.Marshal(EncodeValue(v))
}

// UnmarshalValue decodes a single value produced by MarshalValue.
func UnmarshalValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("docstore: decode value: %w", err)
	}
	return DecodeValue(raw), nil
}
