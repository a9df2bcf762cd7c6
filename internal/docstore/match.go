package docstore

// Matches reports whether a document satisfies every filter of q and has a
// value for every ordered field. A missing field never matches, not even
// "!= x"; an explicit null matches "== nil" but never "!=".
func Matches(q Query, fields Fields) bool {
	for _, f := range q.Filters {
		if !matchFilter(f, fields) {
			return false
		}
	}
	for _, o := range q.Orders {
		if _, ok := fields[o.Field]; !ok {
			return false
		}
	}
	return true
}

func matchFilter(f Filter, fields Fields) bool {
	v, ok := fields[f.Field]
	if !ok {
		return false
	}
	v = Canonical(v)
	want := Canonical(f.Value)
	switch f.Op {
	case OpEqual:
		return Equal(v, want)
	case OpNotEqual:
		return v != nil && !Equal(v, want)
	case OpArrayContains:
		arr, isArr := v.([]any)
		if !isArr {
			return false
		}
		for _, e := range arr {
			if Equal(e, want) {
				return true
			}
		}
		return false
	case OpGreaterOrEqual:
		return SameType(v, want) && Compare(v, want) >= 0
	case OpLess:
		return SameType(v, want) && Compare(v, want) < 0
	}
	return false
}

// ComparePosition orders two documents under orders, breaking ties by ID.
func ComparePosition(orders []Order, a, b Position) int {
	for i, o := range orders {
		c := Compare(a.Values[i], b.Values[i])
		if o.Dir == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
