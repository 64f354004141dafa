package store

import (
	"fmt"
	"strings"
	"time"
)

type valueKind int

const (
	kindUnsupported valueKind = iota
	kindString
	kindBool
	kindNumber
	kindTime
	kindNested
	kindNil
)

func kindOf(v any) valueKind {
	switch v.(type) {
	case nil:
		return kindNil
	case string:
		return kindString
	case bool:
		return kindBool
	case int, int32, int64, float32, float64:
		return kindNumber
	case time.Time:
		return kindTime
	case map[string]any, []any:
		return kindNested
	default:
		return kindUnsupported
	}
}

// normalizeValue widens numeric values so backends only ever see int64 and float64.
func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float32:
		return float64(t), nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			n, err := normalizeValue(inner)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			n, err := normalizeValue(inner)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}
	if kindOf(v) == kindUnsupported {
		return nil, fmt.Errorf("%w: unsupported value type %T", ErrInvalidQuery, v)
	}
	return v, nil
}

func normalizeFields(fields map[string]any) (map[string]any, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		n, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

func cloneFields(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	return cloneValue(src).(map[string]any)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

// compareValues orders two scalar values of the same kind. ok is false when
// the values are not comparable; such documents never match a predicate.
func compareValues(a, b any) (cmp int, ok bool) {
	switch av := a.(type) {
	case string:
		bv, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, isTime := b.(time.Time)
		if !isTime {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	}

	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if !aNum || !bNum {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func matches(fields map[string]any, p Predicate) bool {
	got, present := fields[p.Field]
	if !present {
		return false
	}
	cmp, ok := compareValues(got, p.Value)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEq:
		return cmp == 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	}
	return false
}
