package rules

import (
	"fmt"
	"strconv"
	"strings"

	"switchboard/pkg/models"
)

// PassesFilters evaluates a rule's clause list against an event. Clauses
// are AND-ed and evaluation short-circuits on the first failure; an empty
// list always passes. An unresolvable field fails the clause (except for
// the negated operators, which treat absence as non-membership) so a
// sparse event can never throw its way past a filter.
func PassesFilters(event *models.NormalizedEvent, clauses []FilterClause) bool {
	if len(clauses) == 0 {
		return true
	}

	flat := event.AsMap()
	for _, clause := range clauses {
		if !passesClause(flat, clause) {
			return false
		}
	}
	return true
}

func passesClause(flat map[string]interface{}, clause FilterClause) bool {
	value, found := resolvePath(flat, clause.Field)

	switch clause.Operator {
	case OpEquals:
		if !found {
			return clause.Value == nil
		}
		return looseEquals(value, clause.Value)
	case OpNotEquals:
		if !found {
			return clause.Value != nil
		}
		return !looseEquals(value, clause.Value)
	case OpGreaterThan:
		if !found {
			return false
		}
		a, aok := toNumber(value)
		b, bok := toNumber(clause.Value)
		return aok && bok && a > b
	case OpLessThan:
		if !found {
			return false
		}
		a, aok := toNumber(value)
		b, bok := toNumber(clause.Value)
		return aok && bok && a < b
	case OpContains:
		if !found {
			return false
		}
		return strings.Contains(
			strings.ToLower(asFilterString(value)),
			strings.ToLower(asFilterString(clause.Value)),
		)
	case OpNotContains:
		if !found {
			return true
		}
		return !strings.Contains(
			strings.ToLower(asFilterString(value)),
			strings.ToLower(asFilterString(clause.Value)),
		)
	case OpIn:
		list, ok := clause.Value.([]interface{})
		if !ok || !found {
			return false
		}
		for _, candidate := range list {
			if looseEquals(value, candidate) {
				return true
			}
		}
		return false
	case OpNotIn:
		list, ok := clause.Value.([]interface{})
		if !ok {
			return false
		}
		if !found {
			return true
		}
		for _, candidate := range list {
			if looseEquals(value, candidate) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// resolvePath walks a dot-path ("order.total") through nested maps. The
// second return value is false when any segment is missing or the walk
// hits a non-map value before the last segment.
func resolvePath(flat map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	var current interface{} = flat
	for _, segment := range strings.Split(path, ".") {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// looseEquals compares numerically when both sides coerce to numbers,
// otherwise by string form. Provider payloads mix "150.00" and 150.0 for
// the same field, and rule values arrive as whatever JSON type the tenant
// typed into the editor.
func looseEquals(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}
	return asFilterString(a) == asFilterString(b)
}

func toNumber(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func asFilterString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", val)
	}
}
