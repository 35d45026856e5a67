package transforms

import (
	"regexp"
	"strings"

	"github.com/wehubfusion/rustflow/pkg/value"
)

// ComparisonOperator enumerates the predicates a router node can evaluate
// against a resolved field.
type ComparisonOperator string

const (
	OpEquals             ComparisonOperator = "equals"
	OpNotEquals          ComparisonOperator = "not_equals"
	OpGreaterThan        ComparisonOperator = "greater_than"
	OpLessThan           ComparisonOperator = "less_than"
	OpGreaterThanOrEqual ComparisonOperator = "greater_than_or_equal"
	OpLessThanOrEqual    ComparisonOperator = "less_than_or_equal"
	OpContains           ComparisonOperator = "contains"
	OpNotContains        ComparisonOperator = "not_contains"
	OpStartsWith         ComparisonOperator = "starts_with"
	OpEndsWith           ComparisonOperator = "ends_with"
	OpRegex              ComparisonOperator = "regex"
	OpIsEmpty            ComparisonOperator = "is_empty"
	OpIsNotEmpty         ComparisonOperator = "is_not_empty"
)

// compareValues evaluates op against actual (the field pulled from the
// input value) and expected (the router's configured comparison value).
func compareValues(op ComparisonOperator, actual, expected value.Value) bool {
	switch op {
	case OpEquals:
		return value.Equal(actual, expected)
	case OpNotEquals:
		return !value.Equal(actual, expected)
	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual:
		a, aok := actual.Number()
		b, bok := expected.Number()
		if !aok || !bok {
			return false
		}
		switch op {
		case OpGreaterThan:
			return a > b
		case OpLessThan:
			return a < b
		case OpGreaterThanOrEqual:
			return a >= b
		default:
			return a <= b
		}
	case OpContains, OpNotContains, OpStartsWith, OpEndsWith:
		a, aok := actual.String()
		b, bok := expected.String()
		if !aok || !bok {
			return false
		}
		switch op {
		case OpContains:
			return strings.Contains(a, b)
		case OpNotContains:
			return !strings.Contains(a, b)
		case OpStartsWith:
			return strings.HasPrefix(a, b)
		default:
			return strings.HasSuffix(a, b)
		}
	case OpRegex:
		a, aok := actual.String()
		pattern, pok := expected.String()
		if !aok || !pok {
			return false
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(a)
	case OpIsEmpty:
		return isEmpty(actual)
	case OpIsNotEmpty:
		return !isEmpty(actual)
	default:
		return false
	}
}

func isEmpty(v value.Value) bool {
	switch v.Kind() {
	case value.KindNull:
		return true
	case value.KindString:
		s, _ := v.String()
		return s == ""
	case value.KindArray, value.KindObject:
		return v.Len() == 0
	default:
		return false
	}
}
