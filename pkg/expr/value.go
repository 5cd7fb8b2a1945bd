package expr

import (
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/tapestry/pkg/domain"
)

// ParseNumber coerces a stored value to a number.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a number the way values are stored: no exponent, no trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Truthy reports the truthiness of a stored value for its declared type.
// Booleans must read "true"; numbers must be non-zero; everything else must be non-empty.
func Truthy(typ domain.VariableType, value string) bool {
	switch typ {
	case domain.VariableBoolean:
		return strings.EqualFold(strings.TrimSpace(value), "true")
	case domain.VariableNumber:
		f, ok := ParseNumber(value)
		return ok && f != 0
	default:
		return value != ""
	}
}

// CompareValues applies op to two stored values of the same declared type.
// Numbers that fail to parse make every operator false except !=.
func CompareValues(typ domain.VariableType, left string, op domain.CompareOperator, right string) bool {
	switch typ {
	case domain.VariableNumber:
		l, okL := ParseNumber(left)
		r, okR := ParseNumber(right)
		if !okL || !okR {
			return op == domain.CompareNotEqual
		}
		return compareOrdered(l, op, r)

	case domain.VariableBoolean:
		l := Truthy(domain.VariableBoolean, left)
		r := Truthy(domain.VariableBoolean, right)
		switch op {
		case domain.CompareEqual:
			return l == r
		case domain.CompareNotEqual:
			return l != r
		}
		return false

	default:
		return compareOrdered(left, op, right)
	}
}

func compareOrdered[T float64 | string](l T, op domain.CompareOperator, r T) bool {
	switch op {
	case domain.CompareEqual:
		return l == r
	case domain.CompareNotEqual:
		return l != r
	case domain.CompareGreater:
		return l > r
	case domain.CompareGreaterOrEqual:
		return l >= r
	case domain.CompareLess:
		return l < r
	case domain.CompareLessOrEqual:
		return l <= r
	}
	return false
}

// class groups declared types into comparison classes.
type class int

const (
	classText class = iota
	classNumber
	classBool
)

func classOf(typ domain.VariableType) class {
	switch typ {
	case domain.VariableNumber:
		return classNumber
	case domain.VariableBoolean:
		return classBool
	default:
		return classText
	}
}

func literalClass(k LiteralKind) class {
	switch k {
	case LiteralNumber:
		return classNumber
	case LiteralBool:
		return classBool
	default:
		return classText
	}
}

func classType(c class) domain.VariableType {
	switch c {
	case classNumber:
		return domain.VariableNumber
	case classBool:
		return domain.VariableBoolean
	default:
		return domain.VariableString
	}
}
