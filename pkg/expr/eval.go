package expr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aretw0/tapestry/pkg/domain"
)

// Scope resolves identifiers by Variable title.
type Scope map[string]domain.VariableValue

// NewScope indexes a state snapshot by author-facing title.
func NewScope(state domain.VariableState) Scope {
	return Scope(state.ByTitle())
}

// Builtin is a string transform callable as ident.method().
type Builtin func(string) string

var builtins = map[string]Builtin{
	"upper":  func(s string) string { return cases.Upper(language.Und).String(s) },
	"lower":  func(s string) string { return cases.Lower(language.Und).String(s) },
	"title":  func(s string) string { return cases.Title(language.Und).String(s) },
	"trim":   strings.TrimSpace,
	"length": func(s string) string { return strconv.Itoa(utf8.RuneCountInString(s)) },
}

func init() {
	builtins["toUpperCase"] = builtins["upper"]
	builtins["toLowerCase"] = builtins["lower"]
}

// Builtins lists the method names accepted in member calls.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Eval computes the string value of a parsed span.
func Eval(n Node, scope Scope) (string, error) {
	switch n := n.(type) {
	case *Ident:
		v, err := scope.lookup(n)
		if err != nil {
			return "", err
		}
		return v.Value, nil

	case *MemberCall:
		fn, ok := builtins[n.Method]
		if !ok {
			return "", fmt.Errorf("%w: %s()", ErrUnknownMethod, n.Method)
		}
		v, err := scope.lookup(n.Target)
		if err != nil {
			return "", err
		}
		return fn(v.Value), nil

	case *Conditional:
		ok, err := evalTest(n.Test, scope)
		if err != nil {
			return "", err
		}
		branch := n.Else
		if ok {
			branch = n.Then
		}
		_, value, err := evalOperand(branch, scope)
		return value, err
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupported, n)
}

// Evaluate parses and evaluates one span.
func Evaluate(src string, scope Scope) (string, error) {
	n, err := Parse(src)
	if err != nil {
		return "", err
	}
	return Eval(n, scope)
}

func (s Scope) lookup(id *Ident) (domain.VariableValue, error) {
	v, ok := s[id.Name]
	if !ok {
		return domain.VariableValue{}, fmt.Errorf("%w: %s", ErrUnknownIdentifier, id.Name)
	}
	return v, nil
}

func evalTest(t Test, scope Scope) (bool, error) {
	switch t := t.(type) {
	case *Ident:
		v, err := scope.lookup(t)
		if err != nil {
			return false, err
		}
		return Truthy(v.Type, v.Value), nil

	case *Not:
		v, err := scope.lookup(t.X)
		if err != nil {
			return false, err
		}
		return !Truthy(v.Type, v.Value), nil

	case *Compare:
		lc, l, err := evalOperand(t.Left, scope)
		if err != nil {
			return false, err
		}
		rc, r, err := evalOperand(t.Right, scope)
		if err != nil {
			return false, err
		}
		if lc != rc {
			return false, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, classType(lc), t.Op, classType(rc))
		}
		if lc == classBool && t.Op != domain.CompareEqual && t.Op != domain.CompareNotEqual {
			return false, fmt.Errorf("%w: boolean %s", ErrTypeMismatch, t.Op)
		}
		return CompareValues(classType(lc), l, t.Op, r), nil
	}
	return false, fmt.Errorf("%w: %T", ErrUnsupported, t)
}

func evalOperand(o Operand, scope Scope) (class, string, error) {
	switch o := o.(type) {
	case *Ident:
		v, err := scope.lookup(o)
		if err != nil {
			return 0, "", err
		}
		return classOf(v.Type), v.Value, nil
	case *Literal:
		return literalClass(o.Kind), o.Value, nil
	}
	return 0, "", fmt.Errorf("%w: %T", ErrUnsupported, o)
}
