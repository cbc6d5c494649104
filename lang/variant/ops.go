package variant

import (
	"errors"
	"fmt"
	"math"

	"github.com/burdockcascade/bytevm/lang/token"
)

// ErrDivisionByZero is returned as is by Binary when the right operand
// of Div or Mod is zero.
var ErrDivisionByZero = errors.New("division by zero")

// OpError reports that an operator was applied to operands it does not
// support. It always carries the operator and the operand types, so callers
// can build a BadOperands error without re-deriving them.
type OpError struct {
	Op       token.Token
	LeftType string
	RightType string // empty for unary operators
}

func (e *OpError) Error() string {
	if e.RightType == "" {
		return fmt.Sprintf("invalid operand for %s: %s", e.Op, e.LeftType)
	}
	return fmt.Sprintf("invalid operands for %s: %s, %s", e.Op, e.LeftType, e.RightType)
}

// Binary evaluates a OP b for the arithmetic operators (Add, Sub, Mul, Div,
// Mod, Pow). The caller has already popped b then a, so a is the left
// operand and b is the right, as in "a OP b".
func Binary(op token.Token, a, b Value) (Value, error) {
	switch op {
	case token.PLUS:
		return add(a, b)
	case token.MINUS, token.STAR, token.SLASH, token.PCT:
		return numericBinary(op, a, b)
	case token.CARET:
		return pow(a, b)
	}
	return nil, fmt.Errorf("not a binary arithmetic operator: %s", op)
}

func add(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Integer:
		if y, ok := b.(Integer); ok {
			return x + y, nil
		}
	case Float:
		if y, ok := b.(Float); ok {
			return x + y, nil
		}
	case Str:
		// The right operand is stringified via Display, whatever its kind.
		return x + Str(b.String()), nil
	case Boolean:
		if y, ok := b.(Boolean); ok {
			return x && y, nil
		}
	case *Array:
		if y, ok := b.(*Array); ok {
			elems := make([]Value, 0, x.Len()+y.Len())
			elems = append(elems, x.Elems()...)
			elems = append(elems, y.Elems()...)
			return NewArray(elems), nil
		}
	case *Dictionary:
		if y, ok := b.(*Dictionary); ok {
			merged := NewDictionary(x.Len() + y.Len())
			for _, ck := range x.pairKeys() {
				e, _ := x.m.Get(ck)
				if err := merged.Set(e.key, e.value); err != nil {
					return nil, err
				}
			}
			for _, ck := range y.pairKeys() {
				e, _ := y.m.Get(ck)
				if err := merged.Set(e.key, e.value); err != nil {
					return nil, err
				}
			}
			return merged, nil
		}
	}
	return nil, &OpError{Op: token.PLUS, LeftType: a.Type(), RightType: b.Type()}
}

func numericBinary(op token.Token, a, b Value) (Value, error) {
	switch x := a.(type) {
	case Integer:
		y, ok := b.(Integer)
		if !ok {
			break
		}
		switch op {
		case token.MINUS:
			return x - y, nil
		case token.STAR:
			return x * y, nil
		case token.SLASH:
			if y == 0 {
				return nil, ErrDivisionByZero
			}
			return x / y, nil
		case token.PCT:
			if y == 0 {
				return nil, ErrDivisionByZero
			}
			return x % y, nil
		}
	case Float:
		y, ok := b.(Float)
		if !ok {
			break
		}
		switch op {
		case token.MINUS:
			return x - y, nil
		case token.STAR:
			return x * y, nil
		case token.SLASH:
			if y == 0 {
				return nil, ErrDivisionByZero
			}
			return x / y, nil
		case token.PCT:
			if y == 0 {
				return nil, ErrDivisionByZero
			}
			return Float(math.Mod(float64(x), float64(y))), nil
		}
	}
	return nil, &OpError{Op: op, LeftType: a.Type(), RightType: b.Type()}
}

func pow(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Integer:
		y, ok := b.(Integer)
		if !ok {
			break
		}
		if y < 0 {
			return nil, &OpError{Op: token.CARET, LeftType: a.Type(), RightType: b.Type()}
		}
		return intPow(x, y), nil
	case Float:
		y, ok := b.(Float)
		if !ok {
			break
		}
		return floatPow(x, y), nil
	}
	return nil, &OpError{Op: token.CARET, LeftType: a.Type(), RightType: b.Type()}
}

func floatPow(base, exp Float) Float {
	return Float(math.Pow(float64(base), float64(exp)))
}

func intPow(base, exp Integer) Integer {
	var result Integer = 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// Negate implements unary minus: negates Integer/Float, inverts Boolean.
func Negate(a Value) (Value, error) {
	switch x := a.(type) {
	case Integer:
		return -x, nil
	case Float:
		return -x, nil
	case Boolean:
		return !x, nil
	}
	return nil, &OpError{Op: token.MINUS, LeftType: a.Type()}
}

// Not implements the logical-not/falsy-check unary operator: Boolean
// inverts; Integer/Float/Str return whether the operand is falsy.
func Not(a Value) (Value, error) {
	switch x := a.(type) {
	case Boolean:
		return !x, nil
	case Integer:
		return Boolean(x == 0), nil
	case Float:
		return Boolean(x == 0), nil
	case Str:
		return Boolean(len(x) == 0), nil
	}
	return nil, &OpError{Op: token.NOT, LeftType: a.Type()}
}

// And and Or implement the logical operators. Both operands are always
// evaluated by the caller before this is reached; there is no short-circuit
// at this level.
func And(a, b Value) (Value, error) {
	x, ok1 := a.(Boolean)
	y, ok2 := b.(Boolean)
	if !ok1 || !ok2 {
		return nil, &OpError{Op: token.AND, LeftType: a.Type(), RightType: b.Type()}
	}
	return x && y, nil
}

func Or(a, b Value) (Value, error) {
	x, ok1 := a.(Boolean)
	y, ok2 := b.(Boolean)
	if !ok1 || !ok2 {
		return nil, &OpError{Op: token.OR, LeftType: a.Type(), RightType: b.Type()}
	}
	return x || y, nil
}

// Equal reports structural equality of a and b, per the value domain:
// total over scalars, deep over aggregates, false across differing kinds.
func Equal(a, b Value) (bool, error) {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok, nil
	case Integer:
		y, ok := b.(Integer)
		return ok && x == y, nil
	case Float:
		y, ok := b.(Float)
		return ok && x == y, nil
	case Str:
		y, ok := b.(Str)
		return ok && x == y, nil
	case Symbol:
		y, ok := b.(Symbol)
		return ok && x == y, nil
	case Boolean:
		y, ok := b.(Boolean)
		return ok && x == y, nil
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Len() != y.Len() {
			return false, nil
		}
		for i := 0; i < x.Len(); i++ {
			eq, err := Equal(x.At(i), y.At(i))
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	case *Dictionary:
		y, ok := b.(*Dictionary)
		if !ok || x.Len() != y.Len() {
			return false, nil
		}
		for _, ck := range x.pairKeys() {
			xe, _ := x.m.Get(ck)
			ye, found := y.m.Get(ck)
			if !found {
				return false, nil
			}
			eq, err := Equal(xe.value, ye.value)
			if err != nil {
				return false, err
			}
			if !eq {
				return false, nil
			}
		}
		return true, nil
	}
	return false, fmt.Errorf("unsupported type for equality: %s", a.Type())
}

// Compare evaluates the four ordering operators (LessThan, LessEqual,
// GreaterThan, GreaterEqual). Ordering is defined only between two Integers
// or two Floats; anything else fails.
func Compare(op token.Token, a, b Value) (bool, error) {
	var cmp int
	switch x := a.(type) {
	case Integer:
		y, ok := b.(Integer)
		if !ok {
			return false, &OpError{Op: op, LeftType: a.Type(), RightType: b.Type()}
		}
		cmp = x.Cmp(y)
	case Float:
		y, ok := b.(Float)
		if !ok {
			return false, &OpError{Op: op, LeftType: a.Type(), RightType: b.Type()}
		}
		cmp = x.Cmp(y)
	default:
		return false, &OpError{Op: op, LeftType: a.Type(), RightType: b.Type()}
	}
	switch op {
	case token.LT:
		return cmp < 0, nil
	case token.LE:
		return cmp <= 0, nil
	case token.GT:
		return cmp > 0, nil
	case token.GE:
		return cmp >= 0, nil
	}
	return false, fmt.Errorf("not an ordering operator: %s", op)
}

