package rewrite

import (
	"math"
	"math/big"

	"github.com/roach88/hpl/internal/ast"
)

// number is a literal numeric value. Integer arithmetic stays integral
// until it would overflow.
type number struct {
	i     int64
	f     float64
	isInt bool
}

func intNum(i int64) number     { return number{i: i, f: float64(i), isInt: true} }
func floatNum(f float64) number { return number{f: f} }

func numberOf(e ast.Expr) (number, bool) {
	l, ok := e.(*ast.Literal)
	if !ok {
		return number{}, false
	}
	switch v := l.Value.(type) {
	case int64:
		return intNum(v), true
	case float64:
		return floatNum(v), true
	}
	return number{}, false
}

func (n number) isZero() bool { return n.f == 0 }
func (n number) isOne() bool  { return n.f == 1 }

func (n number) finite() bool {
	return !math.IsNaN(n.f) && !math.IsInf(n.f, 0)
}

// literal converts n back into an expression. ok is false for NaN and
// infinities, which have no literal form.
func (n number) literal() (ast.Expr, bool) {
	if n.isInt {
		return ast.Int(n.i), true
	}
	if !n.finite() {
		return nil, false
	}
	return ast.Float(n.f), true
}

func addNum(a, b number) number {
	if a.isInt && b.isInt {
		s := a.i + b.i
		if (s > a.i) == (b.i > 0) {
			return intNum(s)
		}
	}
	return floatNum(a.f + b.f)
}

func subNum(a, b number) number {
	if a.isInt && b.isInt {
		d := a.i - b.i
		if (d < a.i) == (b.i > 0) {
			return intNum(d)
		}
	}
	return floatNum(a.f - b.f)
}

func mulNum(a, b number) number {
	if a.isInt && b.isInt {
		if p, ok := exactInt(new(big.Int).Mul(big.NewInt(a.i), big.NewInt(b.i))); ok {
			return intNum(p)
		}
	}
	return floatNum(a.f * b.f)
}

func divNum(a, b number) number {
	return floatNum(a.f / b.f)
}

func powNum(a, b number) number {
	if a.isInt && b.isInt && b.i >= 0 && b.i <= 64 {
		if p, ok := exactInt(new(big.Int).Exp(big.NewInt(a.i), big.NewInt(b.i), nil)); ok {
			return intNum(p)
		}
	}
	return floatNum(math.Pow(a.f, b.f))
}

func negNum(a number) number {
	if a.isInt && a.i != math.MinInt64 {
		return intNum(-a.i)
	}
	return floatNum(-a.f)
}

func exactInt(v *big.Int) (int64, bool) {
	if !v.IsInt64() {
		return 0, false
	}
	return v.Int64(), true
}

func compareNum(a, b number) int {
	switch {
	case a.isInt && b.isInt:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		}
		return 0
	case a.f < b.f:
		return -1
	case a.f > b.f:
		return 1
	}
	return 0
}

// literalsEqual compares literal values. Numbers compare numerically;
// values of different kinds are never equal.
func literalsEqual(a, b *ast.Literal) bool {
	x, okA := numberOf(a)
	y, okB := numberOf(b)
	if okA || okB {
		return okA && okB && x.f == y.f && compareNum(x, y) == 0
	}
	return a.Value == b.Value
}

// intBounds returns the integer interval covered by a range with
// literal bounds. ok is false when a bound is not a literal number.
func intBounds(r *ast.Range) (lo, hi int64, ok bool) {
	lb, okL := numberOf(r.Min)
	ub, okU := numberOf(r.Max)
	if !okL || !okU || !lb.finite() || !ub.finite() {
		return 0, 0, false
	}
	lo, hi = truncate(lb), truncate(ub)
	if r.ExcludeMin {
		lo++
	}
	if r.ExcludeMax {
		hi--
	}
	return lo, hi, true
}

func truncate(n number) int64 {
	if n.isInt {
		return n.i
	}
	return int64(n.f)
}
