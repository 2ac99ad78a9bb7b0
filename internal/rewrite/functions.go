package rewrite

import (
	"math"
	"strconv"
	"strings"

	"github.com/roach88/hpl/internal/ast"
)

// maxFoldedRange bounds the ranges that sum and prod expand.
const maxFoldedRange = 1 << 16

type unaryFold func(number) (number, bool)

func floatFold(f func(float64) float64) unaryFold {
	return func(n number) (number, bool) {
		r := floatNum(f(n.f))
		return r, r.finite()
	}
}

func integralFold(f func(float64) float64) unaryFold {
	return func(n number) (number, bool) {
		if n.isInt {
			return n, true
		}
		r := f(n.f)
		if math.IsNaN(r) || r < math.MinInt64 || r >= math.MaxInt64 {
			return number{}, false
		}
		return intNum(int64(r)), true
	}
}

var unaryFolds = map[string]unaryFold{
	"abs": func(n number) (number, bool) {
		if n.isInt {
			if n.i < 0 {
				return negNum(n), true
			}
			return n, true
		}
		return floatNum(math.Abs(n.f)), true
	},
	"sqrt":  floatFold(math.Sqrt),
	"ceil":  integralFold(math.Ceil),
	"floor": integralFold(math.Floor),
	"sin":   floatFold(math.Sin),
	"cos":   floatFold(math.Cos),
	"tan":   floatFold(math.Tan),
	"asin":  floatFold(math.Asin),
	"acos":  floatFold(math.Acos),
	"atan":  floatFold(math.Atan),
	"deg":   floatFold(func(x float64) float64 { return x * 180 / math.Pi }),
	"rad":   floatFold(func(x float64) float64 { return x * math.Pi / 180 }),
}

// foldCall evaluates a call whose arguments are already simplified.
// It returns nil when the call cannot be folded.
func (s *simplifier) foldCall(call *ast.FunctionCall) ast.Expr {
	args := call.Arguments
	name := call.Function.Name

	if f, ok := unaryFolds[name]; ok && len(args) == 1 {
		n, ok := numberOf(args[0])
		if !ok {
			return nil
		}
		r, ok := f(n)
		if !ok {
			return nil
		}
		return numberLiteral(r)
	}

	switch name {
	case "bool", "int", "float", "str":
		if len(args) != 1 {
			return nil
		}
		lit, ok := asLiteral(args[0])
		if !ok {
			return nil
		}
		return convertLiteral(name, lit)
	case "len":
		return foldLen(args[0])
	case "sum", "prod":
		return s.foldAggregate(name, args[0])
	case "atan2", "log":
		if len(args) != 2 {
			return nil
		}
		a, okA := numberOf(args[0])
		b, okB := numberOf(args[1])
		if !okA || !okB {
			return nil
		}
		var r float64
		switch {
		case name == "atan2":
			r = math.Atan2(a.f, b.f)
		case b.f == 10:
			r = math.Log10(a.f)
		default:
			r = math.Log(a.f) / math.Log(b.f)
		}
		return numberLiteral(floatNum(r))
	case "max", "min":
		return s.foldExtremum(call)
	case "gcd":
		return foldGcd(args)
	}
	return nil
}

func numberLiteral(n number) ast.Expr {
	if l, ok := n.literal(); ok {
		return l
	}
	return nil
}

func convertLiteral(name string, lit *ast.Literal) ast.Expr {
	switch name {
	case "bool":
		switch v := lit.Value.(type) {
		case bool:
			return ast.Bool(v)
		case string:
			return ast.Bool(v != "")
		}
		n, _ := numberOf(lit)
		return ast.Bool(!n.isZero())
	case "int":
		switch v := lit.Value.(type) {
		case bool:
			if v {
				return ast.Int(1)
			}
			return ast.Int(0)
		case string:
			i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil
			}
			return ast.Int(i)
		}
		n, _ := numberOf(lit)
		r, ok := integralFold(math.Trunc)(n)
		if !ok {
			return nil
		}
		return ast.Int(r.i)
	case "float":
		switch v := lit.Value.(type) {
		case bool:
			if v {
				return ast.Float(1)
			}
			return ast.Float(0)
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil
			}
			return numberLiteral(floatNum(f))
		}
		n, _ := numberOf(lit)
		return numberLiteral(floatNum(n.f))
	case "str":
		switch v := lit.Value.(type) {
		case string:
			return lit
		case bool:
			if v {
				return ast.Str("True")
			}
			return ast.Str("False")
		}
		n, _ := numberOf(lit)
		if n.isInt {
			return ast.Str(strconv.FormatInt(n.i, 10))
		}
		return ast.Str(ast.FormatFloat(n.f))
	}
	return nil
}

func foldLen(arg ast.Expr) ast.Expr {
	switch v := arg.(type) {
	case *ast.Set:
		return ast.Int(int64(len(v.Values)))
	case *ast.Range:
		lo, hi, ok := intBounds(v)
		if !ok {
			return nil
		}
		if hi < lo {
			return ast.Int(0)
		}
		return ast.Int(hi - lo + 1)
	}
	return nil
}

// foldAggregate folds sum or prod over a set or a literal range. Set
// elements that are not literals remain as a chain of additions or
// multiplications with the folded literal part.
func (s *simplifier) foldAggregate(name string, arg ast.Expr) ast.Expr {
	op, acc, combine := ast.OpAdd, intNum(0), addNum
	if name == "prod" {
		op, acc, combine = ast.OpMul, intNum(1), mulNum
	}

	switch v := arg.(type) {
	case *ast.Set:
		var rest []ast.Expr
		for _, e := range v.Values {
			if n, ok := numberOf(e); ok {
				acc = combine(acc, n)
			} else {
				rest = append(rest, e)
			}
		}
		lit := numberLiteral(acc)
		if lit == nil {
			return nil
		}
		if name == "prod" && acc.isZero() {
			return lit
		}
		b := &builder{}
		expr := lit
		for _, e := range rest {
			expr = b.binary(op, e, expr)
		}
		if b.err != nil {
			return nil
		}
		return s.expr(expr)
	case *ast.Range:
		lo, hi, ok := intBounds(v)
		if !ok || hi-lo > maxFoldedRange {
			return nil
		}
		for i := lo; i <= hi; i++ {
			acc = combine(acc, intNum(i))
		}
		return numberLiteral(acc)
	}
	return nil
}

// foldExtremum folds max and min. Literal arguments collapse into one;
// other arguments are kept in front of it.
func (s *simplifier) foldExtremum(call *ast.FunctionCall) ast.Expr {
	better := func(a, b number) bool { return compareNum(a, b) > 0 }
	if call.Function.Name == "min" {
		better = func(a, b number) bool { return compareNum(a, b) < 0 }
	}

	values := call.Arguments
	if len(values) == 1 {
		switch v := values[0].(type) {
		case *ast.Range:
			lo, hi, ok := intBounds(v)
			if !ok || hi < lo {
				return nil
			}
			if call.Function.Name == "min" {
				return ast.Int(lo)
			}
			return ast.Int(hi)
		case *ast.Set:
			values = v.Values
		default:
			return nil
		}
	}

	var rest []ast.Expr
	var lits []number
	for _, e := range values {
		if n, ok := numberOf(e); ok {
			lits = append(lits, n)
		} else {
			rest = append(rest, e)
		}
	}
	if len(lits) < 2 {
		return nil
	}
	best := lits[0]
	for _, n := range lits[1:] {
		if better(n, best) {
			best = n
		}
	}
	lit := numberLiteral(best)
	if lit == nil {
		return nil
	}
	if len(rest) == 0 {
		return lit
	}
	r, err := ast.NewCall(call.Function, append(rest, lit))
	if err != nil {
		return nil
	}
	return r
}

func foldGcd(args []ast.Expr) ast.Expr {
	values := args
	if len(args) == 1 {
		set, ok := args[0].(*ast.Set)
		if !ok {
			return nil
		}
		values = set.Values
	}
	if len(values) == 0 {
		return nil
	}
	var g int64
	for _, e := range values {
		n, ok := numberOf(e)
		if !ok || !n.isInt || n.i == math.MinInt64 {
			return nil
		}
		g = gcd(g, n.i)
	}
	return ast.Int(g)
}

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
