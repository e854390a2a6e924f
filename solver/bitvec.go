// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package solver

import (
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// bitvec is a signed integer in two's complement, least significant bit
// first. Operations always return vectors wide enough to hold the exact
// result, so there is no overflow.
type bitvec []z.Lit

// width returns the number of bits needed to represent v in two's
// complement.
func width(v int64) int {
	w := 1
	for v < -(1<<(w-1)) || v >= 1<<(w-1) {
		w++
		if w == 64 {
			break
		}
	}
	return w
}

func constvec(c *logic.C, v int64) bitvec {
	w := width(v)
	res := make(bitvec, w)
	for k := range res {
		if (v>>uint(k))&1 == 1 {
			res[k] = c.T
		} else {
			res[k] = c.F
		}
	}
	return res
}

// ext sign-extends a to w bits.
func ext(a bitvec, w int) bitvec {
	if len(a) >= w {
		return a
	}
	res := make(bitvec, w)
	copy(res, a)
	for k := len(a); k < w; k++ {
		res[k] = a[len(a)-1]
	}
	return res
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// addw returns a+b+carry truncated to w bits.
func addw(c *logic.C, a, b bitvec, carry z.Lit, w int) bitvec {
	a, b = ext(a, w), ext(b, w)
	res := make(bitvec, w)
	for k := 0; k < w; k++ {
		x := c.Xor(a[k], b[k])
		res[k] = c.Xor(x, carry)
		carry = c.Or(c.And(a[k], b[k]), c.And(carry, x))
	}
	return res
}

func add(c *logic.C, a, b bitvec) bitvec {
	return addw(c, a, b, c.F, max(len(a), len(b))+1)
}

func not(a bitvec) bitvec {
	res := make(bitvec, len(a))
	for k, m := range a {
		res[k] = m.Not()
	}
	return res
}

func neg(c *logic.C, a bitvec) bitvec {
	w := len(a) + 1
	return addw(c, not(ext(a, w)), bitvec{c.F}, c.T, w)
}

func sub(c *logic.C, a, b bitvec) bitvec {
	w := max(len(a), len(b)) + 1
	return addw(c, a, not(ext(b, w)), c.T, w)
}

// mul is the shift-and-add product, computed modulo 2^w with w large enough
// for the exact result.
func mul(c *logic.C, a, b bitvec) bitvec {
	w := len(a) + len(b)
	a, b = ext(a, w), ext(b, w)
	acc := make(bitvec, w)
	for k := range acc {
		acc[k] = c.F
	}
	for i := 0; i < w; i++ {
		partial := make(bitvec, w)
		for k := 0; k < w; k++ {
			if k < i {
				partial[k] = c.F
				continue
			}
			partial[k] = c.And(b[i], a[k-i])
		}
		acc = addw(c, acc, partial, c.F, w)
	}
	return acc
}

func ite(c *logic.C, cond z.Lit, a, b bitvec) bitvec {
	w := max(len(a), len(b))
	a, b = ext(a, w), ext(b, w)
	res := make(bitvec, w)
	for k := range res {
		res[k] = c.Choice(cond, a[k], b[k])
	}
	return res
}

func isneg(a bitvec) z.Lit {
	return a[len(a)-1]
}

func abs(c *logic.C, a bitvec) bitvec {
	return ite(c, isneg(a), neg(c, a), a)
}

func eq(c *logic.C, a, b bitvec) z.Lit {
	w := max(len(a), len(b))
	a, b = ext(a, w), ext(b, w)
	ms := make([]z.Lit, w)
	for k := range ms {
		ms[k] = c.Xor(a[k], b[k]).Not()
	}
	return c.Ands(ms...)
}

func lt(c *logic.C, a, b bitvec) z.Lit {
	return isneg(sub(c, a, b))
}

func le(c *logic.C, a, b bitvec) z.Lit {
	return lt(c, b, a).Not()
}
