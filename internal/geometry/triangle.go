package geometry

import (
	"bytes"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Triangle is an unspent output: three vertices, a declared owner, an
// optional lineage link to the triangle it descends from, and an
// optional explicit spendable value that overrides geometric area.
type Triangle struct {
	A, B, C    Point
	Owner      string
	ParentHash *[32]byte
	Value      *float64
}

// signedArea returns the signed shoelace area of the triangle's vertices.
func (t Triangle) signedArea() float64 {
	return ((t.B.X-t.A.X)*(t.C.Y-t.A.Y) - (t.C.X-t.A.X)*(t.B.Y-t.A.Y)) / 2
}

// Area returns the unsigned geometric area of the triangle.
func (t Triangle) Area() float64 {
	return math.Abs(t.signedArea())
}

// EffectiveValue returns the triangle's spendable quantity: its
// explicit Value if set, otherwise its geometric Area.
func (t Triangle) EffectiveValue() float64 {
	if t.Value != nil {
		return *t.Value
	}
	return t.Area()
}

// Validate enforces the triangle's geometric invariants: vertices must
// be individually valid, pairwise distinct, and non-collinear (the
// absolute value of the signed area strictly exceeds Tolerance).
func (t Triangle) Validate() error {
	for _, v := range []Point{t.A, t.B, t.C} {
		if err := v.Valid(); err != nil {
			return errors.Wrap(err, "invalid triangle vertex")
		}
	}
	if t.A.Equal(t.B) || t.B.Equal(t.C) || t.A.Equal(t.C) {
		return errors.New("triangle vertices must be pairwise distinct")
	}
	if math.Abs(t.signedArea()) <= Tolerance {
		return errors.New("triangle vertices are collinear")
	}
	return nil
}

// Hash is the canonical SHA-256 digest of the triangle's geometry:
// the sorted concatenation of its three vertex hashes, so the hash is
// independent of the order vertices were supplied in.
func (t Triangle) Hash() [32]byte {
	hashes := [][32]byte{t.A.Hash(), t.B.Hash(), t.C.Hash()}
	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})
	w := NewHashWriter()
	for _, h := range hashes {
		w.Write(h[:])
	}
	return w.Finalize()
}

// Subdivide applies the Sierpinski subdivision rule: the three corner
// triangles of the midpoint construction. The central triangle is
// elided, so the three children's combined area is exactly 3/4 of the
// parent's (up to floating-point rounding). Children inherit
// ownership; if the parent carries an explicit value, each child gets
// an even third of it.
func (t Triangle) Subdivide() [3]Triangle {
	ab := t.A.Midpoint(t.B)
	bc := t.B.Midpoint(t.C)
	ca := t.C.Midpoint(t.A)

	var childValue *float64
	if t.Value != nil {
		v := *t.Value / 3
		childValue = &v
	}

	parentHash := t.Hash()

	mk := func(a, b, c Point) Triangle {
		var cv *float64
		if childValue != nil {
			v := *childValue
			cv = &v
		}
		return Triangle{A: a, B: b, C: c, Owner: t.Owner, ParentHash: &parentHash, Value: cv}
	}

	return [3]Triangle{
		mk(t.A, ab, ca),
		mk(ab, t.B, bc),
		mk(ca, bc, t.C),
	}
}
