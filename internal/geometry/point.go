// Package geometry implements the Point/Triangle primitives that back
// every TrinityChain UTXO: a triangle in the 2-D plane, whose area (or
// an explicit overriding value) is its spendable quantity.
package geometry

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

const (
	// MaxCoordinate bounds the magnitude of any vertex coordinate.
	MaxCoordinate = 1e10

	// Tolerance is the absolute threshold under which two coordinates,
	// or two areas, are treated as equal.
	Tolerance = 1e-9
)

// Point is a vertex in the 2-D plane.
type Point struct {
	X, Y float64
}

// Valid reports whether the point's coordinates are finite and within
// MaxCoordinate in magnitude.
func (p Point) Valid() error {
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.Abs(p.X) >= MaxCoordinate {
		return errors.Errorf("point x coordinate %v out of range", p.X)
	}
	if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) || math.Abs(p.Y) >= MaxCoordinate {
		return errors.Errorf("point y coordinate %v out of range", p.Y)
	}
	return nil
}

// Equal reports proximity equality: both axes differ by less than
// Tolerance.
func (p Point) Equal(other Point) bool {
	return math.Abs(p.X-other.X) < Tolerance && math.Abs(p.Y-other.Y) < Tolerance
}

// Midpoint returns the point halfway between p and other.
func (p Point) Midpoint(other Point) Point {
	return Point{X: (p.X + other.X) / 2, Y: (p.Y + other.Y) / 2}
}

// Hash is the canonical SHA-256 digest of a Point: the little-endian
// IEEE-754 bit patterns of X then Y.
func (p Point) Hash() [32]byte {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(p.X))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(p.Y))
	return sha256Sum(buf[:])
}
