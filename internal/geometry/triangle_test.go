package geometry

import (
	"math"
	"testing"
)

func TestTriangleArea(t *testing.T) {
	tri := Triangle{A: Point{0, 0}, B: Point{4, 0}, C: Point{0, 3}}
	got := tri.Area()
	want := 6.0
	if math.Abs(got-want) > Tolerance {
		t.Fatalf("Area() = %v, want %v", got, want)
	}
}

func TestTriangleValidateCollinear(t *testing.T) {
	tri := Triangle{A: Point{0, 0}, B: Point{1, 1}, C: Point{2, 2}}
	if err := tri.Validate(); err == nil {
		t.Fatal("expected collinear triangle to fail validation")
	}
}

func TestTriangleHashVertexOrderIndependent(t *testing.T) {
	a := Triangle{A: Point{0, 0}, B: Point{4, 0}, C: Point{0, 3}}
	b := Triangle{A: Point{0, 3}, B: Point{0, 0}, C: Point{4, 0}}
	if a.Hash() != b.Hash() {
		t.Fatal("triangle hash should not depend on vertex order")
	}
}

func TestEffectiveValue(t *testing.T) {
	tri := Triangle{A: Point{0, 0}, B: Point{4, 0}, C: Point{0, 3}}
	if got := tri.EffectiveValue(); math.Abs(got-6.0) > Tolerance {
		t.Fatalf("EffectiveValue() = %v, want area 6.0", got)
	}
	v := 1.5
	tri.Value = &v
	if got := tri.EffectiveValue(); got != 1.5 {
		t.Fatalf("EffectiveValue() = %v, want explicit value 1.5", got)
	}
}

func TestSubdivideAreaRule(t *testing.T) {
	tri := Triangle{A: Point{0, 0}, B: Point{10, 0}, C: Point{0, 10}}
	children := tri.Subdivide()

	total := 0.0
	for _, c := range children {
		if err := c.Validate(); err != nil {
			t.Fatalf("child triangle invalid: %v", err)
		}
		total += c.Area()
	}

	want := 0.75 * tri.Area()
	if math.Abs(total-want) > 1e-9*math.Max(1, want) {
		t.Fatalf("subdivided children area = %v, want %v", total, want)
	}
}

func TestSubdivideInheritsOwnerAndSplitsValue(t *testing.T) {
	v := 9.0
	tri := Triangle{A: Point{0, 0}, B: Point{10, 0}, C: Point{0, 10}, Owner: "alice", Value: &v}
	children := tri.Subdivide()
	parentHash := tri.Hash()
	for _, c := range children {
		if c.Owner != "alice" {
			t.Fatalf("child owner = %q, want alice", c.Owner)
		}
		if c.ParentHash == nil || *c.ParentHash != parentHash {
			t.Fatal("child parent hash should link back to the parent triangle")
		}
		if c.Value == nil || math.Abs(*c.Value-3.0) > Tolerance {
			t.Fatalf("child value = %v, want 3.0", c.Value)
		}
	}
}
