package txn

import (
	"io"
	"math"

	"github.com/motorcyle-spec/TrinityChain/internal/geometry"
	"github.com/pkg/errors"
)

// Coinbase emits one new triangle whose geometry is deterministic in
// (BlockHeight, Beneficiary), carrying the block's emission plus fees
// as its spendable value.
type Coinbase struct {
	Beneficiary string
	RewardArea  float64
	BlockHeight uint64
	TxNonce     uint64
}

// Kind implements Transaction.
func (Coinbase) Kind() Kind { return KindCoinbase }

// Nonce implements Transaction.
func (c Coinbase) Nonce() uint64 { return c.TxNonce }

func (c Coinbase) encodeCanonical(w io.Writer) error {
	return writeElements(w, uint64(KindCoinbase), c.Beneficiary, c.RewardArea, c.BlockHeight, c.TxNonce)
}

// Geometry derives the Coinbase's deterministic output triangle. The
// three vertices are placed from a hash of (BlockHeight, Beneficiary)
// scaled into the valid coordinate range, guaranteeing the same
// height/beneficiary pair always mints the same shape so independent
// nodes agree on the coinbase output without gossiping its geometry.
func (c Coinbase) Geometry() geometry.Triangle {
	w := geometry.NewHashWriter()
	_ = writeElements(w, c.BlockHeight, c.Beneficiary)
	digest := w.Finalize()

	// Split the 32-byte digest into three (x, y) pairs, each derived
	// from a non-overlapping 8-byte window scaled into a bounded,
	// well-separated region of the plane so the resulting triangle is
	// always non-degenerate.
	scale := 1e6
	pt := func(offset int) geometry.Point {
		x := float64(uint32FromBytes(digest[offset:offset+4])) / math.MaxUint32 * scale
		y := float64(uint32FromBytes(digest[offset+4:offset+8])) / math.MaxUint32 * scale
		return geometry.Point{X: x, Y: y}
	}

	a := pt(0)
	b := geometry.Point{X: pt(8).X + scale, Y: pt(8).Y}
	c2 := geometry.Point{X: pt(16).X, Y: pt(16).Y + scale}

	return geometry.Triangle{A: a, B: b, C: c2, Owner: c.Beneficiary}
}

func uint32FromBytes(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// ValidateStateless checks field ranges that don't require chain
// state: beneficiary non-empty, reward area finite and non-negative.
func (c Coinbase) ValidateStateless() error {
	if c.Beneficiary == "" {
		return errors.New("coinbase beneficiary must not be empty")
	}
	if math.IsNaN(c.RewardArea) || math.IsInf(c.RewardArea, 0) || c.RewardArea < 0 {
		return errors.Errorf("coinbase reward area %v is not a finite non-negative value", c.RewardArea)
	}
	return nil
}
