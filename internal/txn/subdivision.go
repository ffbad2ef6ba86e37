package txn

import (
	"io"

	"github.com/motorcyle-spec/TrinityChain/internal/geometry"
	"github.com/pkg/errors"
)

// ChildSpec is one of the three children a Subdivision transaction
// proposes, given explicitly by the submitter so validation can check
// it against the computed Sierpinski midpoint construction.
type ChildSpec struct {
	A, B, C geometry.Point
}

func (c ChildSpec) encodeCanonical(w io.Writer) error {
	for _, p := range [3]geometry.Point{c.A, c.B, c.C} {
		if err := writeFloat64(w, p.X); err != nil {
			return err
		}
		if err := writeFloat64(w, p.Y); err != nil {
			return err
		}
	}
	return nil
}

// Subdivision destroys a parent triangle and mints its three
// Sierpinski-corner children.
type Subdivision struct {
	ParentHash    [32]byte
	Children      [3]ChildSpec
	OwnerAddress  string
	Fee           uint64
	TxNonce       uint64
	Signature     []byte
	PublicKey     []byte
}

// Kind implements Transaction.
func (Subdivision) Kind() Kind { return KindSubdivision }

// Nonce implements Transaction.
func (s Subdivision) Nonce() uint64 { return s.TxNonce }

func (s Subdivision) encodeCanonical(w io.Writer) error {
	if err := writeElements(w, uint64(KindSubdivision), s.ParentHash, s.OwnerAddress, s.Fee, s.TxNonce); err != nil {
		return err
	}
	for _, c := range s.Children {
		if err := c.encodeCanonical(w); err != nil {
			return err
		}
	}
	return writeElements(w, s.PublicKey)
}

// ValidateStateless checks everything that doesn't require the parent
// triangle's actual geometry (that check is stateful, done against
// the UTXO set): owner non-empty, each child individually valid, and
// the signature over SignableBytes.
func (s Subdivision) ValidateStateless(verify func(publicKey, message, signature []byte) bool) error {
	if s.OwnerAddress == "" {
		return errors.New("subdivision owner address must not be empty")
	}
	for i, c := range s.Children {
		tri := geometry.Triangle{A: c.A, B: c.B, C: c.C, Owner: s.OwnerAddress}
		if err := tri.Validate(); err != nil {
			return errors.Wrapf(err, "subdivision child %d is not a valid triangle", i)
		}
	}
	if len(s.PublicKey) == 0 || len(s.Signature) == 0 {
		return errors.New("subdivision is missing a signature or public key")
	}
	if verify != nil && !verify(s.PublicKey, SignableBytes(s), s.Signature) {
		return errors.New("subdivision signature does not verify")
	}
	return nil
}

// ValidateAgainstParent checks the subdivision-rule invariant: each
// submitted child's vertices must lie within geometry.Tolerance of
// the Sierpinski midpoint construction derived from parent.
func (s Subdivision) ValidateAgainstParent(parent geometry.Triangle) error {
	expected := parent.Subdivide()
	for i, got := range s.Children {
		want := expected[i]
		if !got.A.Equal(want.A) || !got.B.Equal(want.B) || !got.C.Equal(want.C) {
			return errors.Errorf("subdivision child %d does not match the Sierpinski midpoint construction", i)
		}
	}
	return nil
}
