// Package signer declares the Signer collaborator the core consumes
// but never implements for production use: key and signature
// operations are explicitly out of scope (spec §1), so the core only
// ever calls Sign/Verify through this interface and stores the
// resulting signature and public key opaquely.
package signer

// Signer produces and verifies signatures over an arbitrary message.
// The signature scheme is opaque to every caller in the core; it only
// ever stores Signature and PublicKey as opaque byte strings.
type Signer interface {
	Sign(privateKey, message []byte) (signature []byte, err error)
	Verify(publicKey, message, signature []byte) bool
}
