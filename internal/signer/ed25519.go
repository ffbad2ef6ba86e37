package signer

import "crypto/ed25519"

// Ed25519Signer is a concrete Signer, used by cmd/trinitynode.
// Production signature schemes are explicitly out of the core's
// scope; this implementation exists so the rest of the repo has
// something real to exercise the Signer interface against.
type Ed25519Signer struct{}

// Sign signs message with the ed25519 private key.
func (Ed25519Signer) Sign(privateKey, message []byte) ([]byte, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return nil, errInvalidKeySize{want: ed25519.PrivateKeySize, got: len(privateKey)}
	}
	return ed25519.Sign(ed25519.PrivateKey(privateKey), message), nil
}

// Verify reports whether signature is a valid ed25519 signature of
// message under publicKey.
func (Ed25519Signer) Verify(publicKey, message, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

type errInvalidKeySize struct {
	want, got int
}

func (e errInvalidKeySize) Error() string {
	return "signer: invalid private key size"
}
