/*
Package keys implements the key material used to sign deploys: ed25519,
secp256k1 and secp256r1 private and public keys along with file loading
helpers.
*/
package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/nspcc-dev/rfc6979"
)

// PrivateKey is a signing key. Sign is deterministic for every
// implementation: the same key and digest always produce the same signature.
type PrivateKey interface {
	// Algorithm returns the signature algorithm of the key.
	Algorithm() Algorithm
	// PublicKey derives the public key from the private key.
	PublicKey() *PublicKey
	// Sign signs the given digest.
	Sign(digest []byte) ([]byte, error)
	// Bytes returns the raw private key (seed for ed25519, scalar for ECDSA).
	Bytes() []byte
}

// NewPrivateKey creates a new random private key for the given algorithm.
func NewPrivateKey(alg Algorithm) (PrivateKey, error) {
	switch alg {
	case Ed25519:
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &Ed25519PrivateKey{key: priv}, nil
	case Secp256k1:
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		return &Secp256k1PrivateKey{key: priv}, nil
	case Secp256r1:
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, err
		}
		return &Secp256r1PrivateKey{key: priv}, nil
	}
	return nil, ErrUnknownAlgorithm
}

// NewPrivateKeyFromBytes creates a private key of the given algorithm from
// its raw 32-byte representation.
func NewPrivateKeyFromBytes(alg Algorithm, b []byte) (PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf(
			"invalid byte length: expected %d bytes got %d", 32, len(b),
		)
	}
	switch alg {
	case Ed25519:
		return &Ed25519PrivateKey{key: ed25519.NewKeyFromSeed(b)}, nil
	case Secp256k1:
		return &Secp256k1PrivateKey{key: secp256k1.PrivKeyFromBytes(b)}, nil
	case Secp256r1:
		var (
			c = elliptic.P256()
			d = new(big.Int).SetBytes(b)
		)
		if d.Sign() == 0 || d.Cmp(c.Params().N) >= 0 {
			return nil, errors.New("invalid secp256r1 scalar")
		}
		x, y := c.ScalarBaseMult(b)
		return &Secp256r1PrivateKey{key: &ecdsa.PrivateKey{
			PublicKey: ecdsa.PublicKey{Curve: c, X: x, Y: y},
			D:         d,
		}}, nil
	}
	return nil, ErrUnknownAlgorithm
}

// Ed25519PrivateKey is an ed25519 signing key.
type Ed25519PrivateKey struct {
	key ed25519.PrivateKey
}

// Algorithm implements PrivateKey interface.
func (p *Ed25519PrivateKey) Algorithm() Algorithm { return Ed25519 }

// PublicKey implements PrivateKey interface.
func (p *Ed25519PrivateKey) PublicKey() *PublicKey {
	pub := p.key.Public().(ed25519.PublicKey)
	return &PublicKey{Algorithm: Ed25519, Bytes: []byte(pub)}
}

// Sign implements PrivateKey interface.
func (p *Ed25519PrivateKey) Sign(digest []byte) ([]byte, error) {
	if len(p.key) != ed25519.PrivateKeySize {
		return nil, errors.New("malformed ed25519 key")
	}
	return ed25519.Sign(p.key, digest), nil
}

// Bytes implements PrivateKey interface.
func (p *Ed25519PrivateKey) Bytes() []byte {
	return p.key.Seed()
}

// Secp256k1PrivateKey is a secp256k1 ECDSA signing key.
type Secp256k1PrivateKey struct {
	key *secp256k1.PrivateKey
}

// Algorithm implements PrivateKey interface.
func (p *Secp256k1PrivateKey) Algorithm() Algorithm { return Secp256k1 }

// PublicKey implements PrivateKey interface.
func (p *Secp256k1PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{Algorithm: Secp256k1, Bytes: p.key.PubKey().SerializeCompressed()}
}

// Sign implements PrivateKey interface. The nonce is derived with RFC6979,
// the recovery byte of the compact signature is dropped.
func (p *Secp256k1PrivateKey) Sign(digest []byte) ([]byte, error) {
	if p.key.Key.IsZero() {
		return nil, errors.New("zero secp256k1 key")
	}
	sig := secpecdsa.SignCompact(p.key, digest, true)
	return sig[1:], nil
}

// Bytes implements PrivateKey interface.
func (p *Secp256k1PrivateKey) Bytes() []byte {
	return p.key.Serialize()
}

// Secp256r1PrivateKey is a secp256r1 (P-256) ECDSA signing key.
type Secp256r1PrivateKey struct {
	key *ecdsa.PrivateKey
}

// Algorithm implements PrivateKey interface.
func (p *Secp256r1PrivateKey) Algorithm() Algorithm { return Secp256r1 }

// PublicKey implements PrivateKey interface.
func (p *Secp256r1PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{
		Algorithm: Secp256r1,
		Bytes:     elliptic.MarshalCompressed(p.key.Curve, p.key.X, p.key.Y),
	}
}

// Sign implements PrivateKey interface.
func (p *Secp256r1PrivateKey) Sign(digest []byte) ([]byte, error) {
	if p.key.D == nil || p.key.D.Sign() == 0 {
		return nil, errors.New("zero secp256r1 key")
	}
	r, s := rfc6979.SignECDSA(p.key, digest, sha256.New)
	return getSignatureSlice(p.key.Curve, r, s), nil
}

// Bytes implements PrivateKey interface.
func (p *Secp256r1PrivateKey) Bytes() []byte {
	bytes := p.key.D.Bytes()
	result := make([]byte, 32)
	copy(result[32-len(bytes):], bytes)

	return result
}

func getSignatureSlice(curve elliptic.Curve, r, s *big.Int) []byte {
	params := curve.Params()
	curveOrderByteSize := params.P.BitLen() / 8
	signature := make([]byte, curveOrderByteSize*2)
	_ = r.FillBytes(signature[:curveOrderByteSize])
	_ = s.FillBytes(signature[curveOrderByteSize:])

	return signature
}
