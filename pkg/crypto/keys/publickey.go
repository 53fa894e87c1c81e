package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/casperlabs/casper-go/pkg/crypto/hash"
	"github.com/casperlabs/casper-go/pkg/io"
	"github.com/casperlabs/casper-go/pkg/util"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Algorithm is a signature algorithm identifier.
type Algorithm byte

// Supported signature algorithms. Their values are used as a tag byte in
// the base16 public key representation.
const (
	Ed25519   Algorithm = 0x01
	Secp256k1 Algorithm = 0x02
	Secp256r1 Algorithm = 0x03
)

// SignatureLen is the length of signatures produced by any supported
// algorithm (r||s for ECDSA ones).
const SignatureLen = 64

// ErrUnknownAlgorithm is returned for unsupported algorithm tags and names.
var ErrUnknownAlgorithm = errors.New("unknown signature algorithm")

// String returns algorithm name as used in account hash derivation.
func (a Algorithm) String() string {
	switch a {
	case Ed25519:
		return "ed25519"
	case Secp256k1:
		return "secp256k1"
	case Secp256r1:
		return "secp256r1"
	}
	return fmt.Sprintf("Algorithm(%d)", byte(a))
}

// AlgorithmFromString parses algorithm name.
func AlgorithmFromString(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "ed25519":
		return Ed25519, nil
	case "secp256k1":
		return Secp256k1, nil
	case "secp256r1", "p256":
		return Secp256r1, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, s)
}

func (a Algorithm) publicKeyLen() int {
	if a == Ed25519 {
		return ed25519.PublicKeySize
	}
	return 33 // Compressed EC point.
}

// PublicKey is an algorithm-tagged public key. For ECDSA keys Bytes holds
// the compressed point.
type PublicKey struct {
	Algorithm Algorithm
	Bytes     []byte
}

// NewPublicKey validates raw key bytes for the given algorithm and returns
// a PublicKey. Uncompressed EC points are accepted and compressed.
func NewPublicKey(alg Algorithm, b []byte) (*PublicKey, error) {
	switch alg {
	case Ed25519:
		if len(b) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid ed25519 key length %d", len(b))
		}
		return &PublicKey{Algorithm: alg, Bytes: append([]byte{}, b...)}, nil
	case Secp256k1:
		pk, err := secp256k1.ParsePubKey(b)
		if err != nil {
			return nil, err
		}
		return &PublicKey{Algorithm: alg, Bytes: pk.SerializeCompressed()}, nil
	case Secp256r1:
		var x, y *big.Int
		if len(b) == 33 {
			x, y = elliptic.UnmarshalCompressed(elliptic.P256(), b)
		} else {
			x, y = elliptic.Unmarshal(elliptic.P256(), b)
		}
		if x == nil {
			return nil, errors.New("invalid secp256r1 point")
		}
		return &PublicKey{Algorithm: alg, Bytes: elliptic.MarshalCompressed(elliptic.P256(), x, y)}, nil
	}
	return nil, ErrUnknownAlgorithm
}

// NewPublicKeyFromString decodes tagged base16 representation of the key
// (algorithm byte followed by the key bytes, see String).
func NewPublicKeyFromString(s string) (*PublicKey, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return nil, err
	}
	return NewPublicKeyFromBytes(b)
}

// NewPublicKeyFromBytes decodes tagged binary representation of the key.
func NewPublicKeyFromBytes(b []byte) (*PublicKey, error) {
	if len(b) == 0 {
		return nil, errors.New("empty public key")
	}
	alg := Algorithm(b[0])
	if alg != Ed25519 && alg != Secp256k1 && alg != Secp256r1 {
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownAlgorithm, b[0])
	}
	if len(b)-1 != alg.publicKeyLen() {
		return nil, fmt.Errorf("invalid %s key length %d", alg, len(b)-1)
	}
	return NewPublicKey(alg, b[1:])
}

// TaggedBytes returns the algorithm tag followed by key bytes.
func (p *PublicKey) TaggedBytes() []byte {
	return append([]byte{byte(p.Algorithm)}, p.Bytes...)
}

// String implements the Stringer interface.
func (p *PublicKey) String() string {
	return hex.EncodeToString(p.TaggedBytes())
}

// Equal returns true when both keys have the same algorithm and bytes.
func (p *PublicKey) Equal(key *PublicKey) bool {
	if p == nil || key == nil {
		return p == key
	}
	return p.Algorithm == key.Algorithm && string(p.Bytes) == string(key.Bytes)
}

// AccountHash returns the account address derived from this key: a digest
// of the algorithm name, a zero separator and the key bytes.
func (p *PublicKey) AccountHash() util.Uint256 {
	return hash.Blake2b256Parts([]byte(p.Algorithm.String()), []byte{0}, p.Bytes)
}

// Verify returns true if the signature is valid for the given digest.
func (p *PublicKey) Verify(signature []byte, digest []byte) bool {
	if p == nil || len(signature) != SignatureLen {
		return false
	}
	switch p.Algorithm {
	case Ed25519:
		if len(p.Bytes) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(p.Bytes), digest, signature)
	case Secp256k1:
		pk, err := secp256k1.ParsePubKey(p.Bytes)
		if err != nil {
			return false
		}
		var r, s secp256k1.ModNScalar
		if r.SetByteSlice(signature[:32]) || s.SetByteSlice(signature[32:]) {
			return false // Overflow.
		}
		return secpecdsa.NewSignature(&r, &s).Verify(digest, pk)
	case Secp256r1:
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), p.Bytes)
		if x == nil {
			return false
		}
		pk := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
		r := new(big.Int).SetBytes(signature[:32])
		s := new(big.Int).SetBytes(signature[32:])
		return ecdsa.Verify(pk, digest, r, s)
	}
	return false
}

// EncodeBinary implements the io.Serializable interface.
func (p *PublicKey) EncodeBinary(w *io.BinWriter) {
	w.WriteVarBytes(p.TaggedBytes())
}

// DecodeBinary implements the io.Serializable interface.
func (p *PublicKey) DecodeBinary(r *io.BinReader) {
	b := r.ReadVarBytes(1 + 65)
	if r.Err != nil {
		return
	}
	pk, err := NewPublicKeyFromBytes(b)
	if err != nil {
		r.Err = err
		return
	}
	*p = *pk
}

// MarshalJSON implements the json.Marshaler interface.
func (p PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pk, err := NewPublicKeyFromString(s)
	if err != nil {
		return err
	}
	*p = *pk
	return nil
}
