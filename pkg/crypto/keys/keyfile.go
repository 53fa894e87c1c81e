package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrKeyResolution is returned when key material can't be located or parsed.
var ErrKeyResolution = errors.New("key resolution failure")

// ParsePrivateKey parses private key data. PEM-encoded PKCS#8 (ed25519 and
// secp256r1) and SEC1 "EC PRIVATE KEY" (secp256r1) blocks are supported as
// well as "<algorithm>:<hex>" text and bare hex (ed25519 seed).
func ParsePrivateKey(data []byte) (PrivateKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		switch block.Type {
		case "PRIVATE KEY":
			k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			switch k := k.(type) {
			case ed25519.PrivateKey:
				return &Ed25519PrivateKey{key: k}, nil
			case *ecdsa.PrivateKey:
				if k.Curve != elliptic.P256() {
					return nil, fmt.Errorf("%w: curve %s", ErrUnknownAlgorithm, k.Curve.Params().Name)
				}
				return &Secp256r1PrivateKey{key: k}, nil
			}
			return nil, fmt.Errorf("%w: %T", ErrUnknownAlgorithm, k)
		case "EC PRIVATE KEY":
			k, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			return &Secp256r1PrivateKey{key: k}, nil
		}
		return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
	}
	alg, hexKey := splitAlgorithm(string(data))
	b, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(alg, b)
}

// ParsePublicKey parses public key data: PEM-encoded PKIX "PUBLIC KEY"
// (ed25519 and secp256r1) or tagged hex (see PublicKey.String).
func ParsePublicKey(data []byte) (*PublicKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		if block.Type != "PUBLIC KEY" {
			return nil, fmt.Errorf("unexpected PEM block %q", block.Type)
		}
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		switch k := k.(type) {
		case ed25519.PublicKey:
			return NewPublicKey(Ed25519, k)
		case *ecdsa.PublicKey:
			if k.Curve != elliptic.P256() {
				return nil, fmt.Errorf("%w: curve %s", ErrUnknownAlgorithm, k.Curve.Params().Name)
			}
			return NewPublicKey(Secp256r1, elliptic.MarshalCompressed(k.Curve, k.X, k.Y))
		}
		return nil, fmt.Errorf("%w: %T", ErrUnknownAlgorithm, k)
	}
	return NewPublicKeyFromString(string(data))
}

func splitAlgorithm(s string) (Algorithm, string) {
	s = strings.TrimSpace(s)
	if name, key, ok := strings.Cut(s, ":"); ok {
		if alg, err := AlgorithmFromString(name); err == nil {
			return alg, key
		}
	}
	return Ed25519, s
}

// ReadPrivateKeyFile reads and parses a private key file.
func ReadPrivateKeyFile(path string) (PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyResolution, err)
	}
	k, err := ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyResolution, path, err)
	}
	return k, nil
}

// ReadPublicKeyFile reads and parses a public key file.
func ReadPublicKeyFile(path string) (*PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyResolution, err)
	}
	k, err := ParsePublicKey(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyResolution, path, err)
	}
	return k, nil
}

// Resolve loads the key pair used for signing. The private key path is
// mandatory, the public key is derived from the private one when no path
// is given.
func Resolve(publicKeyPath, privateKeyPath string) (*PublicKey, PrivateKey, error) {
	if privateKeyPath == "" {
		return nil, nil, fmt.Errorf("%w: no private key specified", ErrKeyResolution)
	}
	priv, err := ReadPrivateKeyFile(privateKeyPath)
	if err != nil {
		return nil, nil, err
	}
	if publicKeyPath == "" {
		return priv.PublicKey(), priv, nil
	}
	pub, err := ReadPublicKeyFile(publicKeyPath)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}
