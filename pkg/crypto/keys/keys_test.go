package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/casperlabs/casper-go/pkg/crypto/hash"
	"github.com/casperlabs/casper-go/pkg/io"
	"github.com/stretchr/testify/require"
)

var algorithms = []Algorithm{Ed25519, Secp256k1, Secp256r1}

func TestSignVerify(t *testing.T) {
	digest := hash.Blake2b256([]byte("sample"))
	for _, alg := range algorithms {
		t.Run(alg.String(), func(t *testing.T) {
			priv, err := NewPrivateKey(alg)
			require.NoError(t, err)
			require.Equal(t, alg, priv.Algorithm())

			sig, err := priv.Sign(digest[:])
			require.NoError(t, err)
			require.Len(t, sig, SignatureLen)
			require.True(t, priv.PublicKey().Verify(sig, digest[:]))

			// Deterministic.
			sig2, err := priv.Sign(digest[:])
			require.NoError(t, err)
			require.Equal(t, sig, sig2)

			other := hash.Blake2b256([]byte("other"))
			require.False(t, priv.PublicKey().Verify(sig, other[:]))

			wrong, err := NewPrivateKey(alg)
			require.NoError(t, err)
			require.False(t, wrong.PublicKey().Verify(sig, digest[:]))
			require.False(t, priv.PublicKey().Verify(sig[1:], digest[:]))
		})
	}
}

func TestPrivateKeyFromBytes(t *testing.T) {
	for _, alg := range algorithms {
		priv, err := NewPrivateKey(alg)
		require.NoError(t, err)
		restored, err := NewPrivateKeyFromBytes(alg, priv.Bytes())
		require.NoError(t, err)
		require.True(t, priv.PublicKey().Equal(restored.PublicKey()))
	}
	_, err := NewPrivateKeyFromBytes(Ed25519, []byte{1, 2, 3})
	require.Error(t, err)
	_, err = NewPrivateKeyFromBytes(Secp256r1, make([]byte, 32))
	require.Error(t, err)
	_, err = NewPrivateKeyFromBytes(Algorithm(42), make([]byte, 32))
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestPublicKeyString(t *testing.T) {
	for _, alg := range algorithms {
		priv, err := NewPrivateKey(alg)
		require.NoError(t, err)
		pub := priv.PublicKey()
		s := pub.String()
		require.Equal(t, hex.EncodeToString([]byte{byte(alg)}), s[:2])

		restored, err := NewPublicKeyFromString(s)
		require.NoError(t, err)
		require.True(t, pub.Equal(restored))

		data, err := json.Marshal(pub)
		require.NoError(t, err)
		var fromJSON PublicKey
		require.NoError(t, json.Unmarshal(data, &fromJSON))
		require.True(t, pub.Equal(&fromJSON))

		b, err := io.GetBytes(pub)
		require.NoError(t, err)
		var fromBin PublicKey
		require.NoError(t, io.FromBytes(b, &fromBin))
		require.True(t, pub.Equal(&fromBin))
	}

	_, err := NewPublicKeyFromString("")
	require.Error(t, err)
	_, err = NewPublicKeyFromString("0701")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
	_, err = NewPublicKeyFromString("0101")
	require.Error(t, err)
	_, err = NewPublicKeyFromString("zz")
	require.Error(t, err)
}

func TestAccountHash(t *testing.T) {
	seed := make([]byte, 32)
	priv, err := NewPrivateKeyFromBytes(Ed25519, seed)
	require.NoError(t, err)
	pub := priv.PublicKey()
	expected := hash.Blake2b256(append([]byte("ed25519\x00"), pub.Bytes...))
	require.Equal(t, expected, pub.AccountHash())

	k1, err := NewPrivateKeyFromBytes(Secp256k1, append(make([]byte, 31), 1))
	require.NoError(t, err)
	require.NotEqual(t, pub.AccountHash(), k1.PublicKey().AccountHash())
}

func TestAlgorithmFromString(t *testing.T) {
	for _, alg := range algorithms {
		res, err := AlgorithmFromString(alg.String())
		require.NoError(t, err)
		require.Equal(t, alg, res)
	}
	res, err := AlgorithmFromString("P256")
	require.NoError(t, err)
	require.Equal(t, Secp256r1, res)
	_, err = AlgorithmFromString("rsa")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
	require.Equal(t, "Algorithm(9)", Algorithm(9).String())
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0600))
	return p
}

func TestParsePEM(t *testing.T) {
	dir := t.TempDir()

	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(edPriv)
	require.NoError(t, err)
	privPath := writeFile(t, dir, "ed.pem", pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	der, err = x509.MarshalPKIXPublicKey(edPub)
	require.NoError(t, err)
	pubPath := writeFile(t, dir, "ed.pub.pem", pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	pub, priv, err := Resolve(pubPath, privPath)
	require.NoError(t, err)
	require.Equal(t, Ed25519, priv.Algorithm())
	require.True(t, pub.Equal(priv.PublicKey()))
	require.Equal(t, []byte(edPub), pub.Bytes)

	ecPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err = x509.MarshalECPrivateKey(ecPriv)
	require.NoError(t, err)
	privPath = writeFile(t, dir, "ec.pem", pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	der, err = x509.MarshalPKIXPublicKey(&ecPriv.PublicKey)
	require.NoError(t, err)
	pubPath = writeFile(t, dir, "ec.pub.pem", pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	pub, priv, err = Resolve(pubPath, privPath)
	require.NoError(t, err)
	require.Equal(t, Secp256r1, priv.Algorithm())
	require.True(t, pub.Equal(priv.PublicKey()))

	_, err = ParsePrivateKey(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{1}}))
	require.Error(t, err)
	_, err = ParsePublicKey(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{1}}))
	require.Error(t, err)
}

func TestParseHex(t *testing.T) {
	dir := t.TempDir()
	k1, err := NewPrivateKey(Secp256k1)
	require.NoError(t, err)
	privPath := writeFile(t, dir, "k1", []byte("secp256k1:"+hex.EncodeToString(k1.Bytes())+"\n"))

	pub, priv, err := Resolve("", privPath)
	require.NoError(t, err)
	require.Equal(t, Secp256k1, priv.Algorithm())
	require.True(t, pub.Equal(k1.PublicKey()))

	pubPath := writeFile(t, dir, "k1.pub", []byte(k1.PublicKey().String()))
	pub, _, err = Resolve(pubPath, privPath)
	require.NoError(t, err)
	require.True(t, pub.Equal(k1.PublicKey()))

	seedPath := writeFile(t, dir, "ed", []byte(hex.EncodeToString(make([]byte, 32))))
	_, priv, err = Resolve("", seedPath)
	require.NoError(t, err)
	require.Equal(t, Ed25519, priv.Algorithm())
}

func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Resolve("", "")
	require.ErrorIs(t, err, ErrKeyResolution)

	_, _, err = Resolve("", filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, ErrKeyResolution)

	bad := writeFile(t, dir, "bad", []byte("not a key"))
	_, _, err = Resolve("", bad)
	require.ErrorIs(t, err, ErrKeyResolution)

	k, err := NewPrivateKey(Ed25519)
	require.NoError(t, err)
	good := writeFile(t, dir, "good", []byte(hex.EncodeToString(k.Bytes())))
	_, _, err = Resolve(bad, good)
	require.ErrorIs(t, err, ErrKeyResolution)
	_, _, err = Resolve(filepath.Join(dir, "missing.pub"), good)
	require.ErrorIs(t, err, ErrKeyResolution)
}
