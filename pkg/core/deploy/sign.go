package deploy

import (
	"errors"
	"fmt"

	"github.com/casperlabs/casper-go/pkg/crypto/keys"
)

// ErrSigning is returned when the deploy can't be signed.
var ErrSigning = errors.New("deploy signing failure")

// Sign fills the account (unless already set), the body and deploy hashes
// and adds an approval made by the given key. The public key is derived
// from the private one when nil. The deploy is left untouched on failure.
func Sign(d *Deploy, pub *keys.PublicKey, priv keys.PrivateKey) error {
	if priv == nil {
		return fmt.Errorf("%w: no private key", keys.ErrKeyResolution)
	}
	if len(d.Approvals) != 0 {
		return fmt.Errorf("%w: deploy is already signed", ErrSigning)
	}
	own := priv.PublicKey()
	if pub == nil {
		pub = own
	} else if !pub.Equal(own) {
		return fmt.Errorf("%w: public key %s doesn't match the private key", ErrSigning, pub)
	}

	signed := *d
	if signed.Header.Account.IsZero() {
		signed.Header.Account = pub.AccountHash()
	}
	bodyHash, deployHash, err := signed.hashes()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSigning, err)
	}
	sig, err := priv.Sign(deployHash.BytesBE())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSigning, err)
	}
	signed.Header.BodyHash = bodyHash
	signed.DeployHash = deployHash
	signed.Approvals = []Approval{{Signer: pub, Signature: sig}}
	*d = signed
	return nil
}
