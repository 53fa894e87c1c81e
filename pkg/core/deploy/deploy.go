/*
Package deploy provides the deploy structure along with the functions to
build and sign it. A deploy is the unit of work submitted to the node: a
session code to execute with the payment code covering its cost.
*/
package deploy

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/casperlabs/casper-go/pkg/crypto/hash"
	"github.com/casperlabs/casper-go/pkg/crypto/keys"
	"github.com/casperlabs/casper-go/pkg/io"
	"github.com/casperlabs/casper-go/pkg/util"
)

const (
	// MaxDependencies is the maximum number of deploys a deploy can depend on.
	MaxDependencies = 16
	// MaxApprovals is the maximum number of approvals a deploy can carry.
	MaxApprovals    = 16
	maxChainNameLen = 256
)

// Header is the part of the deploy the deploy hash is calculated over.
type Header struct {
	// Account is the hash of the account the deploy runs under.
	Account      util.Uint256   `json:"account_public_key_hash"`
	Timestamp    uint64         `json:"timestamp"`
	GasPrice     uint64         `json:"gas_price"`
	BodyHash     util.Uint256   `json:"body_hash"`
	TTLMillis    uint32         `json:"ttl_millis,omitempty"`
	Dependencies []util.Uint256 `json:"dependencies,omitempty"`
	ChainName    string         `json:"chain_name,omitempty"`
}

// Body contains the code of the deploy.
type Body struct {
	Session Code `json:"session"`
	Payment Code `json:"payment"`
}

// Approval is a signature of the deploy hash made by some key.
type Approval struct {
	Signer    *keys.PublicKey
	Signature []byte
}

// Deploy is a signed (or not yet signed) deploy.
type Deploy struct {
	DeployHash util.Uint256 `json:"deploy_hash"`
	Header     Header       `json:"header"`
	Body       Body         `json:"body"`
	Approvals  []Approval   `json:"approvals"`
}

var _ hash.Hashable = (*Deploy)(nil)

// Hash returns the deploy hash.
func (d *Deploy) Hash() util.Uint256 {
	return d.DeployHash
}

// EncodeBinary implements the io.Serializable interface.
func (h *Header) EncodeBinary(w *io.BinWriter) {
	h.Account.EncodeBinary(w)
	w.WriteU64LE(h.Timestamp)
	w.WriteU64LE(h.GasPrice)
	h.BodyHash.EncodeBinary(w)
	w.WriteU32LE(h.TTLMillis)
	io.WriteArray(w, h.Dependencies)
	w.WriteString(h.ChainName)
}

// DecodeBinary implements the io.Serializable interface.
func (h *Header) DecodeBinary(r *io.BinReader) {
	h.Account.DecodeBinary(r)
	h.Timestamp = r.ReadU64LE()
	h.GasPrice = r.ReadU64LE()
	h.BodyHash.DecodeBinary(r)
	h.TTLMillis = r.ReadU32LE()
	h.Dependencies = io.ReadArray(r, func(r *io.BinReader) util.Uint256 {
		var u util.Uint256
		u.DecodeBinary(r)
		return u
	}, MaxDependencies)
	h.ChainName = r.ReadString(maxChainNameLen)
}

// EncodeBinary implements the io.Serializable interface.
func (b *Body) EncodeBinary(w *io.BinWriter) {
	b.Session.EncodeBinary(w)
	b.Payment.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (b *Body) DecodeBinary(r *io.BinReader) {
	b.Session.DecodeBinary(r)
	b.Payment.DecodeBinary(r)
}

// EncodeBinary implements the io.Serializable interface.
func (a *Approval) EncodeBinary(w *io.BinWriter) {
	a.Signer.EncodeBinary(w)
	w.WriteVarBytes(a.Signature)
}

// DecodeBinary implements the io.Serializable interface.
func (a *Approval) DecodeBinary(r *io.BinReader) {
	a.Signer = new(keys.PublicKey)
	a.Signer.DecodeBinary(r)
	a.Signature = r.ReadVarBytes(keys.SignatureLen)
}

// EncodeBinary implements the io.Serializable interface.
func (d *Deploy) EncodeBinary(w *io.BinWriter) {
	d.DeployHash.EncodeBinary(w)
	d.Header.EncodeBinary(w)
	d.Body.EncodeBinary(w)
	io.WriteArray(w, d.Approvals)
}

// DecodeBinary implements the io.Serializable interface.
func (d *Deploy) DecodeBinary(r *io.BinReader) {
	d.DeployHash.DecodeBinary(r)
	d.Header.DecodeBinary(r)
	d.Body.DecodeBinary(r)
	d.Approvals = io.ReadArray(r, func(r *io.BinReader) Approval {
		var a Approval
		a.DecodeBinary(r)
		return a
	}, MaxApprovals)
}

// Bytes returns the canonical binary form of the deploy.
func (d *Deploy) Bytes() ([]byte, error) {
	return io.GetBytes(d)
}

// NewDeployFromBytes decodes the deploy from its canonical binary form.
func NewDeployFromBytes(b []byte) (*Deploy, error) {
	d := new(Deploy)
	if err := io.FromBytes(b, d); err != nil {
		return nil, err
	}
	return d, nil
}

// hashes calculates the body and the deploy hashes, the deploy hash is
// calculated over the header with the given body hash.
func (d *Deploy) hashes() (util.Uint256, util.Uint256, error) {
	body, err := io.GetBytes(&d.Body)
	if err != nil {
		return util.Uint256{}, util.Uint256{}, err
	}
	hdr := d.Header
	hdr.BodyHash = hash.Blake2b256(body)
	header, err := io.GetBytes(&hdr)
	if err != nil {
		return util.Uint256{}, util.Uint256{}, err
	}
	return hdr.BodyHash, hash.Blake2b256(header), nil
}

// Verify checks the deploy and body hashes and all of the approvals.
func (d *Deploy) Verify() error {
	bodyHash, deployHash, err := d.hashes()
	if err != nil {
		return err
	}
	if !bodyHash.Equals(d.Header.BodyHash) {
		return fmt.Errorf("body hash mismatch: %s vs %s", bodyHash.StringBE(), d.Header.BodyHash.StringBE())
	}
	if !deployHash.Equals(d.DeployHash) {
		return fmt.Errorf("deploy hash mismatch: %s vs %s", deployHash.StringBE(), d.DeployHash.StringBE())
	}
	if len(d.Approvals) == 0 {
		return errors.New("deploy is not signed")
	}
	for i, a := range d.Approvals {
		if a.Signer == nil || !a.Signer.Verify(a.Signature, d.DeployHash.BytesBE()) {
			return fmt.Errorf("invalid approval #%d", i)
		}
	}
	return nil
}

type approvalAux struct {
	Signer    *keys.PublicKey `json:"signer"`
	Signature string          `json:"signature"`
}

// MarshalJSON implements the json.Marshaler interface.
func (a Approval) MarshalJSON() ([]byte, error) {
	return json.Marshal(approvalAux{
		Signer:    a.Signer,
		Signature: hex.EncodeToString(a.Signature),
	})
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (a *Approval) UnmarshalJSON(data []byte) error {
	var aux approvalAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Signer == nil {
		return errors.New("approval without a signer")
	}
	sig, err := hex.DecodeString(aux.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}
	a.Signer = aux.Signer
	a.Signature = sig
	return nil
}
