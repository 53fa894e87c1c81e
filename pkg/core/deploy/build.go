package deploy

import (
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"strings"
	"time"

	"github.com/casperlabs/casper-go/pkg/smartcontract"
	"github.com/casperlabs/casper-go/pkg/util"
)

const (
	// DefaultGasPrice is used when no gas price is given.
	DefaultGasPrice = 10
	// StandardPaymentContract is the name of the system contract used for
	// payment when no payment code is given.
	StandardPaymentContract = "standard_payment"
	// PaymentAmountArg is the name of the standard payment argument.
	PaymentAmountArg = "amount"
)

// MaxPaymentCost is the amount paid by default.
var MaxPaymentCost = big.NewInt(10_000_000)

// ErrInvalidParameters is returned when deploy parameters are inconsistent.
var ErrInvalidParameters = errors.New("invalid deploy parameters")

// CodeRef references session or payment code. At most one of the fields
// can be set.
type CodeRef struct {
	Wasm []byte
	Name string
	Hash []byte
	URef []byte
}

// StandardPayment references the standard payment contract.
var StandardPayment = CodeRef{Name: StandardPaymentContract}

// IsEmpty returns true if no code is referenced.
func (c CodeRef) IsEmpty() bool {
	return len(c.Wasm) == 0 && c.Name == "" && len(c.Hash) == 0 && len(c.URef) == 0
}

func (c CodeRef) code(args smartcontract.Args) (Code, error) {
	var (
		res Code
		n   int
	)
	if len(c.Wasm) != 0 {
		res = Code{Type: WasmCode, Ref: c.Wasm}
		n++
	}
	if c.Name != "" {
		res = Code{Type: StoredContractName, Ref: []byte(c.Name)}
		n++
	}
	if len(c.Hash) != 0 {
		if len(c.Hash) != util.Uint256Size {
			return Code{}, fmt.Errorf("%w: contract hash must be %d bytes long", ErrInvalidParameters, util.Uint256Size)
		}
		res = Code{Type: StoredContractHash, Ref: c.Hash}
		n++
	}
	if len(c.URef) != 0 {
		if len(c.URef) != util.Uint256Size {
			return Code{}, fmt.Errorf("%w: contract uref must be %d bytes long", ErrInvalidParameters, util.Uint256Size)
		}
		res = Code{Type: StoredContractURef, Ref: c.URef}
		n++
	}
	if n != 1 {
		return Code{}, fmt.Errorf("%w: exactly one code reference must be given, got %d", ErrInvalidParameters, n)
	}
	for i := range args {
		if err := args[i].Value.Validate(); err != nil {
			return Code{}, fmt.Errorf("%w: argument %q: %w", ErrInvalidParameters, args[i].Name, err)
		}
	}
	res.Args = args
	return res, nil
}

// Params are the deploy parameters.
type Params struct {
	// From is the account hash the deploy runs under, the signer's
	// account is used when empty.
	From []byte
	// GasPrice is the gas price, DefaultGasPrice is used when zero.
	GasPrice int64

	Session     CodeRef
	SessionArgs smartcontract.Args

	// Payment is the payment code, StandardPayment is used when empty.
	Payment     CodeRef
	PaymentArgs smartcontract.Args
	// PaymentAmount is the amount passed to the payment code when no
	// PaymentArgs are given, MaxPaymentCost is used when nil.
	PaymentAmount *big.Int

	TTLMillis    uint32
	Dependencies []util.Uint256
	ChainName    string
	// Timestamp is the deploy creation time, current time is used when zero.
	Timestamp time.Time
}

// Build creates an unsigned deploy from the given parameters.
func Build(p Params) (*Deploy, error) {
	if p.Session.IsEmpty() {
		return nil, fmt.Errorf("%w: no session code", ErrInvalidParameters)
	}
	if p.GasPrice < 0 {
		return nil, fmt.Errorf("%w: negative gas price %d", ErrInvalidParameters, p.GasPrice)
	}
	if len(p.Dependencies) > MaxDependencies {
		return nil, fmt.Errorf("%w: too many dependencies", ErrInvalidParameters)
	}
	if len(p.ChainName) > maxChainNameLen {
		return nil, fmt.Errorf("%w: chain name is too long", ErrInvalidParameters)
	}
	session, err := p.Session.code(p.SessionArgs)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	payRef := p.Payment
	if payRef.IsEmpty() {
		payRef = StandardPayment
	}
	payArgs := p.PaymentArgs
	if payArgs == nil {
		amount := p.PaymentAmount
		if amount == nil {
			amount = MaxPaymentCost
		}
		payArgs = smartcontract.Args{
			smartcontract.NewBigIntArg(PaymentAmountArg, new(big.Int).Set(amount), smartcontract.BitWidth512),
		}
	}
	payment, err := payRef.code(payArgs)
	if err != nil {
		return nil, fmt.Errorf("payment: %w", err)
	}

	d := &Deploy{
		Header: Header{
			GasPrice:     uint64(p.GasPrice),
			TTLMillis:    p.TTLMillis,
			Dependencies: p.Dependencies,
			ChainName:    p.ChainName,
		},
		Body: Body{
			Session: session,
			Payment: payment,
		},
	}
	if d.Header.GasPrice == 0 {
		d.Header.GasPrice = DefaultGasPrice
	}
	if len(p.From) != 0 {
		d.Header.Account, err = util.Uint256DecodeBytesBE(p.From)
		if err != nil {
			return nil, fmt.Errorf("%w: from: %w", ErrInvalidParameters, err)
		}
	}
	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	d.Header.Timestamp = uint64(ts.UnixMilli())
	return d, nil
}

// ReadWasm reads a wasm module from fsys. The name can be given either as
// a path or as a bare contract name without the ".wasm" extension.
func ReadWasm(fsys fs.FS, name string) ([]byte, error) {
	b, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) && !strings.HasSuffix(name, ".wasm") {
		b, err = fs.ReadFile(fsys, name+".wasm")
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%s: empty wasm module", name)
	}
	return b, nil
}
