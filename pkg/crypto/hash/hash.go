/*
Package hash contains the digest functions used to identify deploys, their
bodies and accounts.
*/
package hash

import (
	"github.com/casperlabs/casper-go/pkg/util"
	"golang.org/x/crypto/blake2b"
)

// Hashable represents an object which can be hashed. Usually these objects
// are io.Serializable and signable. They tend to cache the hash inside for
// effectiveness, providing this accessor method.
type Hashable interface {
	Hash() util.Uint256
}

// Blake2b256 hashes the incoming byte slice using the 256-bit BLAKE2b
// algorithm, it's the DIGEST used for deploy and body hashes.
func Blake2b256(data []byte) util.Uint256 {
	return blake2b.Sum256(data)
}

// Blake2b256Parts hashes the concatenation of all parts without copying
// them into a single buffer.
func Blake2b256Parts(parts ...[]byte) util.Uint256 {
	var res util.Uint256
	h, err := blake2b.New256(nil)
	if err != nil { // Only possible with a key longer than 64 bytes.
		panic(err)
	}
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	copy(res[:], h.Sum(nil))
	return res
}
