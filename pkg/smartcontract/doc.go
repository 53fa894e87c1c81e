/*
Package smartcontract contains the typed values passed to contracts as
session and payment arguments and the global state keys they may refer to.
Both have a canonical binary encoding used for deploy hashing and a JSON
form used by the RPC service and command line tools.
*/
package smartcontract
