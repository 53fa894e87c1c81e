/*
Package casperrpc contains a set of types used for JSON-RPC communication with
the node. It defines basic request/response types, the set of supported
methods, errors and the parameters used by specific requests.
*/
package casperrpc

import (
	"encoding/json"

	"github.com/casperlabs/casper-go/pkg/core/deploy"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"
)

// Supported methods.
const (
	DeployMethod             = "deploy"
	GetDeployInfoMethod      = "get_deploy_info"
	GetBlockInfoMethod       = "get_block_info"
	StreamBlockInfosMethod   = "stream_block_infos"
	StreamBlockDeploysMethod = "stream_block_deploys"
	GetBlockStateMethod      = "get_block_state"
	ProposeMethod            = "propose"
)

// Methods is the closed set of methods the client can call. Streaming
// methods are only available over websocket connections.
var Methods = map[string]bool{
	DeployMethod:             false,
	GetDeployInfoMethod:      false,
	GetBlockInfoMethod:       false,
	StreamBlockInfosMethod:   true,
	StreamBlockDeploysMethod: true,
	GetBlockStateMethod:      false,
	ProposeMethod:            false,
}

type (
	// Request represents JSON-RPC request. Every method takes a single
	// method-specific request object as its first parameter.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific parameters passed to the call.
		Params []any `json:"params"`
		// ID is an identifier associated with this request.
		ID uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0 response.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}

	// Notification is a stream element, it looks like a request without an
	// ID, the first parameter is the stream subscription ID and the second
	// one is the element itself.
	Notification struct {
		JSONRPC string `json:"jsonrpc"`
		Event   string `json:"method"`
		Payload []any  `json:"params"`
	}

	// DeployRequest is the parameter of the deploy method.
	DeployRequest struct {
		Deploy *deploy.Deploy `json:"deploy"`
	}

	// GetDeployInfoRequest is the parameter of the get_deploy_info method.
	GetDeployInfoRequest struct {
		DeployHashBase16 string `json:"deploy_hash_base16"`
		View             View   `json:"view"`
	}

	// GetBlockInfoRequest is the parameter of the get_block_info method.
	GetBlockInfoRequest struct {
		BlockHashBase16 string `json:"block_hash_base16"`
		View            View   `json:"view"`
	}

	// StreamBlockInfosRequest is the parameter of the stream_block_infos
	// method. Depth is the number of ranks to go back from the top, MaxRank
	// (when not zero) is the rank to start from.
	StreamBlockInfosRequest struct {
		Depth   uint32 `json:"depth"`
		MaxRank uint32 `json:"max_rank,omitempty"`
		View    View   `json:"view"`
	}

	// StreamBlockDeploysRequest is the parameter of the stream_block_deploys
	// method.
	StreamBlockDeploysRequest struct {
		BlockHashBase16 string `json:"block_hash_base16"`
		View            View   `json:"view"`
	}

	// GetBlockStateRequest is the parameter of the get_block_state method.
	GetBlockStateRequest struct {
		BlockHashBase16 string     `json:"block_hash_base16"`
		Query           StateQuery `json:"query"`
	}
)

// Event names used in stream notifications.
const (
	BlockInfoEvent  = "block_info"
	DeployInfoEvent = "deploy_info"
)
