package result

import (
	"github.com/casperlabs/casper-go/pkg/crypto/keys"
	"github.com/casperlabs/casper-go/pkg/util"
)

type (
	// BlockHeader is the header of the block.
	BlockHeader struct {
		ParentHashes       []util.Uint256  `json:"parent_hashes"`
		StateRootHash      util.Uint256    `json:"state_root_hash"`
		BodyHash           util.Uint256    `json:"body_hash"`
		Timestamp          uint64          `json:"timestamp"`
		ProtocolVersion    uint32          `json:"protocol_version"`
		DeployCount        uint32          `json:"deploy_count"`
		ChainName          string          `json:"chain_name"`
		ValidatorPublicKey *keys.PublicKey `json:"validator_public_key,omitempty"`
		Rank               uint64          `json:"rank"`
	}

	// BlockSummary is the block hash with its header.
	BlockSummary struct {
		BlockHash util.Uint256 `json:"block_hash"`
		Header    BlockHeader  `json:"header"`
	}

	// BlockStats is the block statistics, only present for the full view.
	BlockStats struct {
		BlockSizeBytes   uint32 `json:"block_size_bytes"`
		DeployErrorCount uint32 `json:"deploy_error_count"`
		DeployCostTotal  uint64 `json:"deploy_cost_total"`
	}

	// BlockStatus is the block state as seen by the node.
	BlockStatus struct {
		FaultTolerance float32     `json:"fault_tolerance"`
		Stats          *BlockStats `json:"stats,omitempty"`
	}

	// BlockInfo is the block summary with its status.
	BlockInfo struct {
		Summary BlockSummary `json:"summary"`
		Status  BlockStatus  `json:"status"`
	}

	// ProposeResult is the outcome of the propose call, Message is the
	// human-readable node output.
	ProposeResult struct {
		BlockHash util.Uint256 `json:"block_hash"`
		Message   string       `json:"message"`
	}
)
