/*
Package result contains the results of the RPC calls.
*/
package result

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/casperlabs/casper-go/pkg/core/deploy"
	"github.com/casperlabs/casper-go/pkg/util"
)

// DeployState is the processing state of the deploy.
type DeployState byte

// Deploy states, the numbering follows the node protocol.
const (
	Undefined DeployState = iota
	// Pending deploys are in the deploy buffer waiting to be included.
	Pending
	// Processed deploys are included into some block.
	Processed
	// Finalized deploys are included into a finalized block.
	Finalized
	// Discarded deploys were dropped from the deploy buffer.
	Discarded
)

var deployStateNames = []string{"UNDEFINED", "PENDING", "PROCESSED", "FINALIZED", "DISCARDED"}

// String implements the fmt.Stringer interface.
func (s DeployState) String() string {
	if int(s) < len(deployStateNames) {
		return deployStateNames[s]
	}
	return fmt.Sprintf("DeployState(%d)", byte(s))
}

// IsTerminal returns true for states the deploy can't leave.
func (s DeployState) IsTerminal() bool {
	return s == Finalized || s == Discarded
}

// MarshalJSON implements the json.Marshaler interface.
func (s DeployState) MarshalJSON() ([]byte, error) {
	if int(s) >= len(deployStateNames) {
		return nil, fmt.Errorf("unknown deploy state %d", s)
	}
	return json.Marshal(deployStateNames[s])
}

// UnmarshalJSON implements the json.Unmarshaler interface, both state
// names and numbers are accepted.
func (s *DeployState) UnmarshalJSON(data []byte) error {
	var n byte
	if err := json.Unmarshal(data, &n); err == nil {
		if int(n) >= len(deployStateNames) {
			return fmt.Errorf("unknown deploy state %d", n)
		}
		*s = DeployState(n)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i := range deployStateNames {
		if strings.EqualFold(deployStateNames[i], name) {
			*s = DeployState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown deploy state %q", name)
}

type (
	// DeployAck is returned by the node when the deploy is accepted.
	DeployAck struct {
		DeployHash util.Uint256 `json:"deploy_hash"`
		Message    string       `json:"message"`
	}

	// DeployStatus is the processing status of the deploy.
	DeployStatus struct {
		State   DeployState `json:"state"`
		Message string      `json:"message,omitempty"`
	}

	// ProcessingResult is the outcome of deploy execution in some block.
	ProcessingResult struct {
		BlockHash    util.Uint256 `json:"block_hash"`
		Cost         uint64       `json:"cost"`
		IsError      bool         `json:"is_error"`
		ErrorMessage string       `json:"error_message,omitempty"`
	}

	// DeployInfo is the deploy along with its status and execution results.
	// Deploy body is only present for the full view.
	DeployInfo struct {
		Deploy            *deploy.Deploy     `json:"deploy,omitempty"`
		Status            DeployStatus       `json:"status"`
		ProcessingResults []ProcessingResult `json:"processing_results,omitempty"`
	}
)

// FirstError returns the error message of the first processing result when
// that result is an error.
func (d *DeployInfo) FirstError() (string, bool) {
	if len(d.ProcessingResults) == 0 || !d.ProcessingResults[0].IsError {
		return "", false
	}
	return d.ProcessingResults[0].ErrorMessage, true
}
