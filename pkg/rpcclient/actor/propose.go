package actor

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/casperlabs/casper-go/pkg/casperrpc/result"
	"github.com/casperlabs/casper-go/pkg/core/deploy"
	"github.com/casperlabs/casper-go/pkg/util"
	"go.uber.org/zap"
)

// SuccessMarker is contained in the node output for successful operations.
const SuccessMarker = "Success!"

// ErrProposeOutputParse is returned when no block hash can be found in
// the propose output.
var ErrProposeOutputParse = errors.New("can't parse propose output")

var blockHashRe = regexp.MustCompile(`Success! Block ([0-9a-fA-F]+)(?:\.\.\.)? created and added`)

// ExitError is a failed command with its status code and output.
type ExitError struct {
	Command string
	Code    int64
	Output  string
	Err     error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Command, e.Code, e.Output)
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// DeployFailedError is returned when the node doesn't acknowledge the
// deploy as successful.
type DeployFailedError struct {
	Output string
}

// Error implements the error interface.
func (e *DeployFailedError) Error() string {
	return "deploy failed: " + e.Output
}

// BlockHashNotFoundError is returned when the deploy was sent and proposed,
// but the block hash can't be found in the propose output.
type BlockHashNotFoundError struct {
	Output string
}

// Error implements the error interface.
func (e *BlockHashNotFoundError) Error() string {
	return "block hash not found in propose output: " + e.Output
}

// ExtractBlockHash returns the block hash from the propose output or an
// empty string if there is none.
func ExtractBlockHash(output string) string {
	m := blockHashRe.FindStringSubmatch(strings.TrimSpace(output))
	if m == nil {
		return ""
	}
	return m[1]
}

// Propose asks the node to propose a block, it returns the node output.
// Any failure is returned as ExitError.
func (a *Actor) Propose() (string, error) {
	out, err := a.client.Propose()
	if err != nil {
		e := &ExitError{Command: "propose", Code: 1, Output: err.Error(), Err: err}
		var rpcErr *casperrpc.Error
		if errors.As(err, &rpcErr) {
			e.Code = rpcErr.Code
			e.Output = rpcErr.Message
		}
		return "", e
	}
	return out, nil
}

// ProposeWithRetry calls Propose until it succeeds making up to maxAttempts
// additional attempts with retryDelay between them, the last error is
// returned if all of them fail. Block hash is extracted from the successful
// output, ErrProposeOutputParse is returned (without retrying) if there is
// none. Only one node can propose at a time, so this method blocks the
// calling goroutine between attempts; ctx allows to interrupt it.
func (a *Actor) ProposeWithRetry(ctx context.Context, maxAttempts int, retryDelay time.Duration) (string, error) {
	h, out, err := a.proposeWithRetry(ctx, maxAttempts, retryDelay)
	if err != nil {
		return "", err
	}
	if h == "" {
		return "", fmt.Errorf("%w: %q", ErrProposeOutputParse, out)
	}
	return h, nil
}

func (a *Actor) proposeWithRetry(ctx context.Context, maxAttempts int, retryDelay time.Duration) (string, string, error) {
	for attempt := 0; ; attempt++ {
		out, err := a.Propose()
		if err == nil {
			return ExtractBlockHash(out), out, nil
		}
		if attempt >= maxAttempts {
			a.log.Debug("could not propose; no more retries", zap.Int("attempts", attempt+1), zap.Error(err))
			return "", "", err
		}
		a.log.Debug("could not propose; retrying later", zap.Int("attempt", attempt+1), zap.Duration("delay", retryDelay), zap.Error(err))
		if serr := a.sleep(ctx, retryDelay); serr != nil {
			return "", "", fmt.Errorf("propose interrupted: %w (last error: %w)", serr, err)
		}
	}
}

// DeployAndPropose sends the deploy (see Deploy), checks that the node
// accepted it and proposes a block returning its hash.
func (a *Actor) DeployAndPropose(p deploy.Params) (string, error) {
	h, ack, err := a.DeployWithAck(p)
	if err != nil {
		return "", err
	}
	if err := a.checkAck(h, ack); err != nil {
		return "", err
	}
	out, err := a.Propose()
	if err != nil {
		return "", err
	}
	return a.blockHash(ExtractBlockHash(out), out)
}

// DeployAndProposeWithRetry is the same as DeployAndPropose, but it uses
// ProposeWithRetry to propose a block.
func (a *Actor) DeployAndProposeWithRetry(ctx context.Context, p deploy.Params, maxAttempts int, retryDelay time.Duration) (string, error) {
	h, ack, err := a.DeployWithAck(p)
	if err != nil {
		return "", err
	}
	return a.ProposeAfterAck(ctx, h, ack, maxAttempts, retryDelay)
}

// ProposeAfterAck proposes a block (see ProposeWithRetry) for the deploy h
// that was already sent with Send, ack is the node acknowledgement of it.
// DeployFailedError is returned if the node didn't accept the deploy and
// BlockHashNotFoundError if the propose output has no block hash.
func (a *Actor) ProposeAfterAck(ctx context.Context, h util.Uint256, ack *result.DeployAck, maxAttempts int, retryDelay time.Duration) (string, error) {
	if err := a.checkAck(h, ack); err != nil {
		return "", err
	}
	block, out, err := a.proposeWithRetry(ctx, maxAttempts, retryDelay)
	if err != nil {
		return "", err
	}
	return a.blockHash(block, out)
}

func (a *Actor) checkAck(h util.Uint256, ack *result.DeployAck) error {
	if !strings.Contains(ack.Message, SuccessMarker) {
		return &DeployFailedError{Output: ack.Message}
	}
	a.log.Debug("deploy sent", zap.Stringer("hash", h))
	return nil
}

func (a *Actor) blockHash(h string, out string) (string, error) {
	if h == "" {
		return "", &BlockHashNotFoundError{Output: out}
	}
	a.log.Info("block created", zap.String("hash", h))
	return h, nil
}
