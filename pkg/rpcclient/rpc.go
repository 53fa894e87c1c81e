package rpcclient

import (
	"strings"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/casperlabs/casper-go/pkg/casperrpc/result"
	"github.com/casperlabs/casper-go/pkg/core/deploy"
	"github.com/casperlabs/casper-go/pkg/core/state"
)

// SubmitDeploy sends the signed deploy to the node. It's never retried,
// the node either accepts it (returning an acknowledgement) or returns an
// error.
func (c *Client) SubmitDeploy(d *deploy.Deploy) (*result.DeployAck, error) {
	var (
		params = []any{casperrpc.DeployRequest{Deploy: d}}
		resp   = new(result.DeployAck)
	)
	if err := c.performRequest(casperrpc.DeployMethod, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetDeployInfo returns the deploy status for the given base16 deploy hash.
// FULL infos for finalized and discarded deploys are cached.
func (c *Client) GetDeployInfo(hash string, view casperrpc.View) (*result.DeployInfo, error) {
	key := normalizeHash(hash)
	if view == casperrpc.FullView && c.deployCache != nil {
		if v, ok := c.deployCache.Get(key); ok {
			deployCacheHits.Inc()
			return v.(*result.DeployInfo), nil
		}
	}
	var (
		params = []any{casperrpc.GetDeployInfoRequest{DeployHashBase16: key, View: view}}
		resp   = new(result.DeployInfo)
	)
	if err := c.performRequest(casperrpc.GetDeployInfoMethod, params, resp); err != nil {
		return nil, err
	}
	if view == casperrpc.FullView && c.deployCache != nil && resp.Status.State.IsTerminal() {
		c.deployCache.Add(key, resp)
	}
	return resp, nil
}

// GetBlockInfo returns the block with the given base16 hash (or its
// prefix).
func (c *Client) GetBlockInfo(hash string, view casperrpc.View) (*result.BlockInfo, error) {
	var (
		params = []any{casperrpc.GetBlockInfoRequest{BlockHashBase16: normalizeHash(hash), View: view}}
		resp   = new(result.BlockInfo)
	)
	if err := c.performRequest(casperrpc.GetBlockInfoMethod, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetBlockState queries the global state as of the given block.
func (c *Client) GetBlockState(blockHash string, q casperrpc.StateQuery) (*state.StoredValue, error) {
	var (
		params = []any{casperrpc.GetBlockStateRequest{BlockHashBase16: normalizeHash(blockHash), Query: q}}
		resp   = new(state.StoredValue)
	)
	if err := c.performRequest(casperrpc.GetBlockStateMethod, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Propose asks the node to create a block from the deploys it has and
// returns the node's output message.
func (c *Client) Propose() (string, error) {
	var resp = new(result.ProposeResult)
	if err := c.performRequest(casperrpc.ProposeMethod, nil, resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// GetBlockInfos returns blocks from the top of the DAG going depth ranks
// back, see StreamBlockInfos.
func (c *Client) GetBlockInfos(depth, maxRank uint32, view casperrpc.View) ([]*result.BlockInfo, error) {
	return collect(func(ch chan<- *result.BlockInfo) error {
		return c.StreamBlockInfos(depth, maxRank, view, ch)
	})
}

// GetBlockDeploys returns the deploys of the given block, see
// StreamBlockDeploys.
func (c *Client) GetBlockDeploys(hash string, view casperrpc.View) ([]*result.DeployInfo, error) {
	return collect(func(ch chan<- *result.DeployInfo) error {
		return c.StreamBlockDeploys(hash, view, ch)
	})
}

func collect[T any](f func(chan<- *T) error) ([]*T, error) {
	var (
		res   []*T
		ch    = make(chan *T)
		errCh = make(chan error, 1)
	)
	go func() {
		errCh <- f(ch)
		close(ch)
	}()
	for item := range ch {
		res = append(res, item)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return res, nil
}

func normalizeHash(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "0x"))
}
