package rpcclient

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/casperlabs/casper-go/pkg/casperrpc/result"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Message limit for receiving side.
const wsReadLimit = 10 * 1024 * 1024

// streamMessage is a combined type for notifications and responses since
// we can get any of them from the stream.
type streamMessage struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id,omitempty"`
	Method  string            `json:"method,omitempty"`
	Params  []json.RawMessage `json:"params,omitempty"`
	Error   *casperrpc.Error  `json:"error,omitempty"`
	Result  json.RawMessage   `json:"result,omitempty"`
}

// StreamBlockInfos sends blocks from the top of the DAG going depth ranks
// back (starting at maxRank if it's not zero) to rcvr. It blocks until the
// node ends the stream, the connection is closed before returning. rcvr is
// not closed.
func (c *Client) StreamBlockInfos(depth, maxRank uint32, view casperrpc.View, rcvr chan<- *result.BlockInfo) error {
	req := casperrpc.StreamBlockInfosRequest{Depth: depth, MaxRank: maxRank, View: view}
	return stream(c, casperrpc.StreamBlockInfosMethod, req, casperrpc.BlockInfoEvent, rcvr)
}

// StreamBlockDeploys sends the deploys of the given block to rcvr. It
// blocks until the node ends the stream, the connection is closed before
// returning. rcvr is not closed.
func (c *Client) StreamBlockDeploys(hash string, view casperrpc.View, rcvr chan<- *result.DeployInfo) error {
	req := casperrpc.StreamBlockDeploysRequest{BlockHashBase16: normalizeHash(hash), View: view}
	return stream(c, casperrpc.StreamBlockDeploysMethod, req, casperrpc.DeployInfoEvent, rcvr)
}

func stream[T any](c *Client, method string, param any, event string, rcvr chan<- *T) error {
	start := time.Now()
	defer func() { addReqTimeMetric(method, time.Since(start)) }()

	dialer := websocket.Dialer{HandshakeTimeout: c.opts.DialTimeout}
	ws, resp, err := dialer.DialContext(c.ctx, c.wsEndpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to open stream: %w", err)
	}
	defer ws.Close()
	ws.SetReadLimit(wsReadLimit)

	sub := uuid.NewString()
	req := casperrpc.Request{
		JSONRPC: casperrpc.JSONRPCVersion,
		Method:  method,
		Params:  []any{param, sub},
		ID:      c.getNextRequestID(),
	}
	_ = ws.SetWriteDeadline(time.Now().Add(c.opts.RequestTimeout))
	if err := ws.WriteJSON(req); err != nil {
		return err
	}
	for {
		var msg streamMessage
		_ = ws.SetReadDeadline(time.Now().Add(c.opts.RequestTimeout))
		if err := ws.ReadJSON(&msg); err != nil {
			return fmt.Errorf("stream interrupted: %w", err)
		}
		switch {
		case msg.Error != nil:
			return msg.Error
		case msg.Method == "" && msg.ID != nil:
			// End of stream.
			return nil
		case msg.Method != event || len(msg.Params) != 2:
			return fmt.Errorf("unexpected stream message %q", msg.Method)
		}
		var id string
		if err := json.Unmarshal(msg.Params[0], &id); err != nil || id != sub {
			continue
		}
		item := new(T)
		if err := json.Unmarshal(msg.Params[1], item); err != nil {
			return fmt.Errorf("bad %s: %w", event, err)
		}
		select {
		case rcvr <- item:
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}
