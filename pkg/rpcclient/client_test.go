package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/casperlabs/casper-go/pkg/casperrpc/result"
	"github.com/casperlabs/casper-go/pkg/core/deploy"
	"github.com/casperlabs/casper-go/pkg/util"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// testRequest is a server-side view of the request.
type testRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      uint64            `json:"id"`
}

type handler func(t *testing.T, r *testRequest) (any, *casperrpc.Error)

func initTestServer(t *testing.T, h handler) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r := new(testRequest)
		if err := json.NewDecoder(req.Body).Decode(r); err != nil {
			t.Errorf("cannot decode request body: %s", err)
			return
		}
		writeResponse(t, w, r, h)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeResponse(t *testing.T, w http.ResponseWriter, r *testRequest, h handler) {
	res, rpcErr := h(t, r)
	resp := map[string]any{"jsonrpc": "2.0", "id": r.ID}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = res
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func newTestClient(t *testing.T, endpoint string) *Client {
	c, err := New(context.TODO(), endpoint, Options{})
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestGetEndpoint(t *testing.T) {
	host := "http://localhost:1234"
	u, err := url.Parse(host)
	require.NoError(t, err)
	client := Client{
		endpoint: u,
	}
	require.Equal(t, host, client.Endpoint())
}

func TestNew(t *testing.T) {
	_, err := New(context.TODO(), "ftp://localhost", Options{})
	require.Error(t, err)
	_, err = New(context.TODO(), ":bad", Options{})
	require.Error(t, err)

	c, err := New(context.TODO(), "https://node.example:7777/rpc", Options{})
	require.NoError(t, err)
	require.Equal(t, "wss://node.example:7777/ws", c.wsEndpoint)
	require.Equal(t, defaultRequestTimeout, c.opts.RequestTimeout)
	require.NotNil(t, c.deployCache)

	c, err = New(context.TODO(), "http://localhost", Options{WSEndpoint: "ws://localhost:1/stream", CacheSize: -1})
	require.NoError(t, err)
	require.Equal(t, "ws://localhost:1/stream", c.wsEndpoint)
	require.Nil(t, c.deployCache)
}

func TestRequestIDs(t *testing.T) {
	var last uint64
	srv := initTestServer(t, func(t *testing.T, r *testRequest) (any, *casperrpc.Error) {
		require.Greater(t, r.ID, last)
		last = r.ID
		return result.ProposeResult{Message: "ok"}, nil
	})
	c := newTestClient(t, srv.URL)
	for i := 0; i < 3; i++ {
		_, err := c.Propose()
		require.NoError(t, err)
	}
	require.EqualValues(t, 3, last)
}

func TestSubmitDeploy(t *testing.T) {
	d, err := deploy.Build(deploy.Params{Session: deploy.CodeRef{Name: "counter"}, Timestamp: time.Unix(1, 0)})
	require.NoError(t, err)
	d.DeployHash = util.Uint256{0xde, 0xad, 0xbe, 0xef}

	srv := initTestServer(t, func(t *testing.T, r *testRequest) (any, *casperrpc.Error) {
		require.Equal(t, casperrpc.DeployMethod, r.Method)
		require.Equal(t, casperrpc.JSONRPCVersion, r.JSONRPC)
		require.Len(t, r.Params, 1)
		var req casperrpc.DeployRequest
		require.NoError(t, json.Unmarshal(r.Params[0], &req))
		return result.DeployAck{DeployHash: req.Deploy.DeployHash, Message: "Success!"}, nil
	})
	c := newTestClient(t, srv.URL)
	ack, err := c.SubmitDeploy(d)
	require.NoError(t, err)
	require.Equal(t, d.DeployHash, ack.DeployHash)
	require.Equal(t, "Success!", ack.Message)
}

func TestRPCError(t *testing.T) {
	srv := initTestServer(t, func(t *testing.T, r *testRequest) (any, *casperrpc.Error) {
		return nil, casperrpc.NewError(casperrpc.InvalidParamsCode, "Invalid Params", "bad hash")
	})
	c := newTestClient(t, srv.URL)
	_, err := c.GetBlockInfo("00", casperrpc.BasicView)
	var rpcErr *casperrpc.Error
	require.True(t, errors.As(err, &rpcErr))
	require.EqualValues(t, casperrpc.InvalidParamsCode, rpcErr.Code)
	require.Equal(t, "bad hash", rpcErr.Data)
}

func TestHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)
	_, err := c.Propose()
	require.ErrorContains(t, err, "HTTP 502")
}

func TestNoResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1}`))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)
	_, err := c.Propose()
	require.ErrorContains(t, err, "no result")
}

func TestUnknownMethod(t *testing.T) {
	c := newTestClient(t, "http://localhost")
	require.ErrorIs(t, c.performRequest("get_peers", nil, new(any)), ErrUnknownMethod)
	require.ErrorIs(t, c.performRequest(casperrpc.StreamBlockInfosMethod, nil, new(any)), ErrUnknownMethod)
}

func TestGetDeployInfoCache(t *testing.T) {
	var (
		calls = atomic.NewInt32(0)
		state = result.Processed
	)
	srv := initTestServer(t, func(t *testing.T, r *testRequest) (any, *casperrpc.Error) {
		calls.Inc()
		require.Equal(t, casperrpc.GetDeployInfoMethod, r.Method)
		var req casperrpc.GetDeployInfoRequest
		require.NoError(t, json.Unmarshal(r.Params[0], &req))
		require.Equal(t, "abcd", req.DeployHashBase16)
		return result.DeployInfo{Status: result.DeployStatus{State: state}}, nil
	})
	c := newTestClient(t, srv.URL)

	info, err := c.GetDeployInfo("0xABCD", casperrpc.FullView)
	require.NoError(t, err)
	require.Equal(t, result.Processed, info.Status.State)
	_, err = c.GetDeployInfo("abcd", casperrpc.FullView)
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	state = result.Finalized
	for i := 0; i < 3; i++ {
		info, err = c.GetDeployInfo("abcd", casperrpc.FullView)
		require.NoError(t, err)
		require.Equal(t, result.Finalized, info.Status.State)
	}
	require.EqualValues(t, 3, calls.Load())

	_, err = c.GetDeployInfo("abcd", casperrpc.BasicView)
	require.NoError(t, err)
	require.EqualValues(t, 4, calls.Load())
}

func TestGetBlockState(t *testing.T) {
	srv := initTestServer(t, func(t *testing.T, r *testRequest) (any, *casperrpc.Error) {
		require.Equal(t, casperrpc.GetBlockStateMethod, r.Method)
		var req casperrpc.GetBlockStateRequest
		require.NoError(t, json.Unmarshal(r.Params[0], &req))
		require.Equal(t, "ff00", req.BlockHashBase16)
		require.Equal(t, casperrpc.AddressKeyVariant, req.Query.KeyVariant)
		require.Equal(t, []string{"counter", "count"}, req.Query.PathSegments)
		return json.RawMessage(`{"int_value":5}`), nil
	})
	c := newTestClient(t, srv.URL)
	q, err := casperrpc.NewStateQuery("aa", "counter/count", "address")
	require.NoError(t, err)
	v, err := c.GetBlockState("FF00", q)
	require.NoError(t, err)
	require.NotNil(t, v.Value)
	require.Equal(t, int32(5), v.Value.Value)
}

func TestConcurrentCalls(t *testing.T) {
	srv := initTestServer(t, func(t *testing.T, r *testRequest) (any, *casperrpc.Error) {
		var req casperrpc.GetBlockInfoRequest
		require.NoError(t, json.Unmarshal(r.Params[0], &req))
		h, err := util.Uint256DecodeStringBE(req.BlockHashBase16)
		require.NoError(t, err)
		return result.BlockInfo{Summary: result.BlockSummary{BlockHash: h}}, nil
	})
	c := newTestClient(t, srv.URL)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := util.Uint256{byte(i)}
			b, err := c.GetBlockInfo(h.StringBE(), casperrpc.BasicView)
			require.NoError(t, err)
			require.Equal(t, h, b.Summary.BlockHash)
		}(i)
	}
	wg.Wait()
}

// initStreamServer serves stream requests over websocket sending items as
// notifications for the subscription from the request, one foreign
// notification is mixed in.
func initStreamServer(t *testing.T, event string, items []any, streamErr *casperrpc.Error) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/ws", req.URL.Path)
		var upgrader = websocket.Upgrader{}
		ws, err := upgrader.Upgrade(w, req, nil)
		require.NoError(t, err)
		defer ws.Close()

		r := new(testRequest)
		_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, ws.ReadJSON(r))
		require.Len(t, r.Params, 2)
		var sub string
		require.NoError(t, json.Unmarshal(r.Params[1], &sub))

		// The client may hang up early, write errors are not test failures.
		if ws.WriteJSON(casperrpc.Notification{
			JSONRPC: casperrpc.JSONRPCVersion,
			Event:   event,
			Payload: []any{"other", items[0]},
		}) != nil {
			return
		}
		for _, item := range items {
			if ws.WriteJSON(casperrpc.Notification{
				JSONRPC: casperrpc.JSONRPCVersion,
				Event:   event,
				Payload: []any{sub, item},
			}) != nil {
				return
			}
		}
		end := map[string]any{"jsonrpc": "2.0", "id": r.ID, "result": len(items)}
		if streamErr != nil {
			end = map[string]any{"jsonrpc": "2.0", "id": r.ID, "error": streamErr}
		}
		if ws.WriteJSON(end) != nil {
			return
		}
		// Wait for the client to close the connection.
		_, _, _ = ws.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetBlockInfos(t *testing.T) {
	var items []any
	for i := 0; i < 3; i++ {
		items = append(items, result.BlockInfo{
			Summary: result.BlockSummary{
				BlockHash: util.Uint256{byte(i + 1)},
				Header:    result.BlockHeader{Rank: uint64(10 - i)},
			},
		})
	}
	srv := initStreamServer(t, casperrpc.BlockInfoEvent, items, nil)
	c := newTestClient(t, srv.URL)

	blocks, err := c.GetBlockInfos(3, 0, casperrpc.BasicView)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	for i, b := range blocks {
		require.Equal(t, util.Uint256{byte(i + 1)}, b.Summary.BlockHash)
		require.EqualValues(t, 10-i, b.Summary.Header.Rank)
	}
}

func TestGetBlockDeploys(t *testing.T) {
	items := []any{
		result.DeployInfo{Status: result.DeployStatus{State: result.Processed}},
		result.DeployInfo{Status: result.DeployStatus{State: result.Finalized}},
	}
	srv := initStreamServer(t, casperrpc.DeployInfoEvent, items, nil)
	c := newTestClient(t, srv.URL)

	deploys, err := c.GetBlockDeploys("aa", casperrpc.FullView)
	require.NoError(t, err)
	require.Len(t, deploys, 2)
	require.Equal(t, result.Finalized, deploys[1].Status.State)
}

func TestStreamErrors(t *testing.T) {
	t.Run("rpc error", func(t *testing.T) {
		items := []any{result.DeployInfo{}}
		srv := initStreamServer(t, casperrpc.DeployInfoEvent, items, casperrpc.NewError(-1, "no such block", ""))
		c := newTestClient(t, srv.URL)
		ch := make(chan *result.DeployInfo, 10)
		err := c.StreamBlockDeploys("aa", casperrpc.BasicView, ch)
		var rpcErr *casperrpc.Error
		require.True(t, errors.As(err, &rpcErr))
		require.Len(t, ch, 1)
	})
	t.Run("wrong event", func(t *testing.T) {
		items := []any{result.BlockInfo{}}
		srv := initStreamServer(t, casperrpc.BlockInfoEvent, items, nil)
		c := newTestClient(t, srv.URL)
		_, err := c.GetBlockDeploys("aa", casperrpc.BasicView)
		require.Error(t, err)
	})
	t.Run("no server", func(t *testing.T) {
		c, err := New(context.TODO(), "http://localhost", Options{WSEndpoint: "ws://127.0.0.1:1/ws"})
		require.NoError(t, err)
		_, err = c.GetBlockInfos(1, 0, casperrpc.BasicView)
		require.Error(t, err)
	})
}

func ExampleClient_GetBlockInfos() {
	c, err := New(context.Background(), "http://localhost:40403", Options{})
	if err != nil {
		panic(err)
	}
	blocks, err := c.GetBlockInfos(10, 0, casperrpc.BasicView)
	if err != nil {
		panic(err)
	}
	for _, b := range blocks {
		fmt.Println(b.Summary.BlockHash.Short(), b.Summary.Header.Rank)
	}
}
