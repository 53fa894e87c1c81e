package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/atomic"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
	// defaultCacheSize is the number of terminal deploy infos kept by
	// default.
	defaultCacheSize = 1024
)

// ErrUnknownMethod is returned for methods not listed in casperrpc.Methods
// or called over the wrong transport.
var ErrUnknownMethod = errors.New("unknown RPC method")

// Client represents the middleman for executing JSON RPC calls to the node.
// Client is thread-safe and can be used from multiple goroutines, every call
// is a separate HTTP request (or a separate websocket connection for
// streams).
type Client struct {
	cli        *http.Client
	endpoint   *url.URL
	wsEndpoint string
	ctx        context.Context
	opts       Options
	requestF   func(*casperrpc.Request) (*casperrpc.Response, error)

	// deployCache stores FULL deploy infos in terminal states, they can't
	// change anymore.
	deployCache *lru.Cache

	latestReqID *atomic.Uint64
	// getNextRequestID returns an ID to be used for the subsequent request creation.
	// It is defined on Client, so that our testing code can override this method
	// for the sake of more predictable request IDs generation behavior.
	getNextRequestID func() uint64
}

// Options defines options for the RPC client.
// All values are optional. If any duration is not specified,
// a default of 4 seconds will be used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
	// WSEndpoint is the websocket endpoint used for streams, it's derived
	// from the main endpoint (ws(s)://host/ws) when not set.
	WSEndpoint string
	// CacheSize is the number of terminal deploy infos to cache, negative
	// value disables caching.
	CacheSize int
}

// New returns a new Client ready to use.
func New(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	cl := new(Client)
	err := initClient(ctx, cl, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func initClient(ctx context.Context, cl *Client, endpoint string, opts Options) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}
	for m := range casperrpc.Methods {
		if _, ok := rpcCounter[m]; !ok {
			return fmt.Errorf("%w: %s has no metrics", ErrUnknownMethod, m)
		}
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	if opts.WSEndpoint == "" {
		ws := *u
		ws.Scheme = "ws"
		if u.Scheme == "https" {
			ws.Scheme = "wss"
		}
		ws.Path = "/ws"
		opts.WSEndpoint = ws.String()
	}

	if opts.CacheSize == 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.CacheSize > 0 {
		cl.deployCache, _ = lru.New(opts.CacheSize) // Never errors for positive size.
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
		Timeout: opts.RequestTimeout,
	}

	cl.ctx = ctx
	cl.cli = httpClient
	cl.endpoint = u
	cl.wsEndpoint = opts.WSEndpoint
	cl.latestReqID = atomic.NewUint64(0)
	cl.getNextRequestID = (cl).getRequestID
	cl.opts = opts
	cl.requestF = cl.makeHTTPRequest
	return nil
}

func (c *Client) getRequestID() uint64 {
	return c.latestReqID.Inc()
}

// Endpoint returns the client endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Close closes unused underlying networks connections.
func (c *Client) Close() {
	c.cli.CloseIdleConnections()
}

func (c *Client) performRequest(method string, p []any, v any) error {
	if stream, ok := casperrpc.Methods[method]; !ok || stream {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	if p == nil {
		p = []any{}
	}
	var r = casperrpc.Request{
		JSONRPC: casperrpc.JSONRPCVersion,
		Method:  method,
		Params:  p,
		ID:      c.getNextRequestID(),
	}

	start := time.Now()
	raw, err := c.requestF(&r)
	addReqTimeMetric(method, time.Since(start))

	if raw != nil && raw.Error != nil {
		return raw.Error
	} else if err != nil {
		return err
	} else if raw == nil || raw.Result == nil {
		return errors.New("no result returned")
	}
	return json.Unmarshal(raw.Result, v)
}

func (c *Client) makeHTTPRequest(r *casperrpc.Request) (*casperrpc.Response, error) {
	var (
		buf = new(bytes.Buffer)
		raw = new(casperrpc.Response)
	)

	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(c.ctx, "POST", c.endpoint.String(), buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The node might send us a proper JSON anyway, so look there first and if
	// it parses, it has more relevant data than HTTP error code.
	err = json.NewDecoder(resp.Body).Decode(raw)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("HTTP %d/%s", resp.StatusCode, http.StatusText(resp.StatusCode))
		} else {
			err = fmt.Errorf("JSON decoding: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Context returns client instance context.
func (c *Client) Context() context.Context {
	return c.ctx
}
