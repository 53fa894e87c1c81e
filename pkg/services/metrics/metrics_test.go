package metrics

import (
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/casperlabs/casper-go/pkg/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPrometheusService(t *testing.T) {
	cfg := config.BasicService{Enabled: true, Addresses: []string{"127.0.0.1:0"}}
	srv := NewPrometheusService(cfg, zaptest.NewLogger(t))
	require.Equal(t, "Prometheus", srv.Name())
	require.NoError(t, srv.Start())
	t.Cleanup(srv.ShutDown)

	addrs := srv.Addresses()
	require.Len(t, addrs, 1)
	resp, err := http.Get("http://" + addrs[0] + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "go_goroutines")
}

func TestDisabledService(t *testing.T) {
	srv := NewPrometheusService(config.BasicService{Addresses: []string{"127.0.0.1:0"}}, zaptest.NewLogger(t))
	require.NoError(t, srv.Start())
	require.Equal(t, []string{"127.0.0.1:0"}, srv.Addresses())
	srv.ShutDown()
}

func TestStartBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := config.BasicService{Enabled: true, Addresses: []string{"127.0.0.1:0", ln.Addr().String()}}
	srv := NewPrometheusService(cfg, zaptest.NewLogger(t))
	require.Error(t, srv.Start())
}

func TestNilLogger(t *testing.T) {
	require.Nil(t, NewPrometheusService(config.BasicService{}, nil))
}
