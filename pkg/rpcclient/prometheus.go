package rpcclient

import (
	"time"

	"github.com/casperlabs/casper-go/pkg/casperrpc"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics used in monitoring service.
var (
	rpcCounter = map[string]prometheus.Counter{}
	rpcTimes   = map[string]prometheus.Histogram{}

	deployCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of deploy infos served from the cache",
			Name:      "deploy_cache_hits",
			Namespace: "casper_client",
		},
	)
)

func addReqTimeMetric(name string, t time.Duration) {
	hist, ok := rpcTimes[name]
	if ok {
		hist.Observe(t.Seconds())
	}
	ctr, ok := rpcCounter[name]
	if ok {
		ctr.Inc()
	}
}

func regCounter(call string) {
	ctr := prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of " + call + " calls made",
			Name:      call + "_called",
			Namespace: "casper_client",
		},
	)
	prometheus.MustRegister(ctr)
	rpcCounter[call] = ctr
	rpcTimes[call] = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Help:      "RPC " + call + " call time",
			Name:      "rpc_" + call + "_time",
			Namespace: "casper_client",
		},
	)
	prometheus.MustRegister(rpcTimes[call])
}

func init() {
	for call := range casperrpc.Methods {
		regCounter(call)
	}
	prometheus.MustRegister(deployCacheHits)
}
