package blobcache

import "github.com/ethereum/go-ethereum/metrics"

var (
	hitCounter            = metrics.NewRegisteredCounter("blobcache/hit", nil)
	missCounter           = metrics.NewRegisteredCounter("blobcache/miss", nil)
	evictionCounter       = metrics.NewRegisteredCounter("blobcache/eviction", nil)
	reverifyFailedCounter = metrics.NewRegisteredCounter("blobcache/reverify/fail", nil)
	fetchCounter          = metrics.NewRegisteredCounter("blobcache/fetch", nil)
	fetchFailCounter      = metrics.NewRegisteredCounter("blobcache/fetch/fail", nil)

	entriesGauge = metrics.NewRegisteredGauge("blobcache/entries", nil)
	bytesGauge   = metrics.NewRegisteredGauge("blobcache/bytes", nil)
)
