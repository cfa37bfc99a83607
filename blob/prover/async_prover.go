// Package prover dispatches commit and open operations onto a bounded pool
// of goroutines. The kzg engine does no parallel work of its own, so this is
// where throughput comes from.
package prover

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/sourcegraph/conc/stream"

	"github.com/ETHCF/blobkit-sub002/blob/blob_client"
	"github.com/ETHCF/blobkit-sub002/blob/blobcache"
	"github.com/ETHCF/blobkit-sub002/crypto/kzg"
)

var (
	failCounter        = metrics.NewRegisteredCounter("prover/async/fail", nil)
	proveTimer         = metrics.NewRegisteredTimer("prover/async/prove", nil)
	activeWorkersGauge = metrics.NewRegisteredGauge("prover/async/active_workers", nil)
)

// Request asks for the commitment of Blob and, if Point is set, its opening
// at Point.
type Request struct {
	Blob  *kzg.Blob
	Point *big.Int
	Slot  uint64
	Index uint64
}

// Result is the outcome of a successful Request.
type Result struct {
	Request       *Request
	Commitment    kzg.Commitment
	VersionedHash common.Hash
	Proof         kzg.Proof // zero unless Request.Point was set
	Value         *big.Int  // nil unless Request.Point was set
}

// AsyncProver allows a caller to spawn commit/open tasks. Result and failure
// callbacks run one at a time, in the order requests were submitted.
type AsyncProver struct {
	engine    *kzg.Engine
	onResult  func(*Result)
	onFailure func(*Request, error)
	cache     *blobcache.Cache

	workers *stream.Stream
}

func NewAsyncProver(engine *kzg.Engine, numWorkers int) *AsyncProver {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &AsyncProver{
		engine:  engine,
		workers: stream.New().WithMaxGoroutines(numWorkers),
	}
}

func (p *AsyncProver) WithOnResult(onResult func(*Result)) *AsyncProver {
	p.onResult = onResult
	return p
}

func (p *AsyncProver) WithOnFailure(onFailure func(*Request, error)) *AsyncProver {
	p.onFailure = onFailure
	return p
}

// WithCache inserts every successful result into cache, keyed by versioned hash.
func (p *AsyncProver) WithCache(cache *blobcache.Cache) *AsyncProver {
	p.cache = cache
	return p
}

// Wait blocks until every submitted request has been processed and its
// callback has run.
func (p *AsyncProver) Wait() {
	p.workers.Wait()
}

// Prove schedules req. It blocks while all workers are busy.
func (p *AsyncProver) Prove(req *Request) {
	p.workers.Go(func() stream.Callback {
		return p.proverTask(req)
	})
}

func (p *AsyncProver) proverTask(req *Request) stream.Callback {
	activeWorkersGauge.Inc(1)
	proveStart := time.Now()
	defer func() {
		proveTimer.UpdateSince(proveStart)
		activeWorkersGauge.Dec(1)
	}()

	var err error
	failingCallback := func() {
		failCounter.Inc(1)
		log.Debug("Async prove failed", "slot", req.Slot, "index", req.Index, "err", err)
		if p.onFailure != nil {
			p.onFailure(req, err)
		}
	}

	if req.Blob == nil {
		err = kzg.ErrInvalidBlobSize
		return failingCallback
	}
	res := &Result{Request: req}
	if res.Commitment, err = p.engine.Commit(req.Blob[:]); err != nil {
		return failingCallback
	}
	res.VersionedHash = kzg.CalcVersionedHash(&res.Commitment)
	if req.Point != nil {
		if res.Proof, res.Value, err = p.engine.Open(req.Blob[:], req.Point); err != nil {
			return failingCallback
		}
	}

	return func() {
		log.Debug("Async prove done", "versionedHash", res.VersionedHash, "slot", req.Slot, "index", req.Index)
		if p.cache != nil {
			p.cache.Put(res.VersionedHash, &blobcache.Entry{
				VersionedHash: res.VersionedHash,
				Slot:          req.Slot,
				Index:         req.Index,
				Commitment:    res.Commitment,
				Proof:         res.Proof,
				Blob:          req.Blob,
				Source:        blob_client.AnyBlobSource,
			})
		}
		if p.onResult != nil {
			p.onResult(res)
		}
	}
}
