package idgen

import (
	"math/rand"
	"runtime"
	"sync/atomic"
	"time"
)

// Generator produces unique, time-ordered 64-bit ids.
type Generator interface {
	NextID() int64
}

const (
	nodeIDBits   = 10
	sequenceBits = 12

	maxNodeID   = (1 << nodeIDBits) - 1
	maxSequence = (1 << sequenceBits) - 1

	nodeIDShift    = sequenceBits
	timestampShift = nodeIDBits + sequenceBits

	// custom epoch: 2024-01-01T00:00:00Z
	customEpoch = int64(1704067200000)
)

// Snowflake packs a millisecond timestamp, a node id and a per-millisecond
// sequence into one int64. The timestamp/sequence pair lives in a single
// atomic word advanced by a compare-and-swap loop, so concurrent callers
// never serialize on a mutex. Monotonicity is strict: when the wall clock
// runs behind the last issued timestamp the generator busy-waits until the
// clock catches up.
type Snowflake struct {
	nodeID int64
	// state layout: timestamp-since-epoch << sequenceBits | sequence
	state atomic.Int64
}

func NewSnowflake() *Snowflake {
	return &Snowflake{nodeID: rand.Int63n(maxNodeID + 1)}
}

// NewSnowflakeWithNode pins the node id, for deployments that assign one
// per instance instead of picking at random.
func NewSnowflakeWithNode(nodeID int64) *Snowflake {
	return &Snowflake{nodeID: nodeID & maxNodeID}
}

func (s *Snowflake) NextID() int64 {
	for {
		now := time.Now().UnixMilli() - customEpoch
		old := s.state.Load()
		lastTimestamp := old >> sequenceBits
		sequence := old & maxSequence

		var next int64
		switch {
		case now < lastTimestamp:
			// clock rollback: wait for real time to catch up
			runtime.Gosched()
			continue
		case now == lastTimestamp:
			if sequence == maxSequence {
				// sequence exhausted for this millisecond
				runtime.Gosched()
				continue
			}
			next = old + 1
		default:
			next = now << sequenceBits
		}

		if s.state.CompareAndSwap(old, next) {
			timestamp := next >> sequenceBits
			seq := next & maxSequence
			return timestamp<<timestampShift | s.nodeID<<nodeIDShift | seq
		}
	}
}
