package miner

import (
	"testing"

	"github.com/motorcyle-spec/TrinityChain/internal/chain"
	"github.com/motorcyle-spec/TrinityChain/internal/errs"
)

func template(difficulty uint64) chain.Header {
	return chain.Header{Height: 1, Timestamp: 1_704_067_260, Difficulty: difficulty}
}

func TestMineFindsValidNonce(t *testing.T) {
	h, err := Mine(template(1), nil)
	if err != nil {
		t.Fatalf("Mine: %v", err)
	}
	if !chain.CheckProofOfWork(h.CanonicalHash(), h.Difficulty) {
		t.Fatalf("returned header does not satisfy its own difficulty")
	}
}

func TestMineRespectsStopSignal(t *testing.T) {
	var stop StopSignal
	stop.Stop()
	_, err := Mine(template(64), &stop)
	if !errs.Is(err, errs.ErrCancelled) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
}

func TestMineParallelFindsValidNonce(t *testing.T) {
	h, err := MineParallel(template(1), nil, 4)
	if err != nil {
		t.Fatalf("MineParallel: %v", err)
	}
	if !chain.CheckProofOfWork(h.CanonicalHash(), h.Difficulty) {
		t.Fatalf("returned header does not satisfy its own difficulty")
	}
}

func TestMineParallelRespectsStopSignal(t *testing.T) {
	var stop StopSignal
	stop.Stop()
	_, err := MineParallel(template(64), &stop, 4)
	if !errs.Is(err, errs.ErrCancelled) {
		t.Fatalf("expected Cancelled, got %v", err)
	}
}
