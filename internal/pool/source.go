package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// ErrPoolNotFound is returned by a snapshot source when the pool's on-chain
// state does not exist yet (unbootstrapped).
var ErrPoolNotFound = errors.New("pool state not found")

// PoolKey identifies one pool to a snapshot source.
type PoolKey struct {
	Asset1ID uint64
	Asset2ID uint64
	AppID    uint64
}

func (k PoolKey) String() string {
	return fmt.Sprintf("pool(%d/%d app=%d)", k.Asset1ID, k.Asset2ID, k.AppID)
}

// SnapshotSource reads the decoded pool state for one pool at the current
// ledger round. Implementations own all networking, timeouts and decoding;
// the engine only requires integer fields and a non-decreasing round.
type SnapshotSource interface {
	FetchPoolState(ctx context.Context, key PoolKey) (*PoolState, error)
}

// FileSource reads pool state from a JSON file. Useful for the CLI and for
// replaying captured states in tests.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (fs *FileSource) FetchPoolState(_ context.Context, key PoolKey) (*PoolState, error) {
	raw, err := os.ReadFile(fs.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrPoolNotFound)
		}
		return nil, fmt.Errorf("read snapshot file %s: %w", fs.Path, err)
	}
	var state PoolState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot file %s: %w", fs.Path, err)
	}
	if state.Asset1ID != key.Asset1ID || state.Asset2ID != key.Asset2ID {
		return nil, fmt.Errorf("snapshot file %s holds pool %d/%d, want %s: %w",
			fs.Path, state.Asset1ID, state.Asset2ID, key, ErrPoolNotFound)
	}
	return &state, nil
}

// RetrySource decorates a source with exponential-backoff retries. A
// not-found result is treated as permanent: an unbootstrapped pool is an
// answer, not a transient failure.
type RetrySource struct {
	src          SnapshotSource
	logger       *zap.Logger
	maxTries     uint
	initialDelay time.Duration
}

func NewRetrySource(src SnapshotSource, logger *zap.Logger, maxTries uint, initialDelay time.Duration) *RetrySource {
	if maxTries == 0 {
		maxTries = 3
	}
	if initialDelay <= 0 {
		initialDelay = time.Second
	}
	return &RetrySource{
		src:          src,
		logger:       logger.Named("snapshot_source"),
		maxTries:     maxTries,
		initialDelay: initialDelay,
	}
}

func (rs *RetrySource) FetchPoolState(ctx context.Context, key PoolKey) (*PoolState, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = rs.initialDelay
	policy.MaxInterval = rs.initialDelay * 10

	notify := func(err error, wait time.Duration) {
		rs.logger.Info("Retrying pool state fetch",
			zap.String("pool", key.String()),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	operation := func() (*PoolState, error) {
		state, err := rs.src.FetchPoolState(ctx, key)
		if errors.Is(err, ErrPoolNotFound) {
			return nil, backoff.Permanent(err)
		}
		return state, err
	}

	state, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(rs.maxTries),
		backoff.WithNotify(notify))
	if err != nil {
		if !errors.Is(err, ErrPoolNotFound) {
			rs.logger.Error("Pool state fetch failed after retries",
				zap.String("pool", key.String()), zap.Error(err))
		}
		return nil, err
	}
	return state, nil
}
