package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

const (
	runLockTTL     = 5 * time.Minute
	runLockRefresh = runLockTTL / 3
)

// ErrRunInProgress means another verifier already holds the lock for
// this browser profile.
var ErrRunInProgress = errors.New("another verification run is already using this profile")

// RunLock serializes verification runs per browser profile. A shared
// session is not safely usable by two processes at once, so when Redis
// is configured the lock refuses a second concurrent runner.
type RunLock struct {
	locker *redislock.Client
	key    string

	lock   *redislock.Lock
	cancel context.CancelFunc
}

// NewRunLock creates a run lock scoped to the given profile name.
func NewRunLock(client *redis.Client, profile string) *RunLock {
	return &RunLock{
		locker: redislock.New(client),
		key:    fmt.Sprintf("leadverify:runlock:%s", profile),
	}
}

// Hold obtains the lock and keeps refreshing it in the background until
// Release is called. It does not retry: a held lock means a second
// runner, not contention worth waiting out.
func (l *RunLock) Hold(ctx context.Context) error {
	lock, err := l.locker.Obtain(ctx, l.key, runLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return ErrRunInProgress
	}
	if err != nil {
		return err
	}
	l.lock = lock

	refreshCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go func() {
		ticker := time.NewTicker(runLockRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-ticker.C:
				if err := lock.Refresh(refreshCtx, runLockTTL, nil); err != nil {
					slog.Warn("Failed to refresh run lock", "key", l.key, "error", err)
				}
			}
		}
	}()
	return nil
}

// Release stops the refresher and frees the lock.
func (l *RunLock) Release(ctx context.Context) {
	if l.cancel != nil {
		l.cancel()
	}
	if l.lock == nil {
		return
	}
	if err := l.lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		slog.Warn("Failed to release run lock", "key", l.key, "error", err)
	}
	l.lock = nil
}
