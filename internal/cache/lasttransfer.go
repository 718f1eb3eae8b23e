package cache

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/blake2b"

	"transfer-status-backend/internal/utils"
)

// KeyPrefix namespaces hand-off entries.
const KeyPrefix = "last_transfer:"

// LastTransfer is the hand-off slot between the submission flow and the status
// pages. Failures never reach the page flow: reads degrade to a miss and writes
// are logged.
type LastTransfer struct {
	store  Store
	ttl    time.Duration
	logger *utils.Logger

	// OnError, when set, observes every swallowed failure.
	OnError func(op string, err error)
}

// NewLastTransfer wraps store.
func NewLastTransfer(store Store, ttl time.Duration) *LastTransfer {
	return &LastTransfer{
		store:  store,
		ttl:    ttl,
		logger: utils.CacheLogger,
	}
}

// Key derives the storage key for a session. Raw session tokens are never stored.
func Key(session string) string {
	sum := blake2b.Sum256([]byte(session))
	return KeyPrefix + hex.EncodeToString(sum[:16])
}

// Load returns the raw entry for session, or false when absent or unreadable.
func (l *LastTransfer) Load(ctx context.Context, session string) ([]byte, bool) {
	if session == "" {
		return nil, false
	}
	raw, ok, err := l.store.Get(ctx, Key(session))
	if err != nil {
		l.fail("load", err)
		return nil, false
	}
	if !ok || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

// Save writes the entry in the background. The returned channel is closed once
// the write has finished.
func (l *LastTransfer) Save(ctx context.Context, session string, raw []byte) <-chan struct{} {
	done := make(chan struct{})
	if session == "" {
		close(done)
		return done
	}
	value := make([]byte, len(raw))
	copy(value, raw)
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		if err := l.store.Set(ctx, Key(session), value, l.ttl); err != nil {
			l.fail("save", err)
		}
	}()
	return done
}

// Clear removes the entry for session.
func (l *LastTransfer) Clear(ctx context.Context, session string) {
	if session == "" {
		return
	}
	if err := l.store.Delete(ctx, Key(session)); err != nil {
		l.fail("clear", err)
	}
}

func (l *LastTransfer) fail(op string, err error) {
	l.logger.Warn("last_transfer %s failed: %v", op, err)
	if l.OnError != nil {
		l.OnError(op, err)
	}
}
