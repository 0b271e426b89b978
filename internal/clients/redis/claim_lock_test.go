package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

func newLocker(t *testing.T) (*miniredis.Miniredis, *ClaimLocker) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb, err := NewClient(context.Background(), mr.Addr(), logger.Nop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewClaimLocker(rdb, time.Minute, logger.Nop())
}

func TestClaimLockerObtainAndRelease(t *testing.T) {
	mr, l := newLocker(t)
	ctx := context.Background()
	key := "langqc:claim:abc:sequencing"

	release, obtained, err := l.Lock(ctx, key)
	if err != nil || !obtained {
		t.Fatalf("first lock: want obtained got obtained=%v err=%v", obtained, err)
	}
	if !mr.Exists(key) {
		t.Fatalf("lock key %q not set", key)
	}

	busyRelease, obtained, err := l.Lock(ctx, key)
	if err != nil {
		t.Fatalf("busy lock: want nil error got %v", err)
	}
	if obtained {
		t.Fatalf("busy lock: want obtained=false")
	}
	busyRelease()
	if !mr.Exists(key) {
		t.Fatalf("releasing a lock that was not obtained removed the key")
	}

	release()
	if mr.Exists(key) {
		t.Fatalf("lock key %q still set after release", key)
	}

	again, obtained, err := l.Lock(ctx, key)
	if err != nil || !obtained {
		t.Fatalf("lock after release: obtained=%v err=%v", obtained, err)
	}
	again()
}

func TestClaimLockerReleaseAfterExpiry(t *testing.T) {
	mr, l := newLocker(t)
	ctx := context.Background()

	release, obtained, err := l.Lock(ctx, "expiring")
	if err != nil || !obtained {
		t.Fatalf("lock: obtained=%v err=%v", obtained, err)
	}
	mr.FastForward(2 * time.Minute)
	if mr.Exists("expiring") {
		t.Fatalf("lock key survived its ttl")
	}
	release()

	other, obtained, err := l.Lock(ctx, "expiring")
	if err != nil || !obtained {
		t.Fatalf("relock after expiry: obtained=%v err=%v", obtained, err)
	}
	other()
}

func TestClaimLockerReportsUnavailableRedis(t *testing.T) {
	mr, l := newLocker(t)
	mr.Close()

	release, obtained, err := l.Lock(context.Background(), "down")
	if err == nil || obtained {
		t.Fatalf("want an error and obtained=false, got obtained=%v err=%v", obtained, err)
	}
	release()
}

func TestNewClientRejectsEmptyAddr(t *testing.T) {
	if _, err := NewClient(context.Background(), "  ", logger.Nop()); err == nil {
		t.Fatalf("empty addr: want error")
	}
}
