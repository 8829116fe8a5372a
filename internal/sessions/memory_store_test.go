package sessions

import (
	"context"
	"errors"
	"testing"

	"github.com/kinetiq-id/kinetiq/internal/sample"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first, err := s.GetOrCreate(ctx, "sess_1", "user_1", sample.PlatformMobile, TypeOnboarding)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !first.IsActive || first.StartTime.IsZero() {
		t.Errorf("new session should be active with a start time: %+v", first)
	}

	// Second call with different attributes returns the existing session.
	second, err := s.GetOrCreate(ctx, "sess_1", "user_other", sample.PlatformWeb, TypeLogin)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if second.UserID != "user_1" || second.SessionType != TypeOnboarding {
		t.Errorf("existing session was overwritten: %+v", second)
	}
}

func TestGetNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "sess_absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestIncrementDataPoints(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _ = s.GetOrCreate(ctx, "sess_1", "user_1", sample.PlatformMobile, TypeLogin)

	if err := s.IncrementDataPoints(ctx, "sess_1", 4); err != nil {
		t.Fatalf("IncrementDataPoints: %v", err)
	}
	if err := s.IncrementDataPoints(ctx, "sess_1", 3); err != nil {
		t.Fatalf("IncrementDataPoints: %v", err)
	}

	sess, _ := s.Get(ctx, "sess_1")
	if sess.DataPointsCollected != 7 {
		t.Errorf("data points = %d, want 7", sess.DataPointsCollected)
	}

	if err := s.IncrementDataPoints(ctx, "sess_absent", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEndSession(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _ = s.GetOrCreate(ctx, "sess_1", "user_1", sample.PlatformWeb, TypeLogin)

	ended, err := s.End(ctx, "sess_1")
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ended.IsActive || ended.EndTime == nil {
		t.Errorf("ended session should be inactive with an end time: %+v", ended)
	}

	if _, err := s.End(ctx, "sess_1"); !errors.Is(err, ErrEnded) {
		t.Errorf("double end err = %v, want ErrEnded", err)
	}
	if _, err := s.End(ctx, "sess_absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCountActive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _ = s.GetOrCreate(ctx, "sess_1", "user_1", sample.PlatformMobile, TypeLogin)
	_, _ = s.GetOrCreate(ctx, "sess_2", "user_1", sample.PlatformWeb, TypeContinuous)
	_, _ = s.GetOrCreate(ctx, "sess_3", "user_2", sample.PlatformMobile, TypeLogin)
	_, _ = s.End(ctx, "sess_2")

	n, err := s.CountActive(ctx)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if n != 2 {
		t.Errorf("active = %d, want 2", n)
	}
}

func TestListByUser(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _ = s.GetOrCreate(ctx, "sess_1", "user_1", sample.PlatformMobile, TypeLogin)
	_, _ = s.GetOrCreate(ctx, "sess_2", "user_1", sample.PlatformWeb, TypeLogin)
	_, _ = s.GetOrCreate(ctx, "sess_3", "user_2", sample.PlatformMobile, TypeLogin)

	out, err := s.ListByUser(ctx, "user_1", 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	for _, sess := range out {
		if sess.UserID != "user_1" {
			t.Errorf("foreign session in listing: %+v", sess)
		}
	}

	limited, _ := s.ListByUser(ctx, "user_1", 1)
	if len(limited) != 1 {
		t.Errorf("limited len = %d, want 1", len(limited))
	}
}

func TestStoreHandsOutCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, _ = s.GetOrCreate(ctx, "sess_1", "user_1", sample.PlatformMobile, TypeLogin)

	got, _ := s.Get(ctx, "sess_1")
	got.DataPointsCollected = 999

	fresh, _ := s.Get(ctx, "sess_1")
	if fresh.DataPointsCollected != 0 {
		t.Error("caller mutation leaked into the stored session")
	}
}
