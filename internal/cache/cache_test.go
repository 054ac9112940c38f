package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetReadsThroughOnce(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	load := func(ctx context.Context) (any, error) {
		calls++
		return "roster", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Get(context.Background(), "members", load)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v != "roster" {
			t.Fatalf("Get = %v, want roster", v)
		}
	}

	if calls != 1 {
		t.Errorf("loader ran %d times, want 1", calls)
	}
}

func TestGetReloadsAfterTTL(t *testing.T) {
	c := New(10 * time.Millisecond)
	calls := 0
	load := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	c.Get(context.Background(), "members", load)
	time.Sleep(20 * time.Millisecond)
	v, err := c.Get(context.Background(), "members", load)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if v != 2 {
		t.Errorf("Get after TTL = %v, want 2", v)
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	load := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	c.Get(context.Background(), "roles", load)
	c.Invalidate("roles")
	c.Get(context.Background(), "roles", load)

	if calls != 2 {
		t.Errorf("loader ran %d times, want 2", calls)
	}
}

func TestInvalidateFiresCallback(t *testing.T) {
	c := New(time.Minute)

	var invalidated []string
	c.SetInvalidationCallback(func(collection string) {
		invalidated = append(invalidated, collection)
	})

	c.Invalidate("roles")
	c.Invalidate("members")

	if len(invalidated) != 2 || invalidated[0] != "roles" || invalidated[1] != "members" {
		t.Errorf("callback saw %v, want [roles members]", invalidated)
	}
}

func TestGetServesStaleOnLoadError(t *testing.T) {
	c := New(10 * time.Millisecond)
	healthy := true
	load := func(ctx context.Context) (any, error) {
		if !healthy {
			return nil, errors.New("db down")
		}
		return "roster", nil
	}

	c.Get(context.Background(), "members", load)
	healthy = false
	time.Sleep(20 * time.Millisecond)

	v, err := c.Get(context.Background(), "members", load)
	if err != nil {
		t.Fatalf("Get should serve stale entry, got error: %v", err)
	}
	if v != "roster" {
		t.Errorf("Get = %v, want stale roster", v)
	}
}

func TestGetErrorWithNothingCached(t *testing.T) {
	c := New(time.Minute)
	load := func(ctx context.Context) (any, error) {
		return nil, errors.New("db down")
	}

	if _, err := c.Get(context.Background(), "members", load); err == nil {
		t.Error("Get should fail when the loader fails and nothing is cached")
	}
}
