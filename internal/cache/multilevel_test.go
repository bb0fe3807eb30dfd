package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type projectSnapshot struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	TaskCount     int       `json:"task_count"`
	Collaborators []string  `json:"collaborators"`
}

func sampleSnapshot() projectSnapshot {
	return projectSnapshot{
		ID:            uuid.Must(uuid.NewV4()),
		Name:          "Website Redesign",
		Description:   "Q3 marketing site refresh",
		TaskCount:     7,
		Collaborators: []string{"alice@example.com", "bob@example.com"},
	}
}

func newTestMultiLevel(t *testing.T) (*MultiLevelCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	mlc := NewMultiLevelCache(NewRedisCache(client, "uptask"))
	t.Cleanup(func() { mlc.Close() })
	return mlc, mr
}

func TestCopyValue(t *testing.T) {
	t.Run("scalars", func(t *testing.T) {
		var s string
		if err := copyValue("projects:list", &s); err != nil || s != "projects:list" {
			t.Errorf("string: got %q, err %v", s, err)
		}
		var n int
		if err := copyValue(42, &n); err != nil || n != 42 {
			t.Errorf("int: got %d, err %v", n, err)
		}
	})

	t.Run("struct", func(t *testing.T) {
		src := sampleSnapshot()
		var dst projectSnapshot
		if err := copyValue(src, &dst); err != nil {
			t.Fatalf("copyValue: %v", err)
		}
		if dst.ID != src.ID || dst.Name != src.Name || dst.TaskCount != src.TaskCount {
			t.Errorf("fields lost in copy: got %+v, want %+v", dst, src)
		}
		if len(dst.Collaborators) != 2 || dst.Collaborators[0] != "alice@example.com" {
			t.Errorf("slice lost in copy: %v", dst.Collaborators)
		}
	})

	t.Run("copies are independent", func(t *testing.T) {
		src := sampleSnapshot()
		var dst projectSnapshot
		if err := copyValue(src, &dst); err != nil {
			t.Fatalf("copyValue: %v", err)
		}

		src.Collaborators[0] = "mallory@example.com"
		if dst.Collaborators[0] == "mallory@example.com" {
			t.Error("destination shares backing array with source")
		}
	})

	t.Run("destination must be a non-nil pointer", func(t *testing.T) {
		if err := copyValue("x", "not a pointer"); err == nil {
			t.Error("expected error for non-pointer destination")
		}
		if err := copyValue("x", (*string)(nil)); err == nil {
			t.Error("expected error for nil pointer destination")
		}
	})
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	mc.Set("tasks:count", 12, 25*time.Millisecond)

	var n int
	if err := mc.Get("tasks:count", &n); err != nil || n != 12 {
		t.Fatalf("fresh key: got %d, err %v", n, err)
	}

	time.Sleep(40 * time.Millisecond)
	if err := mc.Get("tasks:count", &n); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expired key: want ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_DeletePattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	mc.Set("projects:p1:tasks", "a", time.Minute)
	mc.Set("projects:p1:team", "b", time.Minute)
	mc.Set("projects:p2:tasks", "c", time.Minute)

	if err := mc.DeletePattern("projects:p1:*"); err != nil {
		t.Fatalf("DeletePattern: %v", err)
	}

	if ok, _ := mc.Exists("projects:p1:tasks"); ok {
		t.Error("projects:p1:tasks survived pattern delete")
	}
	if ok, _ := mc.Exists("projects:p2:tasks"); !ok {
		t.Error("projects:p2:tasks was deleted by an unrelated pattern")
	}
}

func TestMultiLevelCache_SetWritesBothTiers(t *testing.T) {
	mlc, mr := newTestMultiLevel(t)

	snap := sampleSnapshot()
	if err := mlc.Set("projects:"+snap.ID.String(), snap, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if !mr.Exists("uptask:projects:" + snap.ID.String()) {
		t.Error("value was not written through to redis")
	}

	var got projectSnapshot
	if err := mlc.Get("projects:"+snap.ID.String(), &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != snap.Name {
		t.Errorf("got %q, want %q", got.Name, snap.Name)
	}
}

func TestMultiLevelCache_PromotesFromRedis(t *testing.T) {
	mlc, _ := newTestMultiLevel(t)

	snap := sampleSnapshot()
	key := "projects:" + snap.ID.String()
	mlc.Set(key, snap, time.Minute)

	// Simulate a fresh replica: L1 is empty but the shared tier still holds
	// the value.
	mlc.l1.Delete(key)

	var got projectSnapshot
	if err := mlc.Get(key, &got); err != nil {
		t.Fatalf("Get from L2: %v", err)
	}
	if got.ID != snap.ID {
		t.Errorf("got %v, want %v", got.ID, snap.ID)
	}

	if _, found := mlc.l1.lookup(key); !found {
		t.Error("L2 hit was not promoted into L1")
	}
}

func TestMultiLevelCache_MissAndDelete(t *testing.T) {
	mlc, mr := newTestMultiLevel(t)

	var got projectSnapshot
	if err := mlc.Get("projects:absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("absent key: want ErrCacheMiss, got %v", err)
	}

	snap := sampleSnapshot()
	key := "projects:" + snap.ID.String()
	mlc.Set(key, snap, time.Minute)
	if err := mlc.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if mr.Exists("uptask:" + key) {
		t.Error("key survived delete in redis")
	}
	if err := mlc.Get(key, &got); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("deleted key: want ErrCacheMiss, got %v", err)
	}
}

func TestMultiLevelCache_TracksHitsAndMisses(t *testing.T) {
	mlc, _ := newTestMultiLevel(t)

	mlc.Set("k", "v", time.Minute)

	var s string
	mlc.Get("k", &s)
	mlc.Get("k", &s)
	mlc.Get("absent", &s)

	stats := mlc.GetMetrics().GetStats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
}

func TestMultiLevelCache_DegradesWhenRedisDown(t *testing.T) {
	mlc, mr := newTestMultiLevel(t)
	mr.Close()

	// Writes still land in L1 so the local replica keeps its working set.
	if err := mlc.Set("projects:list", "cached", time.Minute); err != nil {
		t.Fatalf("Set with redis down: %v", err)
	}
	var s string
	if err := mlc.Get("projects:list", &s); err != nil || s != "cached" {
		t.Errorf("L1 read with redis down: got %q, err %v", s, err)
	}

	// Reads of keys not in L1 report a miss rather than an outage.
	var other string
	if err := mlc.Get("projects:other", &other); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("want ErrCacheMiss with redis down, got %v", err)
	}

	if err := mlc.Health(); err == nil {
		t.Error("Health should report the redis outage")
	}
}
