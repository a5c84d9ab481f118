package cache

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"
)

func TestResponseCache_GetSet(t *testing.T) {
	c := New(5*time.Second, 100)

	resp := &CachedResponse{
		Status: http.StatusOK,
		Body:   []byte(`{"result":{"domains":[]}}`),
	}

	key := MakeKey("GET", "/api/v0/listDomains", nil)
	c.Set(key, resp)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Status != http.StatusOK {
		t.Errorf("expected status 200, got %d", got.Status)
	}
	if string(got.Body) != `{"result":{"domains":[]}}` {
		t.Errorf("unexpected body: %s", got.Body)
	}
}

func TestResponseCache_Miss(t *testing.T) {
	c := New(5*time.Second, 100)

	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected cache miss for nonexistent key")
	}
}

func TestResponseCache_TTLExpiration(t *testing.T) {
	c := New(50*time.Millisecond, 100)

	key := MakeKey("GET", "/api/test", nil)
	c.Set(key, &CachedResponse{Status: http.StatusOK, Body: []byte("data")})

	if _, ok := c.Get(key); !ok {
		t.Fatal("expected cache hit before expiry")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := c.Get(key); ok {
		t.Error("expected cache miss after TTL expiration")
	}
	if c.Len() != 0 {
		t.Errorf("expected expired entry removed, got %d entries", c.Len())
	}
}

func TestResponseCache_KeyIncludesBody(t *testing.T) {
	c := New(5*time.Second, 100)

	c.Set(MakeKey("GET", "/api/v0/getUser", []byte(`{"userName":"a"}`)), &CachedResponse{Body: []byte("a")})

	if _, ok := c.Get(MakeKey("GET", "/api/v0/getUser", []byte(`{"userName":"b"}`))); ok {
		t.Error("different request bodies must not share a cache entry")
	}
}

func TestResponseCache_InvalidatePath(t *testing.T) {
	c := New(5*time.Second, 100)
	resp := &CachedResponse{Status: http.StatusOK, Body: []byte("data")}

	c.Set(MakeKey("GET", "/api/v0/listUser", []byte(`{}`)), resp)
	c.Set(MakeKey("GET", "/api/v0/listUser", []byte(`{"page":2}`)), resp)
	c.Set(MakeKey("GET", "/api/v0/listUserAliases", []byte(`{}`)), resp)
	c.Set(MakeKey("GET", "/api/v0/listDomains", []byte(`{}`)), resp)

	c.InvalidatePath("/api/v0/listUser")

	if _, ok := c.Get(MakeKey("GET", "/api/v0/listUser", []byte(`{}`))); ok {
		t.Error("expected /api/v0/listUser entries to be invalidated")
	}
	if _, ok := c.Get(MakeKey("GET", "/api/v0/listUserAliases", []byte(`{}`))); !ok {
		t.Error("expected a path sharing only a prefix to remain")
	}
	if _, ok := c.Get(MakeKey("GET", "/api/v0/listDomains", []byte(`{}`))); !ok {
		t.Error("expected /api/v0/listDomains to remain")
	}
}

func TestResponseCache_MaxEntries(t *testing.T) {
	c := New(5*time.Second, 3)
	resp := &CachedResponse{Status: http.StatusOK, Body: []byte("data")}

	c.Set("key1", resp)
	c.Set("key2", resp)
	c.Set("key3", resp)

	for _, k := range []string{"key1", "key2", "key3"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("expected %s to be in cache", k)
		}
	}

	c.Set("key4", resp)

	if _, ok := c.Get("key1"); ok {
		t.Error("expected key1 to be evicted (oldest entry)")
	}
	if _, ok := c.Get("key4"); !ok {
		t.Error("expected key4 to be in cache")
	}
}

func TestResponseCache_OverwriteExistingKey(t *testing.T) {
	c := New(5*time.Second, 100)

	c.Set("key", &CachedResponse{Body: []byte("v1")})
	c.Set("key", &CachedResponse{Body: []byte("v2")})

	got, ok := c.Get("key")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if string(got.Body) != "v2" {
		t.Errorf("expected updated body v2, got %s", got.Body)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry after overwrite, got %d", c.Len())
	}
}

func TestResponseCache_MaxEntriesZero(t *testing.T) {
	c := New(5*time.Second, 0)
	resp := &CachedResponse{Body: []byte("data")}

	c.Set("key1", resp)
	c.Set("key2", resp)

	if c.Len() > 1 {
		t.Errorf("with maxEntries=0, expected at most 1 item, got %d", c.Len())
	}
}

func TestResponseCache_ThreadSafety(t *testing.T) {
	c := New(5*time.Second, 1000)
	resp := &CachedResponse{Status: http.StatusOK, Body: []byte("data")}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			c.Set(MakeKey("GET", fmt.Sprintf("/api/test/%d", n%26), nil), resp)
		}(i)
		go func(n int) {
			defer wg.Done()
			c.Get(MakeKey("GET", fmt.Sprintf("/api/test/%d", n%26), nil))
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.InvalidatePath(fmt.Sprintf("/api/test/%d", n))
		}(i)
	}

	wg.Wait()
}

func TestMakeKey(t *testing.T) {
	key := MakeKey("GET", "/api/v0/listDomains", []byte(`{}`))
	if key != "GET:/api/v0/listDomains:{}" {
		t.Errorf("unexpected key %q", key)
	}
}
