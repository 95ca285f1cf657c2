package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFor(t *testing.T) {
	assert.Equal(t, Handle("https://example.com/a"), KeyFor("https://EXAMPLE.com/a?x=1#frag"))
	assert.Equal(t, KeyFor("https://example.com"), KeyFor("https://example.com/"))
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, time.Minute)

	h, err := s.Save(ctx, "https://example.com/page?utm=1", "<p>hi</p>")
	require.NoError(t, err)
	assert.Equal(t, KeyFor("https://example.com/page"), h)

	html, ok, err := s.Load(ctx, h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<p>hi</p>", html)

	_, ok, err = s.Load(ctx, KeyFor("https://example.com/missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	stats := s.Stats()
	assert.Equal(t, uint64(1), stats["hits"])
	assert.Equal(t, uint64(1), stats["misses"])
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	h, err := s.Save(ctx, "https://example.com/", "old")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, ok, err := s.Load(ctx, h)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	page := strings.Repeat("x", 1000)
	// room for two entries
	s := NewMemoryStore(2*(1000+entryOverhead+40), time.Minute)

	a, _ := s.Save(ctx, "https://example.com/a", page)
	b, _ := s.Save(ctx, "https://example.com/b", page)

	// touch a so b becomes the oldest
	_, ok, _ := s.Load(ctx, a)
	require.True(t, ok)

	c, _ := s.Save(ctx, "https://example.com/c", page)

	_, ok, _ = s.Load(ctx, b)
	assert.False(t, ok, "b should have been evicted")
	_, ok, _ = s.Load(ctx, a)
	assert.True(t, ok)
	_, ok, _ = s.Load(ctx, c)
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_OverwriteKeepsSizeAccurate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(0, time.Minute)

	h, _ := s.Save(ctx, "https://example.com/", "one")
	_, _ = s.Save(ctx, "https://example.com/", "three")

	html, ok, _ := s.Load(ctx, h)
	assert.True(t, ok)
	assert.Equal(t, "three", html)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, (&memoryEntry{key: h, html: "three"}).size(), s.Stats()["size_bytes"])
}

func TestMemoryStore_OversizedPageIsSkipped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(100, time.Minute)

	h, err := s.Save(ctx, "https://example.com/", strings.Repeat("x", 200))
	require.NoError(t, err)
	_, ok, _ := s.Load(ctx, h)
	assert.False(t, ok)
}

func TestDiskStore_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewDiskStore(filepath.Join(dir, "pages"), time.Hour)
	require.NoError(t, err)

	h, err := s.Save(ctx, "https://example.com/blog/post", "<h1>post</h1>")
	require.NoError(t, err)

	html, ok, err := s.Load(ctx, h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<h1>post</h1>", html)

	_, ok, err = s.Load(ctx, KeyFor("https://example.com/other"))
	require.NoError(t, err)
	assert.False(t, ok)

	entries, err := os.ReadDir(filepath.Join(dir, "pages"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".html"))
}

func TestDiskStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, err := NewDiskStore(t.TempDir(), time.Minute)
	require.NoError(t, err)

	h, err := s.Save(ctx, "https://example.com/", "stale")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, ok, err := s.Load(ctx, h)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileNameFor_Security(t *testing.T) {
	dangerous := []Handle{
		"../../etc/passwd",
		"/etc/shadow",
		"file:with:colons",
		"https://example.com/../../secret",
		"",
	}

	for _, h := range dangerous {
		t.Run(string(h), func(t *testing.T) {
			name := fileNameFor(h)
			assert.NotContains(t, name, "/")
			assert.NotContains(t, name, "\\")
			assert.NotContains(t, name, "..")
			assert.Equal(t, name, filepath.Base(name))
		})
	}

	assert.NotEqual(t, fileNameFor("https://example.com/a?b"), fileNameFor("https://example.com/a_b"))
	assert.LessOrEqual(t, len(fileNameFor(Handle("https://example.com/"+strings.Repeat("a", 500)))), maxStemLength+30)
}

func TestRedisStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewRedisStoreWithClient(db, time.Minute)
	ctx := context.TODO()
	key := redisKeyPrefix + "https://example.com/"

	mock.ExpectSet(key, "<p>x</p>", time.Minute).SetVal("OK")
	h, err := s.Save(ctx, "https://example.com", "<p>x</p>")
	require.NoError(t, err)
	assert.Equal(t, Handle("https://example.com/"), h)

	mock.ExpectGet(key).SetVal("<p>x</p>")
	html, ok, err := s.Load(ctx, h)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "<p>x</p>", html)

	mock.ExpectGet(key).RedisNil()
	_, ok, err = s.Load(ctx, h)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	_, _, err = s.Load(ctx, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get failure")

	mock.ExpectSet(key, "y", time.Minute).SetErr(errors.New("readonly"))
	_, err = s.Save(ctx, "https://example.com/", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set failure")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewFromConfig(t *testing.T) {
	s, err := NewFromConfig(Config{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewFromConfig(Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = NewFromConfig(Config{Type: "Memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewFromConfig(Config{Type: TypeDisk, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &DiskStore{}, s)

	s, err = NewFromConfig(Config{Type: TypeRedis, RedisAddr: "localhost:6379"})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	assert.NoError(t, s.Close())

	_, err = NewFromConfig(Config{Type: TypeDisk})
	assert.Error(t, err)
	_, err = NewFromConfig(Config{Type: TypeRedis})
	assert.Error(t, err)
	_, err = NewFromConfig(Config{Type: "s3"})
	assert.Error(t, err)
}
