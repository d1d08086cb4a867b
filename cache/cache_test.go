package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Fatalf("空缓存应总是未命中: %v %v %v", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "render:1"); hit {
		t.Fatalf("新缓存不应命中")
	}
	if err := c.Set(ctx, "render:1", []byte("page"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "render:1")
	if err != nil || !hit || string(data) != "page" {
		t.Fatalf("读取结果错误: %q %v %v", data, hit, err)
	}
	if err := c.Delete(ctx, "render:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "render:1"); hit {
		t.Fatalf("删除后不应命中")
	}
	if err := c.Delete(ctx, "render:1"); err != nil {
		t.Fatalf("重复删除不应报错: %v", err)
	}
}

func TestFileCacheExpiryAndCorruption(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	fc := c.(*FileCache)

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Fatalf("过期条目不应命中")
	}
	if _, err := os.Stat(fc.path("old")); !os.IsNotExist(err) {
		t.Fatalf("过期条目应被删除")
	}

	path := fc.path("bad")
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Fatalf("损坏条目应视为未命中: %v %v", hit, err)
	}
}

func TestKey(t *testing.T) {
	a := Key("render", "text", 42)
	b := Key("render", "text", 42)
	c := Key("render", "text", 43)
	if a != b {
		t.Fatalf("相同输入应得到相同的键")
	}
	if a == c {
		t.Fatalf("不同输入应得到不同的键")
	}
	if len(a) != len("render:")+16 || a[:7] != "render:" {
		t.Fatalf("键格式错误: %s", a)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	c, err := Open(ctx, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, ok := c.(*NullCache); !ok {
		t.Fatalf("默认应为空缓存，实际 %T", c)
	}
	c, err = Open(ctx, Options{Backend: "file", Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Fatalf("期望文件缓存，实际 %T", c)
	}
	if _, err := Open(ctx, Options{Backend: "file"}); err == nil {
		t.Fatalf("文件缓存缺少目录时应报错")
	}
	if _, err := Open(ctx, Options{Backend: "memcached"}); err == nil {
		t.Fatalf("未知后端应报错")
	}
}

func TestRedisUnreachableIsRetryable(t *testing.T) {
	ctx := context.Background()
	_, err := NewRedisCache(ctx, RedisOptions{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond})
	if err == nil {
		t.Fatalf("无法连接时应返回错误")
	}
	if !IsRetryable(err) || !errors.Is(err, ErrNetwork) {
		t.Fatalf("连接错误应可重试且属于网络错误: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	c := NewRedisCacheFromClient(client, "quill:")
	defer c.Close()
	if _, _, err := c.Get(ctx, "k"); !IsRetryable(err) {
		t.Fatalf("Get 的网络错误应可重试: %v", err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); !IsRetryable(err) {
		t.Fatalf("Set 的网络错误应可重试: %v", err)
	}
}

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()
	p := RetryPolicy{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := p.Do(ctx, func() error {
		calls++
		if calls < 3 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("应在第三次成功: err=%v calls=%d", err, calls)
	}

	calls = 0
	plain := errors.New("boom")
	if err := p.Do(ctx, func() error { calls++; return plain }); err != plain || calls != 1 {
		t.Fatalf("不可重试错误应立即返回: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = p.Do(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if !errors.Is(err, ErrNetwork) || calls != 3 {
		t.Fatalf("重试耗尽后应返回最后的错误: err=%v calls=%d", err, calls)
	}
}

func TestRetryPolicyContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RetryWithBackoff(ctx, func() error { return Retryable(ErrNetwork) })
	if err != context.Canceled {
		t.Fatalf("应返回上下文错误: %v", err)
	}
}

func TestRetryableNil(t *testing.T) {
	if Retryable(nil) != nil {
		t.Fatalf("Retryable(nil) 应为 nil")
	}
	err := Retryable(ErrNetwork)
	if err.Error() != ErrNetwork.Error() {
		t.Fatalf("错误消息应保持不变: %s", err)
	}
}

func TestRetryJitterStaysInRange(t *testing.T) {
	p := RetryPolicy{Delay: 100 * time.Millisecond, Jitter: 0.5}
	for i := 0; i < 100; i++ {
		if d := p.wait(p.Delay); d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("等待时长超出浮动范围: %v", d)
		}
	}
	if d := (RetryPolicy{Jitter: 3}).wait(time.Second); d < 0 || d > 2*time.Second {
		t.Fatalf("浮动比例应被限制在 [0,1]: %v", d)
	}
	if d := (RetryPolicy{}).wait(time.Second); d != time.Second {
		t.Fatalf("无浮动时应原样等待: %v", d)
	}
}
