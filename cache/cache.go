// Package cache 为渲染结果提供可替换的键值缓存：空实现、本地文件与 Redis。
//
// 所有实现都满足 Cache 接口，键由 Key 生成（xxhash），不同后端之间可以共用。
// 网络类错误以 Retryable 包装，交给 RetryPolicy 决定是否重试。
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Cache 是按字节存取的缓存。Get 未命中时返回 (nil, false, nil)。
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// 缓存后端名称。
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Options 描述如何打开缓存，字段与配置文件中的 [cache] 一一对应。
type Options struct {
	Backend  string
	Dir      string
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Open 按 Options 打开缓存。Backend 为空时等同于 none。
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendNone:
		return NewNullCache(), nil
	case BackendFile:
		if opts.Dir == "" {
			return nil, fmt.Errorf("文件缓存需要指定目录")
		}
		return NewFileCache(opts.Dir)
	case BackendRedis:
		return NewRedisCache(ctx, RedisOptions{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
			Prefix:   opts.Prefix,
		})
	default:
		return nil, fmt.Errorf("未知的缓存后端 %q", opts.Backend)
	}
}
