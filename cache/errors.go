package cache

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

var (
	// ErrNetwork 表示缓存后端不可达或响应超时。
	ErrNetwork = errors.New("缓存后端网络错误")

	// ErrCacheMiss 供需要以错误表达未命中的调用方使用。
	ErrCacheMiss = errors.New("缓存未命中")
)

// RetryableError 标记可以重试的错误。
type RetryableError struct{ Err error }

// Retryable 把 err 标记为可重试；nil 保持为 nil。
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable 报告错误链中是否有 RetryableError。
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryPolicy 以指数退避重试可重试错误。
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	// Jitter 是每次等待时长的随机浮动比例，取值 [0,1]。
	Jitter float64
}

// DefaultRetryPolicy 最多尝试 3 次，首次等待约 1 秒，之后每次翻倍。
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Delay: time.Second, Jitter: 0.2}

// Do 执行 fn，只有被 Retryable 包装的错误才会触发重试。ctx 取消时立即返回 ctx.Err()。
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := max(p.Attempts, 1)
	delay := p.Delay
	var lastErr error

	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else if lastErr = err; !IsRetryable(err) {
			return err
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.wait(delay)):
				delay *= 2
			}
		}
	}
	return lastErr
}

func (p RetryPolicy) wait(delay time.Duration) time.Duration {
	j := min(max(p.Jitter, 0), 1)
	if j == 0 {
		return delay
	}
	return time.Duration(float64(delay) * (1 + j*(2*rand.Float64()-1)))
}

// RetryWithBackoff 使用 DefaultRetryPolicy 执行 fn。
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	return DefaultRetryPolicy.Do(ctx, fn)
}
