package apiclient

import (
	"math"
	"net/http"
	"net/url"
	"time"
)

// RetryPolicy はリトライ・タイムアウトの設定。
// クライアントごとに1つ。呼び出しごとに上書きできる。
type RetryPolicy struct {
	MaxRetries        int
	BaseDelay         time.Duration
	Timeout           time.Duration
	RetryableStatuses []int
}

// DefaultRetryPolicy はバックエンドの規約に合わせた既定値。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Timeout:    30 * time.Second,
		RetryableStatuses: []int{
			http.StatusRequestTimeout,      // 408
			http.StatusTooManyRequests,     // 429
			http.StatusInternalServerError, // 500
			http.StatusBadGateway,          // 502
			http.StatusServiceUnavailable,  // 503
			http.StatusGatewayTimeout,      // 504
		},
	}
}

// IsRetryableStatus はHTTPステータスが再試行対象か
func (p RetryPolicy) IsRetryableStatus(status int) bool {
	for _, s := range p.RetryableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// 2^30を超える倍率は使わない
const maxBackoffShift = 30

// Backoff はn回目（1始まり）のリトライ前の待ち時間 baseDelay × 2^n
// 桁あふれする場合は最大値に張り付く。
func Backoff(baseDelay time.Duration, n int) time.Duration {
	if n < 1 || baseDelay <= 0 {
		return 0
	}
	if n > maxBackoffShift {
		n = maxBackoffShift
	}
	factor := time.Duration(1) << uint(n)
	if baseDelay > time.Duration(math.MaxInt64)/factor {
		return time.Duration(math.MaxInt64)
	}
	return baseDelay * factor
}

func (p RetryPolicy) clone() RetryPolicy {
	c := p
	c.RetryableStatuses = append([]int(nil), p.RetryableStatuses...)
	return c
}

// 呼び出し単位の上書き
type callOptions struct {
	retries        int
	retryDelay     time.Duration
	timeout        time.Duration
	query          url.Values
	idempotencyKey string
	operation      string
	header         http.Header
}

type CallOption func(*callOptions)

func WithRetries(n int) CallOption {
	return func(o *callOptions) {
		if n >= 0 {
			o.retries = n
		}
	}
}

func WithRetryDelay(d time.Duration) CallOption {
	return func(o *callOptions) {
		if d >= 0 {
			o.retryDelay = d
		}
	}
}

func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

func WithQuery(q url.Values) CallOption {
	return func(o *callOptions) {
		o.query = q
	}
}

// WithIdempotencyKey は全リトライで同じキーを送る。
func WithIdempotencyKey(key string) CallOption {
	return func(o *callOptions) {
		o.idempotencyKey = key
	}
}

// WithOperation はログ・メトリクス用の操作名
func WithOperation(name string) CallOption {
	return func(o *callOptions) {
		o.operation = name
	}
}

func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if o.header == nil {
			o.header = http.Header{}
		}
		o.header.Set(key, value)
	}
}

func (c *Client) callOptions(opts []CallOption) callOptions {
	o := callOptions{
		retries:    c.policy.MaxRetries,
		retryDelay: c.policy.BaseDelay,
		timeout:    c.policy.Timeout,
		operation:  "request",
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
