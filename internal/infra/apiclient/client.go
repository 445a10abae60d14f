package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	headerContentType    = "Content-Type"
	headerAccept         = "Accept"
	headerIdempotencyKey = "Idempotency-Key"
	mimeApplicationJSON  = "application/json"
)

// Config はクライアントの設定
type Config struct {
	// BaseURL 例: https://api.example.com/api/v1
	BaseURL string

	// HTTPClient（省略時は http.Client{}）。タイムアウトは試行ごとのctxで掛ける。
	HTTPClient *http.Client

	Policy RetryPolicy

	// 1秒あたりのリクエスト数。0なら無制限
	RateLimit float64

	Logger logrus.FieldLogger
}

// Client はリモートJSON APIを1論理リクエスト単位で実行する。
// タイムアウト・リトライ・エラー正規化を担当する。
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     RetryPolicy
	limiter    *rate.Limiter
	log        logrus.FieldLogger
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	policy := cfg.Policy
	if policy.Timeout <= 0 && policy.BaseDelay <= 0 && policy.MaxRetries == 0 && len(policy.RetryableStatuses) == 0 {
		policy = DefaultRetryPolicy()
	}
	if policy.Timeout <= 0 {
		policy.Timeout = 30 * time.Second
	}
	if len(policy.RetryableStatuses) == 0 {
		policy.RetryableStatuses = DefaultRetryPolicy().RetryableStatuses
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	log := cfg.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		policy:     policy.clone(),
		limiter:    limiter,
		log:        log,
	}
}

// Policy はクライアントのリトライ設定（コピー）
func (c *Client) Policy() RetryPolicy {
	return c.policy.clone()
}

// Do はJSONリクエストを実行してレスポンスをTにデコードする。
// 204やJSON以外のレスポンスはTのゼロ値を返す。
func Do[T any](ctx context.Context, c *Client, method string, path string, body any, opts ...CallOption) (T, error) {
	var out T

	res, err := c.Request(ctx, method, path, body, opts...)
	if err != nil {
		return out, err
	}
	if len(res.Body) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(res.Body, &out); err != nil {
		return out, &APIError{
			Message: "failed to decode response body",
			Status:  res.Status,
			Body:    res.Body,
			Err:     err,
		}
	}
	return out, nil
}

// Response は成功したリクエストの結果。JSON以外なら Body は空。
type Response struct {
	Status int
	Body   []byte
}

// 1回分の送信内容
type requestBody struct {
	data        []byte
	contentType string
}

// Request はリトライ込みで1論理リクエストを実行する。
func (c *Client) Request(ctx context.Context, method string, path string, body any, opts ...CallOption) (Response, error) {
	o := c.callOptions(opts)

	var rb requestBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Response{}, &APIError{Message: "failed to encode request body", Err: err}
		}
		rb = requestBody{data: data, contentType: mimeApplicationJSON}
	}

	// 冪等でないメソッドは、リトライで二重作成しないようにキーを付ける
	if o.idempotencyKey == "" && !isIdempotentMethod(method) {
		o.idempotencyKey = uuid.NewString()
	}

	var lastErr *APIError
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 {
			delay := Backoff(o.retryDelay, attempt)
			c.log.WithFields(logrus.Fields{
				"operation": o.operation,
				"method":    method,
				"path":      path,
				"attempt":   attempt + 1,
				"status":    lastErr.Status,
				"delay":     delay.String(),
			}).Warn("retrying api request")
			metrics.RecordAPIRetry(o.operation)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Response{}, canceledError(ctx.Err(), lastErr)
			}
		}

		res, apiErr := c.attempt(ctx, method, path, rb, o)
		if apiErr == nil {
			return res, nil
		}
		lastErr = apiErr

		// 呼び出し元が中断したらリトライしない
		if ctx.Err() != nil {
			return Response{}, canceledError(ctx.Err(), lastErr)
		}
		if !c.retryable(apiErr) {
			return Response{}, apiErr
		}
	}

	c.log.WithFields(logrus.Fields{
		"operation": o.operation,
		"method":    method,
		"path":      path,
		"status":    lastErr.Status,
	}).Error("api request failed after retries")

	return Response{}, lastErr
}

// レスポンス無し（ネットワーク失敗）は常に再試行、HTTPはポリシーのステータスのみ
func (c *Client) retryable(e *APIError) bool {
	if e.Status == 0 {
		return true
	}
	return c.policy.IsRetryableStatus(e.Status)
}

// attempt は1回だけ送信する。タイムアウトは408として扱う。
func (c *Client) attempt(ctx context.Context, method string, path string, rb requestBody, o callOptions) (Response, *APIError) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Response{}, networkError(err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var reader io.Reader
	if rb.data != nil {
		reader = bytes.NewReader(rb.data)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, c.url(path, o.query), reader)
	if err != nil {
		return Response{}, &APIError{Message: "failed to create request", Err: err}
	}

	req.Header.Set(headerAccept, mimeApplicationJSON)
	if rb.contentType != "" {
		req.Header.Set(headerContentType, rb.contentType)
	}
	if o.idempotencyKey != "" {
		req.Header.Set(headerIdempotencyKey, o.idempotencyKey)
	}
	for k, vs := range o.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if timedOut(ctx, attemptCtx) {
			metrics.RecordAPIAttempt(o.operation, method, http.StatusRequestTimeout, time.Since(start))
			return Response{}, timeoutError(err)
		}
		metrics.RecordAPIAttempt(o.operation, method, 0, time.Since(start))
		return Response{}, networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	metrics.RecordAPIAttempt(o.operation, method, resp.StatusCode, time.Since(start))
	if err != nil {
		if timedOut(ctx, attemptCtx) {
			return Response{}, timeoutError(err)
		}
		return Response{}, networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, responseError(resp.StatusCode, data)
	}

	if resp.StatusCode == http.StatusNoContent || !isJSON(resp.Header.Get(headerContentType)) {
		return Response{Status: resp.StatusCode}, nil
	}
	return Response{Status: resp.StatusCode, Body: data}, nil
}

// 試行のctxだけが期限切れ（呼び出し元は生きている）
func timedOut(parent context.Context, attemptCtx context.Context) bool {
	return parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
}

func (c *Client) url(path string, q url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == mimeApplicationJSON || strings.HasSuffix(mt, "+json")
}

func isIdempotentMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

// PathEscape はパス部品をエスケープする
func PathEscape(s string) string {
	return url.PathEscape(s)
}
