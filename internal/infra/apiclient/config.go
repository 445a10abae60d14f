package apiclient

import (
	"github.com/sirupsen/logrus"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/config"
)

// NewFromConfig は環境変数の設定からクライアントを作る
func NewFromConfig(cfg config.Config, log logrus.FieldLogger) *Client {
	return New(Config{
		BaseURL: cfg.APIBaseURL,
		Policy: RetryPolicy{
			MaxRetries:        cfg.APIRetries,
			BaseDelay:         cfg.APIRetryDelay,
			Timeout:           cfg.APITimeout,
			RetryableStatuses: DefaultRetryPolicy().RetryableStatuses,
		},
		RateLimit: cfg.APIRateLimit,
		Logger:    log.WithField("component", "apiclient"),
	})
}
