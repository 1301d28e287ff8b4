package postmark

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	batchPath   = "/email/batch"
	tokenHeader = "X-Postmark-Server-Token"
)

// Client клиент Postmark batch API
type Client struct {
	http *resty.Client
	log  Logger
}

// NewClient создает новый экземпляр клиента Postmark
func NewClient(baseURL, apiKey string, timeout time.Duration, log Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader(tokenHeader, apiKey)

	return &Client{
		http: httpClient,
		log:  log,
	}
}

// SendBatch отправляет пачку сообщений одним запросом.
// Ошибка транспорта, статус не 2xx или ненулевой ErrorCode у любого сообщения
// считаются неудачей всей пачки.
func (c *Client) SendBatch(ctx context.Context, messages []Message) ([]SendResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(messages).
		Post(batchPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}

	// Обработка статус-кодов
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		var apiErr ErrorResponse
		if jsonErr := json.Unmarshal(resp.Body(), &apiErr); jsonErr == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("%w: status %d, code %d: %s", ErrInvalidResponse, resp.StatusCode(), apiErr.ErrorCode, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode(), resp.String())
	}

	var results []SendResult
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	if len(results) != len(messages) {
		return results, fmt.Errorf("%w: expected %d results, got %d", ErrInvalidResponse, len(messages), len(results))
	}

	for _, r := range results {
		if r.ErrorCode != 0 {
			c.log.Warn("Postmark rejected message to %s: code=%d, message=%s", r.To, r.ErrorCode, r.Message)
			return results, fmt.Errorf("%w: to=%s, code=%d: %s", ErrMessageRejected, r.To, r.ErrorCode, r.Message)
		}
	}

	c.log.Info("Postmark batch accepted: %d messages", len(results))
	return results, nil
}
