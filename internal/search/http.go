package search

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"unicode/utf8"

	"go.uber.org/zap"
)

// maxBodyBytes - больше от поискового API не ждём
const maxBodyBytes = 4 << 20

// DoRequest выполняет запрос и читает тело целиком (с лимитом).
func DoRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		// *url.Error тащит полный URL, а в query у google лежит ключ
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}

// HandleHTTPError маппит не-2xx статус на sentinel ошибку.
func HandleHTTPError(statusCode int, body []byte, logger *zap.Logger, provider Identity) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimit
	case http.StatusBadRequest:
		return ErrInvalidRequest
	default:
		logger.Error("search request failed",
			zap.String("provider", provider.String()),
			zap.Int("status", statusCode),
			zap.String("body", Truncate(string(body), 512)),
		)
		return fmt.Errorf("%w: status %d", ErrSearchFailed, statusCode)
	}
}

// IsSuccess - 2xx
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// Truncate режет строку до max рун, добавляя "..." если обрезали.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// CapCount зажимает count в [1, ceiling] - у каждого API свой потолок.
func CapCount(count, ceiling int) int {
	if count < 1 {
		return 1
	}
	if count > ceiling {
		return ceiling
	}
	return count
}
