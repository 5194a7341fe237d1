package domain

import "errors"

var ErrInternal = errors.New("internal error")

var (
	ErrEmptyQuery   = errors.New("empty query")
	ErrQueryTooLong = errors.New("query too long")
)

var ErrAllProvidersFailed = errors.New("all search providers failed")
