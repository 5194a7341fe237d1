package domain

import (
	"time"
)

// SearchLog - аудит одного вызова web_search (не кеш, результаты не храним).
type SearchLog struct {
	ID          string
	Query       string
	Provider    string // пусто, если все провайдеры упали
	Success     bool
	ResultCount int
	Dropped     int // сколько результатов отрезал urlguard
	Diagnostics []string
	Duration    time.Duration
	CreatedAt   time.Time
}
