package coc

import (
	"time"
)

// Формат времени API Clash of Clans: 20240115T070000.000Z
const apiTimeLayout = "20060102T150405.000Z"

// ParseTime разбирает временную метку API. Пустая строка — не ошибка,
// просто время еще не назначено.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(apiTimeLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
