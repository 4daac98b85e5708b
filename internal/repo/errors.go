package repo

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Ожидаемые конфликты уровня хранилища
var (
	ErrAlreadyClaimed = errors.New("позиция уже занята")
	ErrNotClaimant    = errors.New("бронь принадлежит другому участнику")
)

// isUniqueViolation распознает нарушение уникального индекса у Postgres
// (код 23505) и у sqlite в тестах (текст ошибки).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "duplicate")
}
