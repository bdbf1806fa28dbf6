package common

import (
	"errors"

	"github.com/lib/pq"
)

// Общие ошибки для всех репозиториев
var (
	ErrNotFound         = errors.New("entity not found")
	ErrProcedureMissing = errors.New("stored procedure is not available")
	ErrForeignKey       = errors.New("referenced entity does not exist")
	// ErrStaleStatus - строка существует, но её текущий статус не допускает переход.
	ErrStaleStatus = errors.New("status does not allow transition")
)

// Коды SQLSTATE, которые различаем явно.
const (
	pqUndefinedFunction   = "42883"
	pqForeignKeyViolation = "23503"
)

// TranslatePQ переводит ошибки драйвера в ошибки репозитория.
// Неизвестные ошибки возвращаются как есть.
func TranslatePQ(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUndefinedFunction:
		return errors.Join(ErrProcedureMissing, err)
	case pqForeignKeyViolation:
		return errors.Join(ErrForeignKey, err)
	}
	return err
}
