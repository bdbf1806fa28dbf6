package common

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
)

// MaxPageSize - верхняя граница limit для публичных списков.
const MaxPageSize = 100

// ParseIntQuery читает целый параметр запроса. Отсутствующий параметр даёт fallback,
// нечисловой - ошибку валидации.
func ParseIntQuery(c *gin.Context, key string, fallback int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperror.Validation("параметр %s должен быть целым числом", key)
	}
	return parsed, nil
}

// ParseOptionalIntQuery возвращает nil, если параметр не передан.
func ParseOptionalIntQuery(c *gin.Context, key string) (*int, error) {
	if strings.TrimSpace(c.Query(key)) == "" {
		return nil, nil
	}
	v, err := ParseIntQuery(c, key, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseOptionalBoolQuery понимает true/false/1/0.
func ParseOptionalBoolQuery(c *gin.Context, key string) (*bool, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperror.Validation("параметр %s должен быть true или false", key)
	}
	return &parsed, nil
}

// QueryList собирает значения параметра из повторов (?t=a&t=b) и списков через запятую (?t=a,b).
func QueryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// GetPagination извлекает limit и offset. limit сверх MaxPageSize обрезается;
// нулевые и отрицательные значения оставляются сервису для валидации.
func GetPagination(c *gin.Context, defaultLimit int) (limit, offset int, err error) {
	if limit, err = ParseIntQuery(c, "limit", defaultLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = ParseIntQuery(c, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return limit, offset, nil
}

// BindJSON разбирает тело запроса; ошибка разбора становится ошибкой валидации.
func BindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Validation("некорректное тело запроса: %s", err.Error())
	}
	return nil
}

// RespondError передаёт ошибку в ErrorHandler.
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
}
