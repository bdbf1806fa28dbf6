package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
)

// ContextIDKey - ключ, под которым UUIDValidator сохраняет разобранный id.
const ContextIDKey = "pathID"

// UUIDValidator проверяет, что параметр пути является валидным UUID,
// и сохраняет его в контексте.
// Использование: router.GET("/gallery/:id", UUIDValidator("id"), handler.Get)
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		if raw == "" {
			abortWithError(c, apperror.Validation("параметр %s обязателен", paramName))
			return
		}

		id, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, apperror.Validation("параметр %s должен быть валидным UUID", paramName))
			return
		}

		c.Set(ContextIDKey, id)
		c.Next()
	}
}

// PathID возвращает id, проверенный UUIDValidator.
func PathID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ContextIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
