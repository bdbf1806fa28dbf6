package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
	"github.com/ignatzorin/rsip-gallery/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextAdminKey = "adminSubject"
	ContextRoleKey  = "role"
)

// AdminAuth пропускает только запросы с действующим access токеном и ролью role.
// Subject токена кладётся в контекст и попадает в reviewed_by.
func AdminAuth(tokens *service.TokenVerifier, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}

		claims, err := tokens.ParseAccess(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			abortWithError(c, apperror.New(apperror.ErrCodeUnauthorized, "токен невалиден"))
			return
		}
		if claims.Role != role {
			abortWithError(c, apperror.ErrForbidden)
			return
		}

		c.Set(ContextAdminKey, claims.Subject)
		c.Set(ContextRoleKey, claims.Role)
		c.Next()
	}
}

// AdminSubject возвращает subject администратора, прошедшего AdminAuth.
func AdminSubject(c *gin.Context) string {
	return c.GetString(ContextAdminKey)
}
