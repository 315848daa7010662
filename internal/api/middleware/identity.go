package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobboard/internal/identity"
)

const clerkUserIDKey = "clerkUserID"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// IdentityMiddleware 校验身份令牌并将外部用户 ID 注入上下文。
// 这是删除类操作依赖的授权钩子：路由挂上它之后，未带有效令牌的
// 请求在进入处理器之前即被拒绝。
func IdentityMiddleware(verifier *identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		rawToken := strings.TrimSpace(parts[1])
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		userID, err := verifier.VerifyToken(rawToken)
		if err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(clerkUserIDKey, userID)
		c.Next()
	}
}

// PassthroughIdentity 在未配置公钥时使用：不做校验，直接放行。
// 仅用于本地开发，生产环境必须配置 IDENTITY_PUBLIC_KEY_PATH。
func PassthroughIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}

// ClerkUserIDFromContext 返回身份中间件注入的外部用户 ID。
func ClerkUserIDFromContext(c *gin.Context) (string, bool) {
	if value, ok := c.Get(clerkUserIDKey); ok {
		if id, ok := value.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}
