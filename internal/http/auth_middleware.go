package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"vidtube/internal/domain"
	"vidtube/internal/repository"
	"vidtube/internal/service"
)

const currentUserKey = "current_user"

// AuthMiddleware validates the access token from the accessToken
// cookie or the Authorization header and stores the resolved sanitized
// user in the request context.
func AuthMiddleware(tokens *service.TokenService, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortWithError(c, NewAPIError(http.StatusUnauthorized, "unauthorized request"))
			return
		}

		claims, err := tokens.ParseAccessToken(token)
		if err != nil {
			abortWithError(c, NewAPIError(http.StatusUnauthorized, "invalid access token"))
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				abortWithError(c, NewAPIError(http.StatusUnauthorized, "invalid access token"))
				return
			}
			abortWithError(c, NewAPIError(http.StatusInternalServerError, "internal server error"))
			return
		}

		c.Set(currentUserKey, user.Sanitized())
		c.Next()
	}
}

// CurrentUser returns the authenticated user attached by
// AuthMiddleware.
func CurrentUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

func bearerToken(c *gin.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}
