package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/user"
)

// コンテキストキー
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "user_role"
)

// JWTAuth はBearerトークンを検証し、{userID, role}をコンテキストに載せる
// 予約コアから見た認証はこの2値の供給でしかない
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが必要です")
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンの形式が不正です")
			}

			claims, err := application.ParseToken(parts[1], secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証トークンが無効です")
			}

			c.Set(ContextKeyUserID, claims.Subject)
			c.Set(ContextKeyRole, claims.Role)
			return next(c)
		}
	}
}

// ActorFrom はコンテキストからリクエスト主体を取り出す
func ActorFrom(c echo.Context) authz.Actor {
	userID, _ := c.Get(ContextKeyUserID).(string)
	role, _ := c.Get(ContextKeyRole).(string)
	return authz.Actor{UserID: userID, Role: user.Role(role)}
}
