package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	ContextEmployeeID = "employee_id"
	ContextRole       = "role"
)

var (
	ErrTokenNotFound = apperror.New(apperror.CodeUnauthorized, "Token not found", http.StatusUnauthorized)
	ErrInvalidToken  = apperror.New("INVALID_TOKEN", "Invalid token", http.StatusUnauthorized)
	ErrTokenExpired  = apperror.New("TOKEN_EXPIRED", "Token expired", http.StatusUnauthorized)
)

// AuthMiddleware verifies an HS256 bearer token (or the access_token cookie)
// and exposes its employee_id and role claims to handlers and services.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			abortWith(c, ErrTokenNotFound)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			errObj := ErrInvalidToken
			if errors.Is(err, jwt.ErrTokenExpired) {
				errObj = ErrTokenExpired
			}
			abortWith(c, errObj)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortWith(c, ErrInvalidToken)
			return
		}

		employeeID, ok := claims["employee_id"].(string)
		if !ok || employeeID == "" {
			abortWith(c, ErrInvalidToken.WithDetails(map[string]string{"claim": "employee_id"}))
			return
		}

		role, _ := claims["role"].(string)

		c.Set(ContextEmployeeID, employeeID)
		c.Set(ContextRole, role)

		ctx := contextutil.WithActor(c.Request.Context(), contextutil.Actor{
			EmployeeID: employeeID,
			Role:       role,
		})
		reqLogger := contextutil.GetLogger(ctx, nil)
		ctx = contextutil.WithLogger(ctx, reqLogger.With(zap.String("employee_id", employeeID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func abortWith(c *gin.Context, err *apperror.AppError) {
	response.Error(c, err.HTTPStatus, err.Code, err.Message, err.Details)
	c.Abort()
}
