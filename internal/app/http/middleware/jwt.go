package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// Claims is the caller identity extracted from a bearer token.
type Claims struct {
	UserID string
	Email  string
	Role   string
}

type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Claims, error)
}

var ErrNoUserID = errors.New("token carries no user id")

// HMACVerifier accepts HS256/384/512 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret)}
}

func (v *HMACVerifier) Verify(_ context.Context, raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	claims := &Claims{}
	claims.Email, _ = mc["email"].(string)
	claims.Role, _ = mc["role"].(string)
	switch id := mc["user_id"].(type) {
	case string:
		claims.UserID = id
	case float64:
		claims.UserID = fmt.Sprintf("%.0f", id)
	}
	if claims.UserID == "" {
		claims.UserID, _ = mc.GetSubject()
	}
	if claims.UserID == "" {
		return nil, ErrNoUserID
	}
	return claims, nil
}

// ChainVerifier accepts a token if any of its verifiers does.
type ChainVerifier []TokenVerifier

func (cv ChainVerifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	var errs []error
	for _, v := range cv {
		claims, err := v.Verify(ctx, raw)
		if err == nil {
			return claims, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	return nil, errors.Join(errs...)
}

func AuthMiddleware(v TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == authHeader || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token malformed"})
			return
		}

		claims, err := v.Verify(c.Request.Context(), tokenString)
		if err != nil {
			log.Debug("token rejected", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		if claims.Email != "" {
			c.Set(ContextEmail, claims.Email)
		}
		if claims.Role != "" {
			c.Set(ContextRole, claims.Role)
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Role not found in token"})
			return
		}
		if value != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}
		c.Next()
	}
}
