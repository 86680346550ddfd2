package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/edu-platform/quiz-service/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const learnerIDKey = "user_id"

var errMissingSubject = errors.New("token carries no learner id")

// TokenVerifier resolves a bearer token to the learner it was issued for
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// JWTVerifier accepts HMAC-signed tokens carrying the learner in "sub" or "userId"
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token payload")
	}
	for _, key := range []string{"sub", "userId"} {
		switch value := claims[key].(type) {
		case string:
			if value != "" {
				return value, nil
			}
		case float64:
			return strconv.FormatFloat(value, 'f', -1, 64), nil
		}
	}
	return "", errMissingSubject
}

// CasdoorVerifier validates tokens issued by a Casdoor instance
type CasdoorVerifier struct{}

// NewCasdoorVerifier configures the Casdoor SDK from cfg. The SDK keeps its configuration
// globally, so one verifier per process.
func NewCasdoorVerifier(cfg config.AuthConfig) *CasdoorVerifier {
	casdoorsdk.InitConfig(
		cfg.CasdoorEndpoint,
		cfg.CasdoorClientID,
		cfg.CasdoorClientSecret,
		cfg.CasdoorCertificate,
		cfg.CasdoorOrganization,
		cfg.CasdoorApplication,
	)
	return &CasdoorVerifier{}
}

func (v *CasdoorVerifier) Verify(token string) (string, error) {
	claims, err := casdoorsdk.ParseJwtToken(token)
	if err != nil {
		return "", err
	}
	if claims.RegisteredClaims.Subject != "" {
		return claims.RegisteredClaims.Subject, nil
	}
	if claims.User.Id != "" {
		return claims.User.Id, nil
	}
	return "", errMissingSubject
}

// NewTokenVerifier picks the verifier for the configured auth provider
func NewTokenVerifier(cfg *config.Config) (TokenVerifier, error) {
	switch cfg.Auth.Provider {
	case "", "jwt":
		return NewJWTVerifier(cfg.JWTSecret), nil
	case "casdoor":
		return NewCasdoorVerifier(cfg.Auth), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}
}

// AuthMiddleware rejects requests without a valid bearer token and stores the learner id
// under "user_id"
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing or invalid Authorization header",
				Code:    "unauthorized",
			})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid Authorization header format",
				Code:    "unauthorized",
			})
			return
		}

		learnerID, err := verifier.Verify(strings.TrimSpace(authHeader[len("Bearer "):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or expired token",
				Code:    "unauthorized",
			})
			return
		}

		c.Set(learnerIDKey, learnerID)
		c.Next()
	}
}
