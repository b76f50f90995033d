package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/doc_signing_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", "Authorization header required"
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "Authorization header format must be Bearer {token}"
	}
	return strings.TrimSpace(parts[1]), ""
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return "Token not valid yet"
	}
	return "Invalid token"
}

// AuthMiddleware creates a Gin middleware handler that validates operator JWT tokens.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		tokenString, problem := bearerToken(c)
		if problem != "" {
			logger.Warn("Operator authorization rejected", slog.String("reason", problem))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
			return
		}

		claims, err := utils.ParseAndValidateJWT(tokenString, jwtSecret)
		if err != nil {
			logger.Warn("Invalid operator token", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": tokenErrorMessage(err)})
			return
		}

		userID := claims.Subject
		ctx := context.WithValue(c.Request.Context(), userIDKey, userID)
		c.Request = c.Request.WithContext(WithLogger(ctx, logger.With(slog.String("user_id", userID))))
		c.Set(string(userIDKey), userID)
		c.Next()
	}
}

// SignerTokenMiddleware validates the signing-link token and checks that it
// names the document and signature in the route. The resulting
// domain.SignerIdentity is stored for handlers to pass on explicitly.
func SignerTokenMiddleware(signingSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		tokenString, problem := bearerToken(c)
		if problem != "" {
			if q := c.Query("token"); q != "" {
				tokenString, problem = q, ""
			}
		}
		if problem != "" {
			logger.Warn("Signing link rejected", slog.String("reason", problem))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
			return
		}

		signer, err := utils.ParseSigningToken(tokenString, signingSecret)
		if err != nil {
			logger.Warn("Invalid signing token", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": tokenErrorMessage(err)})
			return
		}

		if signer.DocumentID != c.Param("documentID") || signer.SignatureID != c.Param("signatureID") {
			logger.Warn("Signing token does not match route",
				slog.String("token_document_id", signer.DocumentID),
				slog.String("token_signature_id", signer.SignatureID))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Signing link does not grant access to this signature"})
			return
		}

		enriched := logger.With(
			slog.String("document_id", signer.DocumentID),
			slog.String("signature_id", signer.SignatureID),
		)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), enriched))
		c.Set(string(signerKey), signer)
		c.Next()
	}
}
