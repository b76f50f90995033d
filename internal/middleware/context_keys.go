package middleware

import (
	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/gin-gonic/gin"
)

const (
	// userIDKey stores the authenticated operator's ID.
	userIDKey = contextKey("userID")
	// signerKey stores the domain.SignerIdentity of a signing-link request.
	signerKey = contextKey("signer")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if v, exists := c.Get(string(userIDKey)); exists {
		userID, ok := v.(string)
		return userID, ok && userID != ""
	}
	if userID, ok := c.Request.Context().Value(userIDKey).(string); ok && userID != "" {
		return userID, true
	}
	return "", false
}

// GetSignerFromContext retrieves the signer identity set by SignerTokenMiddleware.
func GetSignerFromContext(c *gin.Context) (domain.SignerIdentity, bool) {
	v, exists := c.Get(string(signerKey))
	if !exists {
		return domain.SignerIdentity{}, false
	}
	signer, ok := v.(domain.SignerIdentity)
	return signer, ok
}
