package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Audiences keep operator tokens and signing-link tokens from being swapped.
const (
	OperatorAudience = "operator"
	SignerAudience   = "signer"
)

// ErrInvalidClaims is returned for a validly signed token with unusable claims.
var ErrInvalidClaims = errors.New("invalid token claims")

// SigningClaims binds a signing link to one signature of one document.
// The subject is the signature id.
type SigningClaims struct {
	DocumentID string `json:"doc"`
	jwt.RegisteredClaims
}

// GenerateJWT generates a new operator JWT with the given parameters.
func GenerateJWT(userID string, secret string, expiryDuration time.Duration, issuer string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		Audience:  jwt.ClaimStrings{OperatorAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(expiryDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAndValidateJWT parses an operator token, validating its signature,
// standard time claims and audience.
func ParseAndValidateJWT(tokenString string, secretKey string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secretKey),
		jwt.WithAudience(OperatorAudience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject missing", ErrInvalidClaims)
	}
	return claims, nil
}

// GenerateSigningToken issues the token embedded in a signer's link.
func GenerateSigningToken(signer domain.SignerIdentity, secret string, expiryDuration time.Duration, issuer string, expiresAt *time.Time) (string, error) {
	now := time.Now()
	exp := now.Add(expiryDuration)
	if expiresAt != nil && expiresAt.Before(exp) && expiresAt.After(now) {
		exp = *expiresAt
	}
	claims := SigningClaims{
		DocumentID: signer.DocumentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   signer.SignatureID,
			Audience:  jwt.ClaimStrings{SignerAudience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSigningToken validates a signing-link token and returns the signer it names.
func ParseSigningToken(tokenString string, secretKey string) (domain.SignerIdentity, error) {
	claims := &SigningClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secretKey),
		jwt.WithAudience(SignerAudience),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return domain.SignerIdentity{}, err
	}
	if !token.Valid {
		return domain.SignerIdentity{}, jwt.ErrTokenSignatureInvalid
	}
	if claims.Subject == "" || claims.DocumentID == "" {
		return domain.SignerIdentity{}, fmt.Errorf("%w: signer or document missing", ErrInvalidClaims)
	}
	return domain.SignerIdentity{DocumentID: claims.DocumentID, SignatureID: claims.Subject}, nil
}

func hmacKey(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}
