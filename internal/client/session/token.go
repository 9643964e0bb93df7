package session

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const tokenKeyInfo = "ideauth session token"

// Claims are the registered JWT claims of a session token: sub is the user
// id, jti a fresh UUID.
type Claims struct {
	jwt.RegisteredClaims
}

// signingKey derives the HS256 key from the user's data key, so a token can
// only be produced or checked by someone holding K_u.
func signingKey(ku []byte) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, ku, nil, []byte(tokenKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}
	return key, nil
}

func generateToken(ku []byte, userID, id string, issuedAt, expiresAt time.Time) (string, error) {
	key, err := signingKey(ku)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(key)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	return token.SignedString(key)
}

// verifyToken checks the signature and that the token names userID. Expiry
// is judged on the payload timestamp, not here.
func verifyToken(ku []byte, tokenString, userID string) error {
	key, err := signingKey(ku)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return fmt.Errorf("%w: session token: %v", common.ErrIntegrity, err)
	}
	if !token.Valid {
		return fmt.Errorf("%w: session token invalid", common.ErrIntegrity)
	}
	if claims.Subject != userID {
		return fmt.Errorf("%w: session token subject mismatch", common.ErrIntegrity)
	}
	return nil
}
