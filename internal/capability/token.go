// Package capability issues and verifies short-lived tokens that let
// a caller resume a long-running client operation across process
// restarts without re-proving authorization from scratch.
package capability

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DirectoryWalkClaims captures enough state to resume an
// AddDirectory walk: the root, recursion flag, and include-images
// flag it was called with, and Cursor, the last path the walk
// finished processing.
type DirectoryWalkClaims struct {
	DirPath       string `json:"dir_path"`
	Recursive     bool   `json:"recursive"`
	IncludeImages bool   `json:"include_images"`
	Cursor        string `json:"cursor"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies DirectoryWalkClaims with an HMAC secret.
// One Issuer is shared by a client façade instance.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer builds an Issuer. A zero ttl defaults to 24h, long enough
// to span a restart of a batch ingestion job without leaving a token
// valid indefinitely.
func NewIssuer(secret []byte, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: secret, ttl: ttl}
}

// Issue signs a resume token for a walk that stopped at cursor.
func (iss *Issuer) Issue(dirPath, cursor string, recursive, includeImages bool) (string, error) {
	now := time.Now()
	claims := DirectoryWalkClaims{
		DirPath:       dirPath,
		Recursive:     recursive,
		IncludeImages: includeImages,
		Cursor:        cursor,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(iss.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(iss.secret)
}

// Parse validates a resume token and extracts its claims.
func (iss *Issuer) Parse(tokenString string) (*DirectoryWalkClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &DirectoryWalkClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return iss.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*DirectoryWalkClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("capability: invalid resume token")
	}
	return claims, nil
}
