/*
 * Copyright 2026 The Kanso Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package auth provides the authentication of the sync server. A bearer
// token is a JWT whose subject is the profile of the caller.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kanso-team/kanso/pkg/errors"
)

const issuer = "kanso"

var (
	// ErrUnexpectedSigningMethod is returned when the signing method is unexpected.
	ErrUnexpectedSigningMethod = errors.Unauthenticated("unexpected signing method").WithCode("ErrUnexpectedSigningMethod")

	// ErrInvalidToken is returned when the token cannot be verified.
	ErrInvalidToken = errors.Unauthenticated("invalid token").WithCode("ErrInvalidToken")
)

// ProfileClaims is a JWT claims struct for a profile.
type ProfileClaims struct {
	jwt.RegisteredClaims
}

// ProfileID returns the profile the token was issued to.
func (c *ProfileClaims) ProfileID() string {
	return c.Subject
}

// TokenManager manages JWT tokens.
type TokenManager struct {
	secretKey     string
	tokenDuration time.Duration
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(secretKey string, tokenDuration time.Duration) *TokenManager {
	return &TokenManager{
		secretKey:     secretKey,
		tokenDuration: tokenDuration,
	}
}

// Generate generates a new token for the profile.
func (m *TokenManager) Generate(profileID string) (string, error) {
	now := time.Now()
	claims := ProfileClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(m.secretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signedToken, nil
}

// Verify verifies the given token.
func (m *TokenManager) Verify(token string) (*ProfileClaims, error) {
	claims := &ProfileClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		_, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok {
			return nil, fmt.Errorf("%s: %w", token.Method.Alg(), ErrUnexpectedSigningMethod)
		}
		return []byte(m.secretKey), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse token: %v: %w", err, ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("empty subject: %w", ErrInvalidToken)
	}

	return claims, nil
}
