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

package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kanso-team/kanso/pkg/errors"
	"github.com/kanso-team/kanso/server/rpc/httphelper"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	profileIDKey        = "kanso.profile_id"
)

var (
	// ErrMissingToken is returned when a request has no bearer token.
	ErrMissingToken = errors.Unauthenticated("missing bearer token").WithCode("ErrMissingToken")

	// ErrProfileMismatch is returned when the profile of the request body is
	// not the profile of the token.
	ErrProfileMismatch = errors.PermissionDenied("profile does not match token").WithCode("ErrProfileMismatch")
)

// Middleware verifies the bearer token of the request and keeps its profile
// in the context. With a nil manager every request passes and the profile of
// the body is trusted.
func Middleware(manager *TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if manager == nil {
			c.Next()
			return
		}

		header := c.GetHeader(authorizationHeader)
		if !strings.HasPrefix(header, bearerPrefix) {
			httphelper.Abort(c, ErrMissingToken)
			return
		}

		claims, err := manager.Verify(strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
		if err != nil {
			httphelper.Abort(c, err)
			return
		}

		c.Set(profileIDKey, claims.ProfileID())
		c.Next()
	}
}

// CheckProfile checks that the profile of the request body is the profile of
// the verified token. It passes when the middleware did not verify a token.
func CheckProfile(c *gin.Context, profileID string) error {
	value, ok := c.Get(profileIDKey)
	if !ok {
		return nil
	}
	if value.(string) != profileID {
		return ErrProfileMismatch
	}
	return nil
}
