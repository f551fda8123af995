/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/model"
)

const sessionContextKey = "mitra.session"

// Authenticator resolves a bearer token to a live admin session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Session, error)
}

// AuthMiddleware guards admin routes with the session created at login.
type AuthMiddleware struct {
	service Authenticator
}

func NewAuthMiddleware(service Authenticator) *AuthMiddleware {
	return &AuthMiddleware{service: service}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate aborts with 401 unless the request carries a live session. The
// session is stored on the context for handlers.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "Authorization bearer token is required", "code": apierror.ErrUnauthorized})
			return
		}

		session, err := m.service.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": apierror.Message(err), "code": apierror.CodeOf(err)})
			return
		}

		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// CurrentSession returns the session stored by Authenticate, if any.
func CurrentSession(c *gin.Context) (*model.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*model.Session)
	return session, ok
}
