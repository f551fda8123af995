package mitra

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/internal/cache"
	"github.com/mitrahub/mitra/model"
)

const sessionTokenBytes = 32

func sessionKey(token string) string {
	return "session:" + token
}

// Login checks the credentials and opens a session for the admin.
func (m *Mitra) Login(ctx context.Context, username, password string) (*model.Session, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	admin, err := m.checkPassword(ctx, strings.TrimSpace(username), password)
	if err != nil {
		logrus.WithField("username", username).Warn("failed login attempt")
		return nil, err
	}

	token, err := model.GenerateToken(sessionTokenBytes)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to create session", err)
	}
	session := model.NewSession(token, admin.Username, m.sessionTTL)
	if err := m.sessions.Set(ctx, sessionKey(token), session, m.sessionTTL); err != nil {
		return nil, logAndRecordError(span, "store session: ", apierror.NewAPIError(apierror.ErrTransient, "failed to store session", err))
	}
	logrus.WithField("username", admin.Username).Info("admin logged in")
	return session, nil
}

// Authenticate returns the live session behind token.
func (m *Mitra) Authenticate(ctx context.Context, token string) (*model.Session, error) {
	if token == "" {
		return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "missing session token", nil)
	}

	var session model.Session
	err := m.sessions.Get(ctx, sessionKey(token), &session)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "session expired or invalid", nil)
	}
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransient, "failed to load session", err)
	}
	if session.Expired(time.Now()) {
		_ = m.sessions.Delete(ctx, sessionKey(token))
		return nil, apierror.NewAPIError(apierror.ErrUnauthorized, "session expired or invalid", nil)
	}
	return &session, nil
}

// Logout ends the session behind token. Logging out twice is not an error.
func (m *Mitra) Logout(ctx context.Context, token string) error {
	if token == "" {
		return apierror.NewAPIError(apierror.ErrUnauthorized, "missing session token", nil)
	}
	if err := m.sessions.Delete(ctx, sessionKey(token)); err != nil {
		return apierror.NewAPIError(apierror.ErrTransient, "failed to end session", err)
	}
	return nil
}
