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

package mitra

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mitrahub/mitra/config"
	"github.com/mitrahub/mitra/internal/apierror"
	"github.com/mitrahub/mitra/model"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
)

var errBadCredentials = apierror.NewAPIError(apierror.ErrUnauthorized, "invalid username or password", nil)

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "username must be between 3 and 64 characters", nil)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "password must be at least 8 characters", nil)
	}
	if len(password) > maxPasswordLength {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "password must be at most 72 bytes", nil)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apierror.NewAPIError(apierror.ErrInternalServer, "failed to hash password", err)
	}
	return string(hash), nil
}

// CanRegister reports whether a new admin may sign up: either registration is
// open in the configuration or no admin exists yet.
func (m *Mitra) CanRegister(ctx context.Context) (bool, error) {
	conf, err := config.Fetch()
	if err != nil {
		return false, err
	}
	if conf.Server.AllowRegistration {
		return true, nil
	}
	count, err := m.datasource.CountAdmins(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// RegisterAdmin stores a new administrator with a bcrypt hash of password.
func (m *Mitra) RegisterAdmin(ctx context.Context, username, password string) (*model.AdminCredential, error) {
	ctx, span := tracer.Start(ctx, "RegisterAdmin")
	defer span.End()

	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, logAndRecordError(span, "hash password: ", err)
	}

	admin, err := m.datasource.CreateAdmin(ctx, model.AdminCredential{Username: username, PasswordHash: hash})
	if err != nil {
		return nil, logAndRecordError(span, "register admin failed: ", err)
	}
	logrus.WithField("username", username).Info("admin registered")
	return admin, nil
}

// checkPassword loads username and compares password with its hash. Unknown
// users and wrong passwords look the same to the caller.
func (m *Mitra) checkPassword(ctx context.Context, username, password string) (*model.AdminCredential, error) {
	admin, err := m.datasource.GetAdminByUsername(ctx, username)
	if apierror.Is(err, apierror.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "failed to verify password", err)
	}
	return admin, nil
}

// ChangePassword replaces the password of the admin behind session after
// checking the current one. The session itself stays valid.
func (m *Mitra) ChangePassword(ctx context.Context, session *model.Session, oldPassword, newPassword string) error {
	ctx, span := tracer.Start(ctx, "ChangePassword")
	defer span.End()

	if session == nil {
		return apierror.NewAPIError(apierror.ErrUnauthorized, "not logged in", nil)
	}
	if _, err := m.checkPassword(ctx, session.Username, oldPassword); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := m.datasource.UpdateAdminPassword(ctx, session.Username, hash); err != nil {
		return logAndRecordError(span, "change password failed: ", err)
	}
	logrus.WithField("username", session.Username).Info("admin password changed")
	return nil
}
