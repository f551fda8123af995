package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Credentials is the body of both /auth/register and /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Credentials) ValidateCredentials() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}

type ChangePassword struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (p *ChangePassword) ValidateChangePassword() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.OldPassword, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.NotIn(p.OldPassword).Error("must differ from the old password")),
	)
}
