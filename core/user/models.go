package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/alloyapp/alloy/core"
)

type User struct {
	ID             string      `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	PasswordHash   []byte      `json:"-"`
	ResetTokenHash null.String `json:"-"`
	ResetExpiresAt null.Time   `json:"-"` // UTC
	LastLogin      null.Time   `json:"lastLogin"`
	CreatedAt      time.Time   `json:"createdAt"` // UTC
	UpdatedAt      time.Time   `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum_"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// Credentials are exchanged for an auth token.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Email = core.CleanString(c.Email, true /* lower */)
	return validate.Struct(c)
}

// UpdateProfile defines what a User may change on their own profile.
type UpdateProfile struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum_"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Username = core.CleanString(up.Username)
	return validate.Struct(up)
}

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func (cp ChangePassword) Validate(validate *validator.Validate) error { return validate.Struct(cp) }

type ForgotPassword struct {
	Email string `json:"email" validate:"required,email"`
}

func (fp *ForgotPassword) Validate(validate *validator.Validate) error {
	fp.Email = core.CleanString(fp.Email, true /* lower */)
	return validate.Struct(fp)
}

type ResetPassword struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (rp *ResetPassword) Validate(validate *validator.Validate) error {
	rp.Token = core.CleanString(rp.Token)
	return validate.Struct(rp)
}

// GetFilter selects a single User. The first non-empty field wins.
type GetFilter struct {
	ID              string
	Email           string
	UsernameOrEmail string
	ResetTokenHash  string
}
