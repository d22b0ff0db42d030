package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/alloyapp/alloy/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrEmailExists        = core.NewConflictError("email", "Email is already registered.")
	ErrUsernameExists     = core.NewConflictError("username", "Username is already taken.")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("token is invalid or has expired")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

type (
	Repository interface {
		// CheckUniqueness returns ErrUsernameExists or ErrEmailExists when another User,
		// not listed in excludedIDs, already uses the username or email.
		CheckUniqueness(ctx context.Context, username, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		// DeleteUser removes the User and everything they own in a single transaction.
		// It returns the store paths of the documents that were deleted.
		DeleteUser(ctx context.Context, id string) ([]string, error)
	}

	// FileRemover removes stored files once their metadata is gone.
	FileRemover interface {
		Remove(path string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		files   FileRemover
		logger  core.Logger
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, files FileRemover, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		files:   files,
		logger:  logger,
		conf:    conf,
	}
}

func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := svc.repo.CheckUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	now := NowFunc().UTC()
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

// Authenticate checks the Credentials and records the login.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, creds Credentials) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: creds.Email})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = null.TimeFrom(NowFunc().UTC())
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: core.CleanString(uname)})
}

// RequestPasswordReset stores a new reset token for the User owning `email` and mails it to them.
// It returns ErrNotFound for unknown emails; callers must not reveal it.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}

	token, digest, err := makeResetToken()
	if err != nil {
		return errors.Wrap(err, "generating reset token")
	}
	now := NowFunc().UTC()
	usr.setResetToken(digest, now.Add(svc.conf.PasswordResetTimeoutDelta))
	usr.UpdatedAt = now
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "saving reset token")
	}

	svc.sendPasswordResetMail(usr, token)
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User, token string) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Password Reset Request",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Username":  usr.Username,
			"ResetURL":  fmt.Sprintf("%s/reset-password/%s", svc.conf.FrontendBaseURL, token),
			"ExpiresIn": svc.conf.PasswordResetTimeoutDelta.String(),
		},
	}
	svc.mailSvc.SendMessages(msg)
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ResetTokenHash: hashResetToken(rp.Token)})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(ErrInvalidToken)
		}
		return errors.Wrap(err, "finding user by reset token")
	}
	now := NowFunc().UTC()
	if err = verifyResetToken(usr, now); err != nil {
		return core.NewValidationError(err)
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.clearResetToken()
	usr.UpdatedAt = now
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating password")
	}
	return nil
}

func (svc *Service) UpdateProfile(ctx context.Context, id string, up UpdateProfile) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	if up.Username == usr.Username {
		return usr, nil
	}
	if err = svc.repo.CheckUniqueness(ctx, up.Username, "", usr.ID); err != nil {
		return User{}, err
	}

	usr.Username = up.Username
	usr.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) ChangePassword(ctx context.Context, id string, cp ChangePassword) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return err
	}
	if err = usr.CheckPassword(cp.CurrentPassword); err != nil {
		return core.NewValidationError(ErrWrongPassword, core.FieldError{Field: "currentPassword", Error: "Current password is incorrect."})
	}
	return svc.SetPassword(ctx, usr, cp.NewPassword)
}

// SetPassword replaces the password of usr, no questions asked.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = NowFunc().UTC()
	if _, err := svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "updating password")
	}
	return nil
}

// Delete removes the User with everything they own.
func (svc *Service) Delete(ctx context.Context, id string) error {
	paths, err := svc.repo.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := svc.files.Remove(path); err != nil {
			svc.logger.Error(fmt.Sprintf("removing document file %q: %v", path, err), err)
		}
	}
	return nil
}

// Lifetime of a freshly issued reset token.
func (svc *Service) ResetTokenLifetime() time.Duration {
	return svc.conf.PasswordResetTimeoutDelta
}
