package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/tmwangi/darasa/core"
)

var (
	// errors
	ErrNotFound          = errors.New("user not found")
	ErrEmailExists       = errors.New("a user with this email already exists")
	ErrUsernameExists    = errors.New("a user with this username already exists")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string) error
		CreateUser(ctx context.Context, usr User) (User, error)
		// QueryUsers applies AND semantics on set QueryFilter fields; a nil
		// or empty filter returns all users.
		QueryUsers(ctx context.Context, filter *QueryFilter) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByUsernameAndEmail(ctx context.Context, username, email string) (User, error)
		GetUserByResetToken(ctx context.Context, token string) (User, error)
		// UpdateUser saves the user's mutable fields (name, password hash,
		// role, reset token + expiry, profile picture, last login) and bumps
		// UpdatedAt.
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	ServiceInterface interface {
		CheckUniqueness(ctx context.Context, uname, email string) error
		Create(ctx context.Context, nu NewUser) (User, error)
		Query(ctx context.Context, filter *QueryFilter) ([]User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByUsername(ctx context.Context, uname string) (User, error)
		SetLastLogin(ctx context.Context, usr User) (User, error)
		SetProfilePicture(ctx context.Context, usr User, url string) (User, error)
		RequestPasswordReset(ctx context.Context, username, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) ServiceInterface {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	now := nowFunc().UTC()
	role := nu.Role
	if role == "" {
		role = RoleUser
	}
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = nowFunc().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetProfilePicture(ctx context.Context, usr User, url string) (User, error) {
	usr.ProfilePicture = url
	return svc.repo.UpdateUser(ctx, usr)
}

// RequestPasswordReset generates a single-use reset token for the user
// matching the exact (username, email) pair, stores it with an expiry and
// mails a reset link. Repeated calls overwrite the previous token.
func (svc *service) RequestPasswordReset(ctx context.Context, username, email string) error {
	usr, err := svc.repo.GetUserByUsernameAndEmail(
		ctx,
		core.CleanString(username, true /* lower */),
		core.CleanString(email, true /* lower */),
	)
	if err != nil {
		return err
	}

	token, err := makeResetToken()
	if err != nil {
		return errors.Wrap(err, "generating reset token")
	}
	usr.ResetToken = token
	usr.ResetTokenExpiry = nowFunc().UTC().Add(svc.conf.PasswordResetTimeout)

	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return errors.Wrap(err, "storing reset token")
	}

	svc.sendPasswordResetMail(usr)
	return nil
}

// ResetPassword consumes a reset token: the token must be stored and
// unexpired; on success the password is replaced and the token cleared so a
// second use fails.
func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	usr, err := svc.repo.GetUserByResetToken(ctx, data.Token)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return ErrInvalidResetToken
		}
		return err
	}
	if nowFunc().UTC().After(usr.ResetTokenExpiry) {
		return ErrInvalidResetToken
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.ResetToken = ""
	usr.ResetTokenExpiry = time.Time{}

	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "saving new password")
}

func (svc *service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Password Reset",
			TemplateName: "password-reset",
			TemplateData: struct {
				Username  string
				ResetPath string
			}{
				Username:  usr.Username,
				ResetPath: fmt.Sprintf("/reset-password?token=%s", usr.ResetToken),
			},
		},
	)
}

// makeResetToken returns 32 random bytes, hex-encoded.
func makeResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
