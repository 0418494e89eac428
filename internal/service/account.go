package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/storefront/internal/logutil"
	"github.com/iliyamo/storefront/internal/model"
	"github.com/iliyamo/storefront/internal/repository"
	"github.com/iliyamo/storefront/internal/utils"
)

// dummySalt feeds the KDF when the email is unknown, so a failed login costs
// the same whether or not the account exists.
const dummySalt = "AAAAAAAAAAAAAAAAAAAAAA=="

// AccountService handles registration, login and email verification.
type AccountService struct {
	Users          repository.UserStore
	Mailer         Mailer
	BaseURL        string
	MinPasswordLen int
	VerifyTTL      time.Duration
	now            func() time.Time
}

func NewAccountService(users repository.UserStore, mailer Mailer, baseURL string, minPasswordLen int, verifyTTL time.Duration) *AccountService {
	return &AccountService{
		Users:          users,
		Mailer:         mailer,
		BaseURL:        strings.TrimRight(baseURL, "/"),
		MinPasswordLen: minPasswordLen,
		VerifyTTL:      verifyTTL,
		now:            time.Now,
	}
}

// Registration is the result of a successful sign-up.
type Registration struct {
	User       model.User
	VerifyLink string
}

// Register creates an unverified account and mails its verification link.
// A taken email yields repository.ErrEmailExists and leaves the existing
// account untouched.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (Registration, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < s.MinPasswordLen {
		return Registration{}, ErrInvalidInput
	}

	u, err := s.newUser(name, email, password)
	if err != nil {
		return Registration{}, err
	}
	token, err := utils.NewVerifyToken()
	if err != nil {
		return Registration{}, err
	}
	u.VerifyToken = token
	u.VerifyTokenExpires = s.now().Add(s.VerifyTTL).UnixMilli()

	if err := s.Users.Create(ctx, u); err != nil {
		return Registration{}, err
	}

	link := s.verifyLink(token)
	body := fmt.Sprintf("Hello %s,\n\nConfirm your email address: %s\n\nThis link expires in %s.", name, link, humanTTL(s.VerifyTTL))
	s.send(ctx, email, "Confirm your email", body)

	lg := logutil.GetOrDefault(ctx)
	lg.Info().Str("user_id", u.ID).Msg("user registered")
	return Registration{User: u, VerifyLink: link}, nil
}

// Authenticate checks the password of the account registered under email.
// Unknown email and wrong password both return ErrInvalidCredentials.
// Unverified accounts may log in.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.VerifyPassword(password, dummySalt, "")
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(password, u.Salt, u.PassHash) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// errTokenReplaced aborts a verification whose token changed between the
// lookup and the locked update.
var errTokenReplaced = errors.New("verification token replaced")

// Verify consumes a verification token.  It reports true when the account is
// now verified.  Unknown, blank and expired tokens report false; an expired
// token is cleared.
func (s *AccountService) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	u, err := s.Users.GetByVerifyToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	verified := false
	_, err = s.Users.Update(ctx, u.ID, func(u *model.User) error {
		if u.VerifyToken != token {
			return errTokenReplaced
		}
		if u.VerifyTokenExpires != 0 && s.now().UnixMilli() <= u.VerifyTokenExpires {
			u.IsVerified = true
			verified = true
		}
		u.VerifyToken = ""
		u.VerifyTokenExpires = 0
		return nil
	})
	if errors.Is(err, errTokenReplaced) || errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if verified {
		lg := logutil.GetOrDefault(ctx)
		lg.Info().Str("user_id", u.ID).Msg("email verified")
	}
	return verified, nil
}

// Resend is the outcome of a verification re-issue.  Both fields are zero
// when the email is unknown.
type Resend struct {
	AlreadyVerified bool
	VerifyLink      string
}

// Resend issues a fresh verification link for email, replacing any pending
// one.
func (s *AccountService) Resend(ctx context.Context, email string) (Resend, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Resend{}, nil
	}
	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return Resend{}, nil
	}
	if err != nil {
		return Resend{}, err
	}
	if u.IsVerified {
		return Resend{AlreadyVerified: true}, nil
	}

	token, err := utils.NewVerifyToken()
	if err != nil {
		return Resend{}, err
	}
	if _, err := s.Users.Update(ctx, u.ID, func(u *model.User) error {
		u.VerifyToken = token
		u.VerifyTokenExpires = s.now().Add(s.VerifyTTL).UnixMilli()
		return nil
	}); err != nil {
		return Resend{}, err
	}

	link := s.verifyLink(token)
	body := fmt.Sprintf("Hello,\n\nHere is a new verification link: %s\n\nThis link expires in %s.", link, humanTTL(s.VerifyTTL))
	s.send(ctx, email, "Confirm your email (new link)", body)
	return Resend{VerifyLink: link}, nil
}

// CreateAdmin stores a verified administrator.  Used by the operator CLI.
func (s *AccountService) CreateAdmin(ctx context.Context, name, email, password string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || len(password) < s.MinPasswordLen {
		return model.User{}, ErrInvalidInput
	}
	u, err := s.newUser(name, email, password)
	if err != nil {
		return model.User{}, err
	}
	u.IsAdmin = true
	u.IsVerified = true
	if err := s.Users.Create(ctx, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// Promote grants the admin flag to an existing account.
func (s *AccountService) Promote(ctx context.Context, email string) (model.User, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	return s.Users.Update(ctx, u.ID, func(u *model.User) error {
		u.IsAdmin = true
		return nil
	})
}

func (s *AccountService) newUser(name, email, password string) (model.User, error) {
	salt, err := utils.GenSalt()
	if err != nil {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(password, salt)
	if err != nil {
		return model.User{}, err
	}
	id, err := utils.NewUserID(email)
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:        id,
		Name:      name,
		Email:     email,
		PassHash:  hash,
		Salt:      salt,
		CreatedAt: s.now().UnixMilli(),
	}, nil
}

func (s *AccountService) verifyLink(token string) string {
	return s.BaseURL + "/v1/auth/verify?token=" + url.QueryEscape(token)
}

// send delivers a mail without failing the caller: the account change has
// already been stored and the user can ask for a new link.
func (s *AccountService) send(ctx context.Context, to, subject, body string) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(ctx, to, subject, body); err != nil {
		lg := logutil.GetOrDefault(ctx)
		lg.Error().Err(err).Msg("send mail failed")
	}
}

func humanTTL(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	}
	return d.String()
}
