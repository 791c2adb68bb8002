package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/thep200/ecommerce-api/cfg"
	"github.com/thep200/ecommerce-api/internal/apperr"
	"github.com/thep200/ecommerce-api/internal/model"
	"github.com/thep200/ecommerce-api/pkg/db"
	"github.com/thep200/ecommerce-api/pkg/log"
	"github.com/thep200/ecommerce-api/pkg/mail"
)

const (
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgInvalidRefresh     = "Invalid refresh token"
	MsgInvalidReset       = "Invalid or expired reset token"
	MsgResetEmailSent     = "Password reset email sent"
	MsgResetSuccessful    = "Password reset successful"
	MsgUserNotFound       = "User not found"
)

// maxUsersPage giữ offset (page-1)*limit không bị tràn
const maxUsersPage = math.MaxInt32 / 100

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
}

type ProfileInput struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type AuthResult struct {
	User   UserSummary `json:"user"`
	Tokens *TokenPair  `json:"tokens"`
}

func Summarize(u *model.User) UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

type Service struct {
	Config *cfg.Config
	Logger log.Logger
	Tokens *TokenManager
	users  *model.User
	mailer mail.Mailer
	now    func() time.Time
}

func NewService(config *cfg.Config, logger log.Logger, mysql *db.Mysql, tokens *TokenManager, mailer mail.Mailer) (*Service, error) {
	users, err := model.NewUser(config, logger, mysql)
	if err != nil {
		return nil, err
	}
	return &Service{
		Config: config,
		Logger: logger,
		Tokens: tokens,
		users:  users,
		mailer: mailer,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func isAlnum(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func validEmail(s string) bool {
	addr, err := netmail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

func (in *RegisterInput) Validate() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	switch {
	case in.Username == "":
		return apperr.Validation(`"username" is required`)
	case len(in.Username) < 3 || len(in.Username) > 30:
		return apperr.Validation(`"username" length must be between 3 and 30 characters`)
	case !isAlnum(in.Username):
		return apperr.Validation(`"username" must only contain alpha-numeric characters`)
	case in.Email == "":
		return apperr.Validation(`"email" is required`)
	case !validEmail(in.Email):
		return apperr.Validation(`"email" must be a valid email`)
	case in.Password == "":
		return apperr.Validation(`"password" is required`)
	case len(in.Password) < 6:
		return apperr.Validation(`"password" length must be at least 6 characters long`)
	case len([]rune(in.FullName)) > 100:
		return apperr.Validation(`"fullName" length must be less than or equal to 100 characters long`)
	case len([]rune(in.Phone)) > 20:
		return apperr.Validation(`"phone" length must be less than or equal to 20 characters long`)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.Validation(MsgUserExists)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hash,
		FullName: in.FullName,
		Phone:    in.Phone,
		Role:     model.RoleUser,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.Tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendWelcome(ctx, user.Email, user.DisplayName()); err != nil {
		s.Logger.Warn(ctx, "Failed to send welcome email to user %d: %v", user.ID, err)
	}

	return &AuthResult{User: Summarize(user), Tokens: tokens}, nil
}

// Login chấp nhận email hoặc username của user đang hoạt động
func (s *Service) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	if strings.TrimSpace(login) == "" {
		return nil, apperr.Validation(`"email" is required`)
	}
	if password == "" {
		return nil, apperr.Validation(`"password" is required`)
	}

	user, err := s.users.FindActiveByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperr.Unauthorized(MsgInvalidCredentials)
		}
		return nil, err
	}
	if !ComparePassword(user.Password, password) {
		return nil, apperr.Unauthorized(MsgInvalidCredentials)
	}

	tokens, err := s.Tokens.IssuePair(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: Summarize(user), Tokens: tokens}, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperr.Validation("Refresh token required")
	}
	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, MsgInvalidRefresh, err)
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		if err != nil && !errors.Is(err, model.ErrNotFound) {
			s.Logger.Error(ctx, "Failed to load user %d for refresh: %v", claims.UserID, err)
		}
		return nil, apperr.Unauthorized(MsgInvalidRefresh)
	}
	return s.Tokens.IssuePair(user.ID)
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// ForgotPassword luôn trả về cùng một thông báo để không lộ email nào đã đăng ký
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", apperr.Validation("Email is required")
	}

	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.Logger.Info(ctx, "Password reset requested for unknown email")
			return MsgResetEmailSent, nil
		}
		return "", err
	}

	token, err := newResetToken()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(time.Duration(s.Config.Jwt.ResetTokenMinutes) * time.Minute)
	user.ResetPasswordToken = &token
	user.ResetPasswordExpires = &expires
	if err := s.users.Save(ctx, user); err != nil {
		return "", err
	}

	// trả cùng một thông báo dù gửi mail lỗi, tránh lộ email nào đã đăng ký
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.Logger.Error(ctx, "Failed to send password reset email to user %d: %v", user.ID, err)
	}
	return MsgResetEmailSent, nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" || newPassword == "" {
		return "", apperr.Validation("Token and new password are required")
	}
	if len(newPassword) < 6 {
		return "", apperr.Validation("Password must be at least 6 characters")
	}

	user, err := s.users.FindByResetToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", apperr.Validation(MsgInvalidReset)
		}
		return "", err
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return "", err
	}
	user.Password = hash
	user.ResetPasswordToken = nil
	user.ResetPasswordExpires = nil
	if err := s.users.Save(ctx, user); err != nil {
		return "", err
	}
	s.Logger.Info(ctx, "Password reset for user %d", user.ID)
	return MsgResetSuccessful, nil
}

func (s *Service) Profile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperr.NotFound(MsgUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile giữ nguyên các trường được gửi lên rỗng
func (s *Service) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*model.User, error) {
	if len([]rune(in.FullName)) > 100 {
		return nil, apperr.Validation(`"fullName" length must be less than or equal to 100 characters long`)
	}
	if len([]rune(in.Phone)) > 20 {
		return nil, apperr.Validation(`"phone" length must be less than or equal to 20 characters long`)
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FullName != "" {
		user.FullName = in.FullName
	}
	if in.Phone != "" {
		user.Phone = in.Phone
	}
	if in.Address != "" {
		user.Address = model.TruncateString(in.Address, 255)
	}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if page > maxUsersPage {
		page = maxUsersPage
	}
	return s.users.List(ctx, (page-1)*limit, limit)
}

// Authenticate trả về user của access token, dùng cho middleware
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.Tokens.ParseAccess(tokenString)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindUnauthorized, "Token expired", err)
		}
		return nil, apperr.Wrap(apperr.KindUnauthorized, "Invalid token", err)
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, apperr.Unauthorized("Invalid token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.Unauthorized("Invalid token")
	}
	return user, nil
}
