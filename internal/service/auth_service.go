package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qs3c/quran_app_server/config"
	"github.com/qs3c/quran_app_server/internal/model"
	"github.com/qs3c/quran_app_server/internal/model/dto"
	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
	"github.com/qs3c/quran_app_server/internal/pkg/credential"
	"github.com/qs3c/quran_app_server/internal/pkg/jwt"
	"github.com/qs3c/quran_app_server/internal/repository"
)

var (
	ErrEmailExists         = apperr.Conflict("EMAIL_EXISTS", "email is already registered")
	ErrWeakPassword        = apperr.Validation("WEAK_PASSWORD", "password does not meet the requirements")
	ErrInvalidCredentials  = apperr.Authentication("INVALID_CREDENTIALS", "invalid email or password")
	ErrEmailNotVerified    = apperr.Authorization("EMAIL_NOT_VERIFIED", "email address has not been verified")
	ErrInvalidToken        = apperr.Validation("INVALID_TOKEN", "token is invalid or has expired")
	ErrInvalidRefreshToken = apperr.Authentication("INVALID_TOKEN", "refresh token is invalid or has expired")
	ErrUserNotFound        = apperr.NotFound("USER_NOT_FOUND", "user not found")
)

// Mailer 发送验证与重置邮件
type Mailer interface {
	SendVerification(ctx context.Context, to, token string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// RegisterResult 注册结果。验证令牌只用于投递，不返回给客户端
type RegisterResult struct {
	UserID            int64
	VerificationToken string
}

type AuthService struct {
	userRepo  *repository.UserRepository
	tokenRepo *repository.TokenRepository
	jwt       *jwt.Manager
	refresh   RefreshTokenStore
	limiter   RequestLimiter
	mailer    Mailer
	cfg       config.AuthConfig
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthService(
	userRepo *repository.UserRepository,
	tokenRepo *repository.TokenRepository,
	jwtManager *jwt.Manager,
	refresh RefreshTokenStore,
	limiter RequestLimiter,
	mailer Mailer,
	cfg *config.Config,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwt:       jwtManager,
		refresh:   refresh,
		limiter:   limiter,
		mailer:    mailer,
		cfg:       cfg.Auth,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func weakPassword(password string) error {
	result := credential.ValidatePasswordStrength(password)
	if result.IsValid {
		return nil
	}
	fields := make([]apperr.FieldError, 0, len(result.Errors))
	for _, msg := range result.Errors {
		fields = append(fields, apperr.FieldError{Field: "password", Message: msg})
	}
	return ErrWeakPassword.WithFields(fields...)
}

func (s *AuthService) verificationTTL() time.Duration {
	if s.cfg.VerificationTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.cfg.VerificationTTLHours) * time.Hour
}

func (s *AuthService) resetTTL() time.Duration {
	if s.cfg.ResetTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.cfg.ResetTTLMinutes) * time.Minute
}

// Register 用户注册。邮件发送失败只记日志，不影响注册结果
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*RegisterResult, error) {
	if err := weakPassword(req.Password); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	exists, err := s.userRepo.ExistsByEmail(email)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, ErrEmailExists
	}

	hash, err := credential.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	token, tokenHash, err := newOpaqueToken()
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Tier:         model.TierFree,
	}
	// 用户与验证令牌同一事务写入，令牌写入失败时不留下无法验证的账号
	err = s.userRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		_, err := s.tokenRepo.WithTx(tx).Issue(user.ID, model.PurposeEmailVerification, tokenHash, s.now().Add(s.verificationTTL()))
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailExists
		}
		return nil, apperr.Internal(err)
	}

	if err := s.mailer.SendVerification(ctx, user.Email, token); err != nil {
		s.log.Warn("failed to send verification email", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return &RegisterResult{UserID: user.ID, VerificationToken: token}, nil
}

func newOpaqueToken() (token, hash string, err error) {
	token, err = credential.GenerateToken()
	if err != nil {
		return "", "", err
	}
	return token, credential.HashToken(token), nil
}

func (s *AuthService) issueToken(userID int64, purpose string, ttl time.Duration) (string, error) {
	token, hash, err := newOpaqueToken()
	if err != nil {
		return "", err
	}
	if _, err := s.tokenRepo.Issue(userID, purpose, hash, s.now().Add(ttl)); err != nil {
		return "", err
	}
	return token, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// 邮箱不存在时也做一次 bcrypt 比较，避免通过响应时间判断邮箱是否注册
func compareDummyHash(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = credential.HashPassword("dummy-password-for-timing")
	})
	credential.VerifyPassword(password, dummyHash)
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			compareDummyHash(req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}

	if !credential.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if s.cfg.RequireVerifiedEmail && !user.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	if err := s.userRepo.TouchLastLogin(user.ID, s.now()); err != nil {
		return nil, apperr.Internal(err)
	}

	return s.issuePair(ctx, user.ID)
}

func (s *AuthService) issuePair(ctx context.Context, userID int64) (*dto.TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, jti, err := s.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if err := s.refresh.Store(ctx, jti, userID, s.jwt.RefreshTTL()); err != nil {
		return nil, apperr.Internal(err)
	}

	return &dto.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwt.AccessTTL().Seconds()),
		TokenType:    "Bearer",
	}, nil
}

// VerifyEmail 消费验证令牌并标记邮箱已验证
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	_, err := s.tokenRepo.Consume(model.PurposeEmailVerification, credential.HashToken(token), s.now(),
		func(tx *gorm.DB, t *model.AuthToken) error {
			return s.userRepo.WithTx(tx).MarkEmailVerified(t.UserID)
		})
	return s.tokenError(err)
}

func (s *AuthService) tokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrTokenInvalid), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrInvalidToken
	default:
		return apperr.Internal(err)
	}
}

// ResendVerification 重新发送验证邮件。无论邮箱是否存在都返回成功
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !s.limiter.Allow(ctx, "verify:"+email) {
		s.log.Info("verification resend rate limited", zap.String("email", email))
		return nil
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperr.Internal(err)
	}
	if user.EmailVerified {
		return nil
	}

	token, err := s.issueToken(user.ID, model.PurposeEmailVerification, s.verificationTTL())
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.mailer.SendVerification(ctx, user.Email, token); err != nil {
		s.log.Warn("failed to send verification email", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// RequestPasswordReset 申请重置密码。无论邮箱是否存在都返回成功
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !s.limiter.Allow(ctx, "reset:"+email) {
		s.log.Info("password reset request rate limited", zap.String("email", email))
		return nil
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperr.Internal(err)
	}

	token, err := s.issueToken(user.ID, model.PurposePasswordReset, s.resetTTL())
	if err != nil {
		return apperr.Internal(err)
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.log.Warn("failed to send password reset email", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return nil
}

// ResetPassword 校验新密码后消费重置令牌并更新密码。
// 已签发的刷新令牌不随之失效，到期自然过期。
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := weakPassword(newPassword); err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}

	hash, err := credential.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal(err)
	}

	_, err = s.tokenRepo.Consume(model.PurposePasswordReset, credential.HashToken(token), s.now(),
		func(tx *gorm.DB, t *model.AuthToken) error {
			return s.userRepo.WithTx(tx).UpdatePassword(t.UserID, hash)
		})
	return s.tokenError(err)
}

// RefreshToken 轮换刷新令牌：旧 jti 作废并签发新的一对
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenPair, error) {
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	ok, err := s.refresh.Consume(ctx, claims.ID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, ErrInvalidRefreshToken
	}

	if _, err := s.userRepo.GetByID(claims.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, apperr.Internal(err)
	}

	return s.issuePair(ctx, claims.UserID)
}

// Logout 吊销刷新令牌，重复调用无副作用
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.ParseRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return nil
		}
		return ErrInvalidToken
	}

	if err := s.refresh.Revoke(ctx, claims.ID); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// GetUserByID 用户不存在时返回 nil, nil
func (s *AuthService) GetUserByID(id int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal(err)
	}
	return toUserInfo(user), nil
}

func toUserInfo(user *model.User) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:            user.ID,
		Email:         user.Email,
		DisplayName:   user.DisplayName,
		EmailVerified: user.EmailVerified,
		Tier:          user.Tier,
		CreatedAt:     user.CreatedAt.UTC().Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		s := user.LastLoginAt.UTC().Format(time.RFC3339)
		info.LastLoginAt = &s
	}
	return info
}
