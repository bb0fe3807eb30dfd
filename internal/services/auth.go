package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/notify"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService interface {
	LoginUser(db *gorm.DB, email, password string) (*models.User, error)
	GenerateToken(db *gorm.DB, userID uuid.UUID) (string, string, error)
	RefreshToken(db *gorm.DB, refreshToken string) (string, string, int64, error)
	RevokeToken(db *gorm.DB, refreshToken string) error
	ForgotPassword(db *gorm.DB, email string) error
	ValidateResetToken(db *gorm.DB, token string) error
	ResetPassword(db *gorm.DB, token, newPassword string) error
	ChangePassword(db *gorm.DB, user *models.User, currentPassword, newPassword string) error
}

type AuthServiceImpl struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	mailer     notify.Dispatcher
	logger     *slog.Logger
}

func NewAuthService(secret string, accessTTL, refreshTTL time.Duration, mailer notify.Dispatcher, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		secret:     []byte(secret),
		issuer:     "uptask-backend",
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		mailer:     mailer,
		logger:     logger,
	}
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

// LoginUser checks credentials for a confirmed account. Unknown email and
// wrong password both answer ErrUnauthorized; an unconfirmed account answers
// ErrNotConfirmed so the client can offer a resend.
func (s *AuthServiceImpl) LoginUser(db *gorm.DB, email, password string) (*models.User, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))

	var user models.User
	err := db.Where("LOWER(email) = ?", normalized).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if !VerifyPassword(user.Password, password) {
		return nil, ErrUnauthorized
	}
	if !user.Confirmed {
		return nil, ErrNotConfirmed
	}
	return &user, nil
}

// GenerateToken issues an access/refresh pair. The refresh token's JTI is
// persisted so it can be rotated and revoked server-side.
func (s *AuthServiceImpl) GenerateToken(db *gorm.DB, userID uuid.UUID) (string, string, error) {
	now := time.Now()

	accessClaims := jwt.MapClaims{
		"user_id": userID.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(s.accessTTL).Unix(),
		"iss":     s.issuer,
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign access token: %w", err)
	}

	jti, err := uuid.NewV4()
	if err != nil {
		return "", "", fmt.Errorf("generate jti: %w", err)
	}

	refreshExpiry := now.Add(s.refreshTTL)
	refreshClaims := jwt.MapClaims{
		"user_id": userID.String(),
		"type":    "refresh",
		"jti":     jti.String(),
		"iat":     now.Unix(),
		"exp":     refreshExpiry.Unix(),
		"iss":     s.issuer,
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.secret)
	if err != nil {
		return "", "", fmt.Errorf("sign refresh token: %w", err)
	}

	record := models.Token{
		ID:           uuid.Must(uuid.NewV4()),
		UserID:       userID,
		JTI:          jti,
		RefreshToken: refreshToken,
		ExpiresAt:    refreshExpiry,
	}
	if err := db.Create(&record).Error; err != nil {
		return "", "", fmt.Errorf("persist refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// RefreshToken rotates a refresh token: the presented token must parse, be of
// refresh type, and still exist unexpired in the store. The old record is
// deleted once the new pair is issued.
func (s *AuthServiceImpl) RefreshToken(db *gorm.DB, refreshToken string) (string, string, int64, error) {
	claims, err := s.parseRefreshClaims(refreshToken)
	if err != nil {
		return "", "", 0, err
	}

	jti, userID, err := refreshIdentity(claims)
	if err != nil {
		return "", "", 0, err
	}

	var record models.Token
	err = db.Where("jti = ? AND user_id = ? AND expires_at > ?", jti, userID, time.Now()).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", 0, ErrUnauthorized
	}
	if err != nil {
		return "", "", 0, err
	}

	accessToken, newRefreshToken, err := s.GenerateToken(db, userID)
	if err != nil {
		return "", "", 0, err
	}

	if err := db.Delete(&record).Error; err != nil {
		return "", "", 0, fmt.Errorf("delete rotated token: %w", err)
	}

	return accessToken, newRefreshToken, int64(s.accessTTL.Seconds()), nil
}

// RevokeToken deletes the refresh-token record named by the token's JTI.
func (s *AuthServiceImpl) RevokeToken(db *gorm.DB, refreshToken string) error {
	claims, err := s.parseRefreshClaims(refreshToken)
	if err != nil {
		return err
	}
	jti, _, err := refreshIdentity(claims)
	if err != nil {
		return err
	}
	return db.Where("jti = ?", jti).Delete(&models.Token{}).Error
}

// ForgotPassword issues a reset token and dispatches the reset email. Unknown
// emails succeed silently so the endpoint cannot be used to probe addresses.
func (s *AuthServiceImpl) ForgotPassword(db *gorm.DB, email string) error {
	normalized := strings.TrimSpace(strings.ToLower(email))

	var user models.User
	err := db.Where("LOWER(email) = ?", normalized).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := generateToken(6)
	if err != nil {
		return err
	}
	expires := time.Now().Add(confirmationTokenTTL)
	user.Token = token
	user.TokenExpiresAt = &expires
	if err := db.Save(&user).Error; err != nil {
		return err
	}

	s.mailer.Dispatch(notify.Message{
		Kind:  notify.PasswordResetEmail,
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	})

	s.logger.Info("password reset requested", slog.String("email", user.Email))
	return nil
}

// ValidateResetToken checks a reset token without consuming it.
func (s *AuthServiceImpl) ValidateResetToken(db *gorm.DB, token string) error {
	_, err := findByToken(db, token)
	return err
}

// ResetPassword consumes a reset token and installs the new credential. All
// outstanding refresh tokens for the user are revoked.
func (s *AuthServiceImpl) ResetPassword(db *gorm.DB, token, newPassword string) error {
	user, err := findByToken(db, token)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		user.Password = string(hash)
		user.Token = ""
		user.TokenExpiresAt = nil
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", user.ID).Delete(&models.Token{}).Error
	})
}

// ChangePassword is the authenticated variant: the current password must
// verify before the new one is installed.
func (s *AuthServiceImpl) ChangePassword(db *gorm.DB, user *models.User, currentPassword, newPassword string) error {
	if !VerifyPassword(user.Password, currentPassword) {
		return ErrUnauthorized
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hash)
	return db.Save(user).Error
}

func (s *AuthServiceImpl) parseRefreshClaims(refreshToken string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthorized
	}
	if kind, _ := claims["type"].(string); kind != "refresh" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

func refreshIdentity(claims jwt.MapClaims) (jti, userID uuid.UUID, err error) {
	jtiStr, ok := claims["jti"].(string)
	if !ok {
		return uuid.Nil, uuid.Nil, ErrUnauthorized
	}
	jti, err = uuid.FromString(jtiStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrUnauthorized
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, uuid.Nil, ErrUnauthorized
	}
	userID, err = uuid.FromString(userIDStr)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrUnauthorized
	}
	return jti, userID, nil
}
