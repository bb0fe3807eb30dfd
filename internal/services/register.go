package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/notify"

	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const confirmationTokenTTL = 10 * time.Minute

type RegistrationRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type RegisterService interface {
	RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error)
	ConfirmAccount(db *gorm.DB, token string) error
	ResendConfirmation(db *gorm.DB, email string) error
}

type RegisterServiceImpl struct {
	mailer notify.Dispatcher
	logger *slog.Logger
}

func NewRegisterService(mailer notify.Dispatcher, logger *slog.Logger) *RegisterServiceImpl {
	return &RegisterServiceImpl{mailer: mailer, logger: logger}
}

// RegisterUser creates an unconfirmed account and dispatches a confirmation
// email. A duplicate email is ErrEmailTaken regardless of confirmation state.
// Email dispatch is best-effort: registration succeeds even if it fails.
func (s *RegisterServiceImpl) RegisterUser(db *gorm.DB, req RegistrationRequest) (*models.User, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))

	var existing models.User
	err := db.Where("LOWER(email) = ?", email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := generateToken(6)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(confirmationTokenTTL)

	user := models.User{
		ID:             uuid.Must(uuid.NewV4()),
		Email:          email,
		Name:           strings.TrimSpace(req.Name),
		Password:       string(hash),
		Confirmed:      false,
		Token:          token,
		TokenExpiresAt: &expires,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.mailer.Dispatch(notify.Message{
		Kind:  notify.ConfirmationEmail,
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	})

	s.logger.Info("user registered", slog.String("email", user.Email))
	return &user, nil
}

// ConfirmAccount consumes a confirmation token. The token is single-use: a
// successful confirmation clears it.
func (s *RegisterServiceImpl) ConfirmAccount(db *gorm.DB, token string) error {
	user, err := findByToken(db, token)
	if err != nil {
		return err
	}

	user.Confirmed = true
	user.Token = ""
	user.TokenExpiresAt = nil
	if err := db.Save(user).Error; err != nil {
		return err
	}

	s.logger.Info("account confirmed", slog.String("email", user.Email))
	return nil
}

// ResendConfirmation issues a fresh token for an unconfirmed account. To
// avoid leaking which addresses are registered, unknown and already-confirmed
// emails both answer ErrTokenInvalid.
func (s *RegisterServiceImpl) ResendConfirmation(db *gorm.DB, email string) error {
	var user models.User
	normalized := strings.TrimSpace(strings.ToLower(email))
	err := db.Where("LOWER(email) = ?", normalized).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTokenInvalid
	}
	if err != nil {
		return err
	}
	if user.Confirmed {
		return ErrTokenInvalid
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
		Kind:  notify.ConfirmationEmail,
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	})
	return nil
}

func findByToken(db *gorm.DB, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	var user models.User
	err := db.Where("token = ?", token).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if user.TokenExpiresAt == nil || time.Now().After(*user.TokenExpiresAt) {
		return nil, ErrTokenInvalid
	}
	return &user, nil
}

// generateToken returns n random decimal digits, the shape of token users
// type back from the confirmation and reset emails.
func generateToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	for i := range buf {
		buf[i] = '0' + (buf[i] % 10)
	}
	return string(buf), nil
}
