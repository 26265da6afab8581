package services

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"quizio/errs"
	"quizio/logger"
	"quizio/models"
)

const bcryptCost = 10

type AuthService struct {
	db     *gorm.DB
	tokens *TokenIssuer
}

func NewAuthService(db *gorm.DB, tokens *TokenIssuer) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
	Role string `json:"role"`
	Bio  string `json:"bio"`
}

// AuthUser is the identity returned by signup and login.
type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// SessionUser is the public profile returned by session and profile reads.
// It never includes the password hash.
type SessionUser struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	Bio       string `json:"bio,omitempty"`
	CreatedAt string `json:"created_at"`
}

// PublicUser is the minimal projection exposed to other users.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *AuthService) Signup(req *SignupRequest) (*AuthUser, error) {
	var existing models.User
	err := s.db.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, errs.New(errs.CodeConflict, "Email already in use")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to create account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to create account")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(&user).Error; err != nil {
		// The unique index on email is the source of truth; the lookup
		// above is only a fast path.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.New(errs.CodeConflict, "Email already in use")
		}
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to create account")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, Token: token}, nil
}

func (s *AuthService) Login(req *LoginRequest) (*AuthUser, error) {
	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.CodeNotFound, "No account found with this email")
		}
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to log in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errs.New(errs.CodeUnauthorized, "Incorrect password")
	}

	// A fresh token per login; earlier tokens stay valid until expiry.
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthUser{ID: user.ID, Name: user.Name, Email: user.Email, Token: token}, nil
}

// GetSession resolves a cookie token to its user. This is a soft check:
// a missing, invalid or expired token, or a vanished user, yields a nil
// user without an error. Failure reasons are only logged.
func (s *AuthService) GetSession(token string) (*SessionUser, error) {
	if token == "" {
		return nil, nil
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		logger.L().Debug("session token rejected", zap.Error(err))
		return nil, nil
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.L().Debug("session user no longer exists", zap.String("user_id", userID))
			return nil, nil
		}
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to fetch session")
	}

	return sessionUser(&user), nil
}

// GetProfile returns the full public profile of an authenticated user.
func (s *AuthService) GetProfile(userID string) (*SessionUser, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.CodeNotFound, "User not found")
		}
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to fetch profile")
	}
	return sessionUser(&user), nil
}

// UpdateProfile changes name, role and bio. Email and password are
// immutable here.
func (s *AuthService) UpdateProfile(userID string, req *UpdateProfileRequest) (*SessionUser, error) {
	updates := map[string]interface{}{
		"name": req.Name,
		"role": req.Role,
		"bio":  req.Bio,
	}

	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return nil, errs.Wrap(result.Error, errs.CodeInternal, "Failed to update profile")
	}
	if result.RowsAffected == 0 {
		return nil, errs.New(errs.CodeNotFound, "User not found")
	}

	return s.GetProfile(userID)
}

func (s *AuthService) GetUserByID(id string) (*PublicUser, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.New(errs.CodeNotFound, "User not found")
		}
		return nil, errs.Wrap(err, errs.CodeInternal, "Failed to fetch user")
	}
	return &PublicUser{ID: user.ID, Name: user.Name, Email: user.Email}, nil
}

func (s *AuthService) GetUsernameByID(id string) (string, error) {
	user, err := s.GetUserByID(id)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

func sessionUser(user *models.User) *SessionUser {
	return &SessionUser{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		Bio:       user.Bio,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
