package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"market-backend/internal/models"
	"market-backend/internal/repository"
	"market-backend/pkg/email"
	"market-backend/pkg/jwt"
	"market-backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepo     *repository.UserRepository
	jwtUtil      *jwt.JWTUtil
	emailService *email.EmailService
}

func NewAuthService(userRepo *repository.UserRepository, emailService *email.EmailService) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		jwtUtil:      jwt.NewJWTUtil(),
		emailService: emailService,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User  *models.AuthUser `json:"user"`
	Token string           `json:"token"`
}

func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(req.Email)
	if err != nil {
		return nil, errors.New("invalid credentials")
	}

	if user.Status != "active" {
		return nil, errors.New("account is not active")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	now := time.Now()
	user.LastLogin = &now
	s.userRepo.Update(user.ID.Hex(), user)

	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		User:  toAuthUser(user),
		Token: token,
	}, nil
}

func (s *AuthService) RefreshToken(userID string) (string, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "", errors.New("user not found")
	}

	if user.Status != "active" {
		return "", errors.New("account is not active")
	}

	token, err := s.jwtUtil.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return "", errors.New("failed to generate token")
	}

	return token, nil
}

func (s *AuthService) RefreshTokenFromString(tokenString string) (string, error) {
	newToken, err := s.jwtUtil.RefreshToken(tokenString)
	if err != nil {
		return "", errors.New("failed to refresh token")
	}
	return newToken, nil
}

func (s *AuthService) GetUserProfile(userID string) (*models.AuthUser, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if user.Status != "active" {
		return nil, errors.New("account is not active")
	}

	return toAuthUser(user), nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.AuthUser, error) {
	claims, err := s.jwtUtil.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, errors.New("user not found")
	}

	if user.Status != "active" {
		return nil, errors.New("account is not active")
	}

	return toAuthUser(user), nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword initiates the password reset flow. It never reveals whether
// the email belongs to an account.
func (s *AuthService) ForgotPassword(emailAddr string) error {
	user, err := s.userRepo.FindByEmail(emailAddr)
	if err != nil {
		logger.Logger().Debug("password reset requested for unknown email")
		return nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return errors.New("failed to generate reset token")
	}
	token := hex.EncodeToString(tokenBytes)

	// Store only the hash; the plaintext token travels in the email link.
	hashedToken, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash reset token")
	}

	expiry := time.Now().Add(24 * time.Hour)
	if err := s.userRepo.UpdatePasswordResetToken(emailAddr, string(hashedToken), expiry); err != nil {
		logger.Logger().Error("failed to store password reset token", zap.Error(err))
		return errors.New("failed to update reset token")
	}

	if err := s.emailService.SendPasswordResetEmail(user.Email, token); err != nil {
		logger.Logger().Error("failed to send password reset email", zap.Error(err))
		return errors.New("failed to send reset email")
	}

	return nil
}

type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// ResetPassword sets a new password for the account whose reset token matches.
// Tokens are stored hashed, so each candidate has to be compared individually.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return errors.New("failed to process reset request")
	}

	var matchedUser *models.User
	for _, user := range users {
		if user.PasswordResetToken == "" || user.PasswordResetExpiry == nil {
			continue
		}
		if user.PasswordResetExpiry.Before(time.Now()) {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordResetToken), []byte(token)); err == nil {
			matchedUser = user
			break
		}
	}

	if matchedUser == nil {
		return errors.New("invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.New("failed to hash new password")
	}

	matchedUser.Password = string(hashedPassword)
	matchedUser.UpdatedAt = time.Now()

	if _, err := s.userRepo.Update(matchedUser.ID.Hex(), matchedUser); err != nil {
		return errors.New("failed to update password")
	}

	if err := s.userRepo.ClearPasswordResetToken(matchedUser.ID.Hex()); err != nil {
		logger.Logger().Warn("failed to clear reset token after use", zap.Error(err))
	}

	return nil
}

func toAuthUser(user *models.User) *models.AuthUser {
	return &models.AuthUser{
		ID:        user.ID.Hex(),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
}
