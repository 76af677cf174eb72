package services

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bandchat/config"
	"bandchat/models"
	"bandchat/repository"
	"bandchat/utils"
)

type AuthService struct {
	users  repository.UserRepository
	config *config.ServerConfig
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.ServerConfig) *AuthService {
	return &AuthService{users: userRepo, config: cfg}
}

func (s *AuthService) Register(username, password string) (*models.User, error) {
	if len(username) < 3 || len(username) > 20 {
		return nil, fmt.Errorf("%w: username must be between 3 and 20 characters", ErrInvalid)
	}
	if len(password) < 6 || len(password) > 72 {
		return nil, fmt.Errorf("%w: password must be between 6 and 72 characters", ErrInvalid)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Create(username, string(hashed))
	if errors.Is(err, repository.ErrUserExists) {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return u, err
}

func (s *AuthService) Login(username, password string) (string, *models.User, error) {
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", ErrInvalid)
	}

	u, err := s.users.FindByUsername(username)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrForbidden)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return "", nil, fmt.Errorf("%w: invalid credentials", ErrForbidden)
	}
	token, err := s.CreateToken(u.ID, u.Username)
	return token, u, err
}

func (s *AuthService) CreateToken(userID int64, username string) (string, error) {
	expiry := time.Duration(s.config.JWTExpiry) * time.Hour
	return utils.GenerateJWT(s.config.JWTSecret, userID, username, expiry)
}

func (s *AuthService) ParseToken(token string) (*utils.Claims, error) {
	return utils.ParseJWT(s.config.JWTSecret, token)
}
