package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"salespipe/internal/authz"
	"salespipe/internal/models"
	"salespipe/internal/repositories"
)

type UserService interface {
	CreateUserWithPassword(user *models.User, plainPassword string) error
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	ListUsers(limit, offset int) ([]*models.User, error)
}

type userService struct {
	repo  repositories.UserRepository
	email EmailService
}

func NewUserService(repo repositories.UserRepository, email EmailService) UserService {
	return &userService{repo: repo, email: email}
}

func (s *userService) CreateUserWithPassword(user *models.User, plainPassword string) error {
	if strings.TrimSpace(plainPassword) == "" {
		return fmt.Errorf("password is required")
	}
	if _, err := authz.ParseRole(string(user.Role)); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("bcrypt generate: %w", err)
	}
	user.ID = uuid.NewString()
	user.PasswordHash = string(hash)
	user.CreatedAt = time.Now()

	if err := s.repo.Create(user); err != nil {
		return err
	}
	if s.email != nil {
		// warn but do not fail creation
		if err := s.email.SendWelcomeEmail(user.Email, user.Name); err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("[users] welcome email failed")
		}
	}
	return nil
}

func (s *userService) GetUserByID(id string) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(strings.TrimSpace(email))
}

func (s *userService) ListUsers(limit, offset int) ([]*models.User, error) {
	return s.repo.List(limit, offset)
}
