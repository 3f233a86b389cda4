package services

import (
	"errors"
	"fmt"

	"tarp_ops/internal/apperrors"
	"tarp_ops/internal/models"
	"tarp_ops/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService interface {
	CreateUser(user *models.User, password string) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetAllUsers() ([]models.User, error)
	UpdateUserStatus(id uint, status models.UserStatus) (*models.User, error)
	DeleteUser(id uint) error
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) CreateUser(user *models.User, password string) error {
	if user.Name == "" || user.Email == "" {
		return apperrors.Validation("user", "", "name and email are required")
	}
	if existing, err := s.userRepo.GetByEmail(user.Email); err == nil && existing != nil {
		return apperrors.Validation("user", user.Email, "email is already in use")
	}
	if password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}
	if user.Role == "" {
		user.Role = string(models.RoleStaff)
	}
	if user.Status == "" {
		user.Status = string(models.UserActive)
	}
	return s.userRepo.Create(user)
}

func (s *userService) GetUserByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", fmt.Sprint(id))
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.userRepo.GetByEmail(email)
}

func (s *userService) GetAllUsers() ([]models.User, error) {
	return s.userRepo.GetAll()
}

func (s *userService) UpdateUserStatus(id uint, status models.UserStatus) (*models.User, error) {
	if status != models.UserActive && status != models.UserInactive {
		return nil, apperrors.Validation("user", fmt.Sprint(id), "status must be active or inactive")
	}
	user, err := s.GetUserByID(id)
	if err != nil {
		return nil, err
	}
	user.Status = string(status)
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) DeleteUser(id uint) error {
	if _, err := s.GetUserByID(id); err != nil {
		return err
	}
	return s.userRepo.Delete(id)
}
