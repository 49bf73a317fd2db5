package service

import (
	"strings"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/ikkim/restaurant-pos/pkg/util"
)

type UserInput struct {
	Username string         `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password string         `json:"password" validate:"required"`
	FullName string         `json:"full_name" validate:"required,max=100"`
	Role     model.UserRole `json:"role" validate:"required,oneof=admin manager cashier chef customer"`
}

// UserService manages login accounts. Staff accounts are created here;
// customers sign themselves up through AuthService.Register.
type UserService interface {
	CreateUser(in UserInput) (*model.User, error)
	GetUser(id uint) (*model.User, error)
	ListUsers(role *model.UserRole) ([]model.User, error)
	UpdateUser(id uint, fullName string, role model.UserRole) (*model.User, error)
	SetActive(id uint, active bool) (*model.User, error)
	ResetPassword(id uint, newPassword string) error
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func hashNewPassword(op, password string) (string, error) {
	if err := util.ValidatePassword(password); err != nil {
		return "", ErrWeakPassword.WithOp(op)
	}
	hash, err := util.HashPassword(password)
	if err != nil {
		return "", apperrors.Internal(op, err)
	}
	return hash, nil
}

func (s *userService) CreateUser(in UserInput) (*model.User, error) {
	const op = "user.CreateUser"

	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validateInput(op, in); err != nil {
		return nil, err
	}
	hash, err := hashNewPassword(op, in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         in.Role,
		Active:       true,
	}
	if err := s.repo.Create(user); err != nil {
		if apperrors.IsDuplicateKey(err) {
			return nil, ErrUsernameExists.WithOp(op)
		}
		return nil, apperrors.Storage(op, err)
	}

	logger.Info("User created", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
	return user, nil
}

func (s *userService) GetUser(id uint) (*model.User, error) {
	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB("user.GetUser", err, ErrUserNotFound)
	}
	return user, nil
}

func (s *userService) ListUsers(role *model.UserRole) ([]model.User, error) {
	if role != nil && !role.Valid() {
		return nil, apperrors.Validation("", "unknown role %q", *role)
	}
	users, err := s.repo.List(role)
	if err != nil {
		return nil, apperrors.Storage("user.ListUsers", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(id uint, fullName string, role model.UserRole) (*model.User, error) {
	const op = "user.UpdateUser"

	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apperrors.Validation(apperrors.ValidationRequired, "full name is required").WithOp(op)
	}
	if !role.Valid() {
		return nil, apperrors.Validation("", "unknown role %q", role).WithOp(op)
	}

	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrUserNotFound)
	}
	user.FullName = fullName
	user.Role = role
	if err := s.repo.Update(user); err != nil {
		return nil, apperrors.Storage(op, err)
	}

	logger.Info("User updated", map[string]interface{}{
		"user_id": id,
		"role":    role,
	})
	return user, nil
}

func (s *userService) SetActive(id uint, active bool) (*model.User, error) {
	const op = "user.SetActive"

	user, err := s.repo.FindByID(id)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrUserNotFound)
	}
	user.Active = active
	if err := s.repo.Update(user); err != nil {
		return nil, apperrors.Storage(op, err)
	}

	logger.Info("User activation changed", map[string]interface{}{
		"user_id": id,
		"active":  active,
	})
	return user, nil
}

func (s *userService) ResetPassword(id uint, newPassword string) error {
	const op = "user.ResetPassword"

	hash, err := hashNewPassword(op, newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(id, hash); err != nil {
		return apperrors.FromDB(op, err, ErrUserNotFound)
	}

	logger.Info("User password reset", map[string]interface{}{
		"user_id": id,
	})
	return nil
}
