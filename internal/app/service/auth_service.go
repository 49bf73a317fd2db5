package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/internal/app/repository"
	apperrors "github.com/ikkim/restaurant-pos/internal/errors"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/ikkim/restaurant-pos/pkg/util"
	"gorm.io/gorm"
)

// TokenBlacklist revokes token ids; *redis.Client satisfies it.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error)
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,min=6,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// Profile is the signed-in account plus whichever domain record it owns.
type Profile struct {
	User     *model.User     `json:"user"`
	Customer *model.Customer `json:"customer,omitempty"`
	Employee *model.Employee `json:"employee,omitempty"`
}

type AuthService interface {
	Register(in RegisterInput) (*model.User, *util.TokenPair, error)
	Login(username, password string) (*model.User, *util.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, claims *util.Claims) error
	Authenticate(ctx context.Context, accessToken string) (*util.Claims, error)
	ChangePassword(userID uint, oldPassword, newPassword string) error
	Me(userID uint) (*Profile, error)
}

type authService struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	customerRepo  repository.CustomerRepository
	employeeRepo  repository.EmployeeRepository
	blacklist     TokenBlacklist
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewAuthService wires authentication. blacklist may be nil, in which case
// Logout cannot revoke tokens before they expire.
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	customerRepo repository.CustomerRepository,
	employeeRepo repository.EmployeeRepository,
	blacklist TokenBlacklist,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		db:            db,
		userRepo:      userRepo,
		customerRepo:  customerRepo,
		employeeRepo:  employeeRepo,
		blacklist:     blacklist,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// Register signs up a customer account. A walk-in customer record with the
// same phone and no account yet is claimed instead of duplicated.
func (s *authService) Register(in RegisterInput) (*model.User, *util.TokenPair, error) {
	const op = "auth.Register"

	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = normalizePhone(in.Phone)
	in.Email = strings.TrimSpace(in.Email)

	logger.Info("Attempting customer registration", map[string]interface{}{
		"username": in.Username,
	})

	if err := validateInput(op, in); err != nil {
		return nil, nil, err
	}
	hash, err := hashNewPassword(op, in.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		Username:     in.Username,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         model.RoleCustomer,
		Active:       true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			if apperrors.IsDuplicateKey(err) {
				return ErrUsernameExists.WithOp(op)
			}
			return apperrors.Storage(op, err)
		}

		customers := s.customerRepo.WithTx(tx)
		existing, err := customers.FindByPhone(in.Phone)
		switch {
		case err == nil:
			if existing.UserID != nil {
				return ErrPhoneExists.WithOp(op)
			}
			existing.UserID = &user.ID
			existing.Name = in.FullName
			if in.Email != "" {
				existing.Email = in.Email
			}
			if err := customers.Update(existing); err != nil {
				return apperrors.Storage(op, err)
			}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			customer := &model.Customer{UserID: &user.ID, Name: in.FullName, Phone: in.Phone, Email: in.Email}
			if err := customers.Create(customer); err != nil {
				if apperrors.IsDuplicateKey(err) {
					return ErrPhoneExists.WithOp(op)
				}
				return apperrors.Storage(op, err)
			}
			return nil
		default:
			return apperrors.Storage(op, err)
		}
	})
	if err != nil {
		logger.Warn("Registration failed", map[string]interface{}{
			"username": in.Username,
			"error":    err.Error(),
		})
		return nil, nil, err
	}

	tokens, err := s.issue(op, user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Customer registered successfully", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, tokens, nil
}

func (s *authService) Login(username, password string) (*model.User, *util.TokenPair, error) {
	const op = "auth.Login"

	username = strings.ToLower(strings.TrimSpace(username))
	logger.Info("Login attempt", map[string]interface{}{
		"username": username,
	})

	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"username": username,
			})
			return nil, nil, ErrInvalidCredentials.WithOp(op)
		}
		return nil, nil, apperrors.Storage(op, err)
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials.WithOp(op)
	}
	if !user.Active {
		return nil, nil, ErrAccountDisabled.WithOp(op)
	}

	now := time.Now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		logger.Warn("Failed to record last login", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	} else {
		user.LastLoginAt = &now
	}

	tokens, err := s.issue(op, user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	const op = "auth.Refresh"

	claims, err := s.verify(ctx, op, refreshToken, util.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken.WithOp(op)
		}
		return nil, apperrors.Storage(op, err)
	}
	if !user.Active {
		return nil, ErrAccountDisabled.WithOp(op)
	}

	s.revoke(ctx, claims)
	return s.issue(op, user)
}

// Logout revokes the presented access token for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return ErrInvalidToken.WithOp("auth.Logout")
	}
	s.revoke(ctx, claims)
	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

// Authenticate validates an access token for the auth middleware.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*util.Claims, error) {
	return s.verify(ctx, "auth.Authenticate", accessToken, util.TokenTypeAccess)
}

func (s *authService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	const op = "auth.ChangePassword"

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return apperrors.FromDB(op, err, ErrUserNotFound)
	}
	if !util.VerifyPassword(user.PasswordHash, oldPassword) {
		return ErrInvalidCredentials.WithOp(op).WithMessage("current password is incorrect")
	}
	hash, err := hashNewPassword(op, newPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(userID, hash); err != nil {
		return apperrors.FromDB(op, err, ErrUserNotFound)
	}

	logger.Info("Password changed", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

func (s *authService) Me(userID uint) (*Profile, error) {
	const op = "auth.Me"

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, apperrors.FromDB(op, err, ErrUserNotFound)
	}
	profile := &Profile{User: user}

	if user.Role == model.RoleCustomer {
		customer, err := s.customerRepo.FindByUserID(userID)
		if err == nil {
			profile.Customer = customer
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Storage(op, err)
		}
		return profile, nil
	}

	employee, err := s.employeeRepo.FindByUserID(userID)
	if err == nil {
		profile.Employee = employee
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Storage(op, err)
	}
	return profile, nil
}

func (s *authService) issue(op string, user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Username,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, apperrors.Internal(op, err)
	}
	return tokens, nil
}

func (s *authService) verify(ctx context.Context, op, token, tokenType string) (*util.Claims, error) {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		if errors.Is(err, util.ErrExpiredToken) {
			return nil, apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenExpired, "token has expired").WithOp(op)
		}
		return nil, ErrInvalidToken.WithOp(op)
	}
	if claims.TokenType != tokenType {
		return nil, ErrInvalidToken.WithOp(op).WithMessage("expected a %s token", tokenType)
	}

	if s.blacklist != nil && claims.ID != "" {
		revoked, err := s.blacklist.IsTokenBlacklisted(ctx, claims.ID)
		if err != nil {
			// Redis outage: accept signature-valid tokens rather than lock everyone out.
			logger.Warn("Token blacklist unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		} else if revoked {
			return nil, apperrors.New(apperrors.KindUnauthorized, apperrors.AuthTokenRevoked, "token has been revoked").WithOp(op)
		}
	}
	return claims, nil
}

func (s *authService) revoke(ctx context.Context, claims *util.Claims) {
	if s.blacklist == nil {
		logger.Warn("Token blacklist not configured; token stays valid until expiry", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return
	}
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, util.TokenTTL(claims)); err != nil {
		logger.Error("Failed to revoke token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
	}
}
