package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/uid0/openmakersuite/internal/domain"
	"github.com/uid0/openmakersuite/internal/dto"
	"github.com/uid0/openmakersuite/internal/model"
	"github.com/uid0/openmakersuite/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenPair, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.TokenPair, error)
	CreateUser(ctx context.Context, username, email, password, role string) (*dto.UserResponse, error)
}

type authService struct {
	users      repository.UserRepository
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users repository.UserRepository, secret string, accessHours, refreshHours int) AuthService {
	return &authService{
		users:      users,
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessHours) * time.Hour,
		refreshTTL: time.Duration(refreshHours) * time.Hour,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenPair, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUnauthorized
		}
		return nil, translateStoreErr(err)
	}
	if !user.Active {
		return nil, domain.ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		log.Warn().Str("username", req.Username).Msg("failed login attempt")
		return nil, domain.ErrUnauthorized
	}
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.TokenPair, error) {
	token, err := jwt.Parse(req.RefreshToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != "refresh" {
		return nil, domain.ErrUnauthorized
	}
	username, _ := claims["username"].(string)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil || !user.Active {
		return nil, domain.ErrUnauthorized
	}
	return s.issueTokens(user)
}

func (s *authService) CreateUser(ctx context.Context, username, email, password, role string) (*dto.UserResponse, error) {
	if role != model.RoleAdmin && role != model.RoleMember {
		return nil, &domain.ValidationError{Field: "role", Reason: "must be admin or member"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, &domain.ValidationError{Field: "username", Reason: "already in use"}
		}
		return nil, translateStoreErr(err)
	}
	return &dto.UserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

func (s *authService) issueTokens(user *model.User) (*dto.TokenPair, error) {
	now := time.Now()
	access, err := s.signToken(jwt.MapClaims{
		"user_id":    user.ID.String(),
		"username":   user.Username,
		"role":       user.Role,
		"token_type": "access",
		"iat":        now.Unix(),
		"exp":        now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(jwt.MapClaims{
		"username":   user.Username,
		"token_type": "refresh",
		"iat":        now.Unix(),
		"exp":        now.Add(s.refreshTTL).Unix(),
	})
	if err != nil {
		return nil, err
	}
	return &dto.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *authService) signToken(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
