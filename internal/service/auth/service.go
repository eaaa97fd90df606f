package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/solacore/solve-api/internal/config"
	"github.com/solacore/solve-api/internal/model"
	"github.com/solacore/solve-api/internal/repository"
)

// Service 认证服务
type Service struct {
	repo *repository.Repositories
	cfg  *config.JWTConfig
}

// NewService 创建认证服务
func NewService(repo *repository.Repositories, cfg *config.JWTConfig) *Service {
	return &Service{repo: repo, cfg: cfg}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Locale   string `json:"locale"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message,omitempty"`
	User         *model.PublicUser `json:"user,omitempty"`
	Token        string            `json:"token,omitempty"`
	RefreshToken string            `json:"refresh_token,omitempty"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	User    *model.PublicUser `json:"user,omitempty"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// Register 注册用户
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	// 检查邮箱是否已存在
	existingUser, _ := s.repo.Auth.GetUserByEmail(req.Email)
	if existingUser != nil {
		return nil, errors.New("user with this email already exists")
	}

	// 哈希密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		AuthProvider: "email",
		Locale:       locale,
		IsActive:     true,
	}

	if err := s.repo.Auth.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &RegisterResponse{
		Success: true,
		Message: "Registration successful",
		User:    user.ToUserInfo(),
	}, nil
}

// Login 用户登录
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.Auth.GetUserByEmail(req.Email)
	if err != nil {
		return &LoginResponse{
			Success: false,
			Message: "Invalid email or password",
		}, nil
	}

	if !user.IsActive {
		return &LoginResponse{
			Success: false,
			Message: "Account is disabled",
		}, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
	if err != nil {
		return &LoginResponse{
			Success: false,
			Message: "Invalid email or password",
		}, nil
	}

	accessToken, refreshToken, err := s.generateTokens(ctx, user)
	if err != nil {
		return &LoginResponse{
			Success: false,
			Message: "Login failed",
		}, err
	}

	return &LoginResponse{
		Success:      true,
		Message:      "Login successful",
		User:         user.ToUserInfo(),
		Token:        accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// ValidateToken 验证令牌
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*model.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user ID in token")
	}

	// 检查令牌是否被撤销
	tokenRecord, err := s.repo.Auth.GetTokenByValue(tokenString)
	if err != nil || tokenRecord == nil || tokenRecord.IsRevoked {
		return nil, errors.New("token is revoked")
	}

	return s.repo.Auth.GetUserByID(userID)
}

// RefreshToken 刷新令牌
func (s *Service) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	token, err := jwt.Parse(refreshTokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})

	if err != nil || !token.Valid {
		return "", "", errors.New("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", errors.New("invalid token claims")
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "refresh" {
		return "", "", errors.New("not a refresh token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", "", errors.New("invalid user ID in token")
	}

	tokenRecord, err := s.repo.Auth.GetTokenByValue(refreshTokenString)
	if err != nil || tokenRecord == nil || tokenRecord.IsRevoked {
		return "", "", errors.New("refresh token is revoked")
	}

	user, err := s.repo.Auth.GetUserByID(userID)
	if err != nil {
		return "", "", err
	}

	// 撤销旧的刷新令牌
	_ = s.repo.Auth.RevokeToken(tokenRecord.ID)

	return s.generateTokens(ctx, user)
}

// Logout 撤销用户的全部令牌
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.repo.Auth.RevokeTokensByUserID(userID)
}

// ChangePassword 修改密码
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.Auth.GetUserByID(userID)
	if err != nil {
		return err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword))
	if err != nil {
		return errors.New("invalid old password")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hashedPassword)
	return s.repo.Auth.UpdateUser(user)
}

// DeleteAccount 注销账号，级联删除设备、会话、消息、用量等全部数据
func (s *Service) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.repo.Auth.GetUserByID(userID)
	if err != nil {
		return err
	}

	// 邮箱账号要求密码确认，OAuth 账号没有密码
	if user.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return errors.New("invalid password")
		}
	}

	return s.repo.Auth.DeleteUserCascade(userID)
}

// generateTokens 生成访问令牌和刷新令牌
func (s *Service) generateTokens(ctx context.Context, user *model.User) (string, string, error) {
	accessTTL := time.Duration(s.cfg.AccessTokenTTL) * time.Hour
	refreshTTL := time.Duration(s.cfg.RefreshTokenTTL) * time.Hour

	accessClaims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(accessTTL).Unix(),
		"iat":     time.Now().Unix(),
		"type":    "access",
	}

	accessTokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessToken, err := accessTokenObj.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"user_id": user.ID,
		"exp":     time.Now().Add(refreshTTL).Unix(),
		"iat":     time.Now().Unix(),
		"type":    "refresh",
	}

	refreshTokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshToken, err := refreshTokenObj.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", "", err
	}

	// 存储令牌到数据库，支持撤销
	accessTokenRecord := &model.AuthToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     accessToken,
		TokenType: "access_token",
		ExpiresAt: time.Now().Add(accessTTL),
	}

	refreshTokenRecord := &model.AuthToken{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Token:     refreshToken,
		TokenType: "refresh_token",
		ExpiresAt: time.Now().Add(refreshTTL),
	}

	_ = s.repo.Auth.CreateToken(accessTokenRecord)
	_ = s.repo.Auth.CreateToken(refreshTokenRecord)

	return accessToken, refreshToken, nil
}
