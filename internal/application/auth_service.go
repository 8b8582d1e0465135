package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/davorint/amatlan-booking/internal/config"
	"github.com/davorint/amatlan-booking/internal/domain/user"
)

// AuthService は認証のユースケースを提供する
// 予約コアから見た認証は {userID, role} を供給する存在でしかない
type AuthService struct {
	userRepo user.Repository
	cfg      *config.AuthConfig
}

// NewAuthService はAuthServiceを作成する
func NewAuthService(ur user.Repository, cfg *config.AuthConfig) *AuthService {
	return &AuthService{userRepo: ur, cfg: cfg}
}

// Claims はJWTのクレーム
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RegisterInput はユーザー登録の入力
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register は新しいユーザーを登録する（役割は常にuser）
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}
	u := user.NewUser(input.Email, string(hash), input.Name, user.RoleUser)
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login はメールアドレスとパスワードで認証しJWTを発行する
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", nil, user.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, user.ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// issueToken はユーザーのJWTを発行する
func (s *AuthService) issueToken(u *user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("トークン発行に失敗しました: %w", err)
	}
	return signed, nil
}

// ParseToken はJWTを検証しクレームを返す
func ParseToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("予期しない署名方式です: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("不正なトークンです")
	}
	return claims, nil
}
