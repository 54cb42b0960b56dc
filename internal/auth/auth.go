// Package auth issues and validates the JWT access tokens the rest of
// the server trusts. Identity resolution happens exactly once per
// socket connection; the game engine only ever sees user ids.
package auth

import (
	"errors"
	"strconv"
	"time"

	"apocrifo/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailTaken         = errors.New("email already registered")
	errNoDatabase         = errors.New("database unavailable")
)

const tokenTTL = 24 * time.Hour

// Claims is the identity carried by an access token. Nickname rides
// along so the realtime layer never needs a user lookup.
type Claims struct {
	UserID   string
	Nickname string
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
}

type LoginResult struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}

type Service struct {
	db     *gorm.DB
	secret []byte
}

func New(conn *gorm.DB, secret string) *Service {
	return &Service{db: conn, secret: []byte(secret)}
}

func (s *Service) Register(email, password, nickname string) (*LoginResult, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	record := db.User{Email: email, PasswordHash: string(hash), Nickname: nickname}
	if err := s.db.Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return s.loginResult(&record)
}

func (s *Service) Login(email, password string) (*LoginResult, error) {
	if s.db == nil {
		return nil, errNoDatabase
	}
	var record db.User
	if err := s.db.Where("email = ?", email).First(&record).Error; err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.loginResult(&record)
}

func (s *Service) loginResult(record *db.User) (*LoginResult, error) {
	id := strconv.FormatUint(uint64(record.ID), 10)
	token, err := s.IssueToken(Claims{UserID: id, Nickname: record.Nickname})
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		User:        User{ID: id, Email: record.Email, Nickname: record.Nickname},
	}, nil
}

// IssueToken signs a short-lived access token for the given identity.
func (s *Service) IssueToken(c Claims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      c.UserID,
		"nickname": c.Nickname,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenTTL).Unix(),
	})
	return token.SignedString(s.secret)
}

// Verify parses and validates a token, returning the identity it
// carries.
func (s *Service) Verify(tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Claims{}, ErrInvalidToken
	}
	nickname, _ := claims["nickname"].(string)
	return Claims{UserID: sub, Nickname: nickname}, nil
}
