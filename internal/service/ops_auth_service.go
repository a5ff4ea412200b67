package service

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/marketplace-bot/internal/pkg/apperror"
)

// OpsAuthService пускает в ops панель по одному паролю: в конфигурации
// хранится только его bcrypt хэш.
type OpsAuthService struct {
	passwordHash []byte
	tokens       *TokenManager
}

// NewOpsAuthService создаёт сервис авторизации ops панели.
func NewOpsAuthService(passwordHash string, tokens *TokenManager) *OpsAuthService {
	return &OpsAuthService{
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
	}
}

// Login проверяет пароль и выпускает токен.
func (s *OpsAuthService) Login(password string) (string, error) {
	if len(s.passwordHash) == 0 {
		return "", apperror.New(apperror.ErrCodeUnauthorized, "ops панель не настроена")
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", apperror.New(apperror.ErrCodeUnauthorized, "неверный пароль")
	}

	token, _, err := s.tokens.Generate()
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeExternal, "не удалось выпустить токен")
	}
	return token, nil
}
