package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"github.com/pribylovaa/token-relay/internal/storage"
)

// authAPI — используемое подмножество *auth.Client.
type authAPI interface {
	CustomToken(ctx context.Context, uid string) (string, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
}

// Auth реализует storage.CustomTokenMinter и storage.UserDirectory.
type Auth struct {
	client authAPI

	// коды ошибок Auth API распознаются только функциями SDK
	isUserNotFound func(error) bool
	isUIDTaken     func(error) bool
}

var (
	_ storage.CustomTokenMinter = (*Auth)(nil)
	_ storage.UserDirectory     = (*Auth)(nil)
)

func NewAuth(client authAPI) *Auth {
	return &Auth{
		client:         client,
		isUserNotFound: auth.IsUserNotFound,
		isUIDTaken:     auth.IsUIDAlreadyExists,
	}
}

// CustomToken подписывает custom token ключом сервисного аккаунта.
func (a *Auth) CustomToken(ctx context.Context, uid string) (string, error) {
	const op = "storage.firebase.CustomToken"

	tok, err := a.client.CustomToken(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, classify(err))
	}

	return tok, nil
}

// UserExists различает «нет пользователя» и ошибку бэкенда:
// только USER_NOT_FOUND даёт (false, nil).
func (a *Auth) UserExists(ctx context.Context, uid string) (bool, error) {
	const op = "storage.firebase.UserExists"

	if _, err := a.client.GetUser(ctx, uid); err != nil {
		if a.isUserNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, classify(err))
	}

	return true, nil
}

func (a *Auth) CreateUser(ctx context.Context, uid string) error {
	const op = "storage.firebase.CreateUser"

	if _, err := a.client.CreateUser(ctx, (&auth.UserToCreate{}).UID(uid)); err != nil {
		if a.isUIDTaken(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, classify(err))
	}

	return nil
}
