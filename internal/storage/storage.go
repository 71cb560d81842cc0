package storage

import (
	"context"
	"errors"

	"github.com/pribylovaa/token-relay/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/профиль).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — пользователь с таким uid уже создан.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnavailable — бэкенд недоступен или не ответил вовремя.
	ErrUnavailable = errors.New("backend unavailable")
)

// CustomTokenMinter выпускает custom token для входа клиента в бэкенд.
type CustomTokenMinter interface {
	// CustomToken подписывает токен для uid. Токен нигде не сохраняется.
	CustomToken(ctx context.Context, uid string) (string, error)
}

// UserDirectory — учётные записи пользователей бэкенда.
type UserDirectory interface {
	// UserExists сообщает, заведён ли пользователь с данным uid.
	UserExists(ctx context.Context, uid string) (bool, error)
	// CreateUser заводит пользователя; ErrAlreadyExists, если он уже есть.
	CreateUser(ctx context.Context, uid string) error
}

// ProfileStore хранит профили пользователей.
type ProfileStore interface {
	// UpsertProfile полностью перезаписывает профиль по UserID.
	UpsertProfile(ctx context.Context, p *models.Profile) error
}
