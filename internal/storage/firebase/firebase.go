// firebase реализует контракты storage поверх Firebase Auth и Cloud Firestore.
//
// Клиенты создаются один раз при старте процесса из сервисного аккаунта
// и передаются в сервис явно; глобального состояния пакет не держит.
package firebase

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	fb "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/pribylovaa/token-relay/internal/config"
)

const googleTokenURI = "https://oauth2.googleapis.com/token"

// Backend объединяет адаптеры Auth и Firestore одного проекта.
type Backend struct {
	Auth     *Auth
	Profiles *Profiles

	fs *firestore.Client
}

// serviceAccount — минимальный JSON сервисного аккаунта Google.
type serviceAccount struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// CredentialsJSON собирает JSON сервисного аккаунта из трёх переменных окружения.
func CredentialsJSON(cfg config.FirebaseConfig) ([]byte, error) {
	return json.Marshal(serviceAccount{
		Type:        "service_account",
		ProjectID:   cfg.ProjectID,
		ClientEmail: cfg.ClientEmail,
		PrivateKey:  cfg.PrivateKey,
		TokenURI:    googleTokenURI,
	})
}

// New инициализирует Firebase App и клиенты Auth/Firestore.
// Сеть на этом шаге не используется: ошибки здесь — ошибки конфигурации.
func New(ctx context.Context, cfg config.FirebaseConfig) (*Backend, error) {
	const op = "storage.firebase.New"

	creds, err := CredentialsJSON(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: credentials: %w", op, err)
	}

	app, err := fb.NewApp(ctx, &fb.Config{ProjectID: cfg.ProjectID}, option.WithCredentialsJSON(creds))
	if err != nil {
		return nil, fmt.Errorf("%s: app: %w", op, err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: auth: %w", op, err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: firestore: %w", op, err)
	}

	return &Backend{
		Auth:     NewAuth(authClient),
		Profiles: NewProfiles(firestoreWriter{fs: fs}, cfg.UsersCollection),
		fs:       fs,
	}, nil
}

// Close освобождает соединения Firestore.
func (b *Backend) Close() error {
	if b == nil || b.fs == nil {
		return nil
	}

	return b.fs.Close()
}
