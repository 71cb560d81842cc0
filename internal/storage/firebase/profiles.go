package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/pribylovaa/token-relay/internal/models"
	"github.com/pribylovaa/token-relay/internal/storage"
)

// docWriter — запись документа целиком (Set без merge).
type docWriter interface {
	Set(ctx context.Context, collection, id string, data map[string]any) error
}

type firestoreWriter struct {
	fs *firestore.Client
}

func (w firestoreWriter) Set(ctx context.Context, collection, id string, data map[string]any) error {
	_, err := w.fs.Collection(collection).Doc(id).Set(ctx, data)
	return err
}

// Profiles реализует storage.ProfileStore в коллекции Firestore.
type Profiles struct {
	w          docWriter
	collection string
}

var _ storage.ProfileStore = (*Profiles)(nil)

func NewProfiles(w docWriter, collection string) *Profiles {
	if collection == "" {
		collection = "users"
	}

	return &Profiles{w: w, collection: collection}
}

// UpsertProfile перезаписывает users/{UserID}. Повтор с теми же данными
// даёт тот же документ.
func (p *Profiles) UpsertProfile(ctx context.Context, prof *models.Profile) error {
	const op = "storage.firebase.UpsertProfile"

	if prof == nil || prof.UserID == "" {
		return fmt.Errorf("%s: empty user id", op)
	}

	if err := p.w.Set(ctx, p.collection, prof.UserID, profileDoc(prof)); err != nil {
		return fmt.Errorf("%s: %w", op, classify(err))
	}

	return nil
}

// profileDoc — поля документа профиля. phone пишется только если известен.
func profileDoc(p *models.Profile) map[string]any {
	doc := map[string]any{
		"email":     p.Email,
		"name":      p.Name,
		"createdAt": p.CreatedAt,
	}

	if p.Phone != "" {
		doc["phone"] = p.Phone
	}

	return doc
}
