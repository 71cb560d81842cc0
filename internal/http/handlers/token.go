package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/token-relay/internal/errors"
	"github.com/pribylovaa/token-relay/internal/http/middleware"
	"github.com/pribylovaa/token-relay/internal/service"
)

// CredentialResponse — тело успешного ответа /create-firebase-token.
type CredentialResponse struct {
	Credential string `json:"credential"`
}

// CreateFirebaseToken выпускает custom token для личности,
// проверенной middleware.RequireIdentity. Тело запроса не читается.
func (h *Handlers) CreateFirebaseToken(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrUnauthenticated)
		return
	}

	cred, err := h.svc.IssueCredential(r.Context(), id)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, CredentialResponse{Credential: cred.Token})
}
