package handlers

import "net/http"

// Root — liveness на корне: 200 независимо от состояния бэкенда.
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "token-relay is running")
}

func (h *Handlers) Livez(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "ok")
}

// Healthz — готовность: 503 до старта и во время остановки.
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	if h.ready.Load() {
		writeText(w, http.StatusOK, "ok")
		return
	}

	writeText(w, http.StatusServiceUnavailable, "not ready")
}
