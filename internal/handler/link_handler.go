package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mkorchagin/shortlink/internal/middleware"
	"github.com/mkorchagin/shortlink/internal/models"
	"github.com/mkorchagin/shortlink/internal/service"
)

type LinkHandler struct {
	service *service.LinkService
	baseURL string
	log     *zap.Logger
}

func NewLinkHandler(svc *service.LinkService, baseURL string, log *zap.Logger) *LinkHandler {
	return &LinkHandler{service: svc, baseURL: baseURL, log: log}
}

// POST /api/links
func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateLinkRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	link, err := h.service.CreateLink(ctx, req, middleware.ActorFrom(ctx))
	if err != nil {
		h.writeServiceError(w, "CreateLink", err)
		return
	}

	writeJSON(w, http.StatusCreated, models.LinkResponse{
		ShortCode:   link.ShortCode,
		ShortURL:    h.shortURL(link.ShortCode),
		OriginalURL: link.OriginalURL,
	})
}

// GET /{shortCode} - redirect to the destination URL
func (h *LinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shortCode, ok := mux.Vars(r)["shortCode"]
	if !ok || shortCode == "" {
		writeError(w, http.StatusBadRequest, "missing short code")
		return
	}

	originalURL, err := h.service.ResolveForRedirect(ctx, shortCode)
	if err != nil {
		h.writeServiceError(w, "Redirect", err)
		return
	}

	// 302 so browsers treat it as temporary and keep hitting the counter
	http.Redirect(w, r, originalURL, http.StatusFound)
}

// GET /api/links/{shortCode}/stats - full record including clicks
func (h *LinkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.GetLink(r.Context(), mux.Vars(r)["shortCode"])
	if err != nil {
		h.writeServiceError(w, "Stats", err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// GET /api/links/{shortCode}/original
func (h *LinkHandler) Original(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.GetLink(r.Context(), mux.Vars(r)["shortCode"])
	if err != nil {
		h.writeServiceError(w, "Original", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"original_url": link.OriginalURL})
}

// PUT /api/links/{shortCode}
func (h *LinkHandler) UpdateURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.UpdateURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	link, err := h.service.UpdateURL(ctx, mux.Vars(r)["shortCode"], req.OriginalURL, middleware.ActorFrom(ctx))
	if err != nil {
		h.writeServiceError(w, "UpdateURL", err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// POST /api/links/{shortCode}/expiry
func (h *LinkHandler) SetExpiry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SetExpiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExpiresAt.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	link, err := h.service.SetExpiry(ctx, mux.Vars(r)["shortCode"], req.ExpiresAt, middleware.ActorFrom(ctx))
	if err != nil {
		h.writeServiceError(w, "SetExpiry", err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// DELETE /api/links/{shortCode}
func (h *LinkHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	link, err := h.service.DeleteLink(ctx, mux.Vars(r)["shortCode"], middleware.ActorFrom(ctx))
	if err != nil {
		h.writeServiceError(w, "DeleteLink", err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// GET /api/links - the authenticated user's links
func (h *LinkHandler) ListMyLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	links, err := h.service.ListUserLinks(ctx, middleware.ActorFrom(ctx))
	if err != nil {
		h.writeServiceError(w, "ListMyLinks", err)
		return
	}
	if links == nil {
		links = []models.Link{}
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *LinkHandler) shortURL(code string) string {
	if h.baseURL == "" {
		return code
	}
	return fmt.Sprintf("%s/%s", h.baseURL, code)
}

// writeServiceError maps lifecycle errors to HTTP responses.
func (h *LinkHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrAliasTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPermanentRequiresAuth), errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrCodeConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error(op+" failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// helper: write JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// can't write the response anymore, nothing to do
		return
	}
}

// helper: write an error message in JSON form { "error": "msg" }
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
