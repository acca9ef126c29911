package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mkorchagin/shortlink/internal/auth"
	"github.com/mkorchagin/shortlink/internal/models"
	"github.com/mkorchagin/shortlink/internal/repository"
)

type AuthHandler struct {
	users  *repository.UserRepository
	tokens *auth.TokenManager
	log    *zap.Logger
}

func NewAuthHandler(users *repository.UserRepository, tokens *auth.TokenManager, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, log: log}
}

// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	exists, err := h.users.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		h.log.Error("register lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if exists {
		writeError(w, http.StatusBadRequest, "user already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.Error("password hash failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := h.users.Save(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			writeError(w, http.StatusBadRequest, "user already exists")
			return
		}
		h.log.Error("register save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, err := h.users.FindByUsername(ctx, req.Username)
	if err != nil {
		h.log.Error("login lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if user == nil || !auth.CheckPassword(req.Password, user.HashedPassword) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.Username)
	if err != nil {
		h.log.Error("token issue failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}
