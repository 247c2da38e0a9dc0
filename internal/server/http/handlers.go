package httpx

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/hashkeeper/internal/common"
	"github.com/dmitrijs2005/hashkeeper/internal/server/services"
)

type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type kvView struct {
	ID        int64     `json:"id"`
	Key       string    `json:"key"`
	ValueHash string    `json:"v_hash"`
	CreatedAt time.Time `json:"created_at"`
}

type dashboardResponse struct {
	User  userView `json:"user"`
	Items []kvView `json:"items"`
}

type exportResponse struct {
	Message     string `json:"message"`
	Status      string `json:"status"`
	Key         string `json:"key,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "hashkeeper")
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed form data.")
		return
	}

	username := r.PostForm.Get("username")
	email := r.PostForm.Get("email")
	password := r.PostForm.Get("password")

	if password != r.PostForm.Get("confirm_password") {
		writeMessage(w, http.StatusBadRequest, "Passwords must match")
		return
	}

	_, err := h.users.Register(r.Context(), username, email, password)
	switch {
	case err == nil:
		writeMessage(w, http.StatusCreated, "Account created. Please login.")
	case errors.Is(err, common.ErrAlreadyExists):
		writeMessage(w, http.StatusConflict, "Username or email already exists.")
	case errors.Is(err, common.ErrValidation):
		writeMessage(w, http.StatusBadRequest, validationMessage(err))
	default:
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
	}
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed form data.")
		return
	}

	user, err := h.users.Verify(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid username or password.")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	// drop any session the client already had
	if old := sessionToken(r); old != "" {
		_ = h.sessions.Destroy(r.Context(), old)
	}

	token, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	h.setSessionCookie(w, token, h.sessions.TTL())
	h.logger.Info(r.Context(), "user logged in", "user_id", user.ID)
	writeMessage(w, http.StatusOK, "Logged in successfully.")
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r.Context(), sessionToken(r)); err != nil {
		h.logger.Warn(r.Context(), "logout could not delete session", "error", err.Error())
	}
	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out")
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	items, err := h.kv.List(r.Context(), user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	resp := dashboardResponse{
		User: userView{
			ID:        user.ID,
			Username:  user.UserName,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
		Items: make([]kvView, 0, len(items)),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, kvView{ID: it.ID, Key: it.Key, ValueHash: it.ValueHash, CreatedAt: it.CreatedAt})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) putKV(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed form data.")
		return
	}

	key := strings.TrimSpace(r.PostForm.Get("key"))
	value := strings.TrimSpace(r.PostForm.Get("value"))
	if key == "" || value == "" {
		writeMessage(w, http.StatusBadRequest, "Both key and value are required.")
		return
	}

	item, err := h.kv.Put(r.Context(), user.ID, key, value)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			writeMessage(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Key/Value stored (value hashed)",
		"item":    kvView{ID: item.ID, Key: item.Key, ValueHash: item.ValueHash, CreatedAt: item.CreatedAt},
	})
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	user, _ := userFromContext(r.Context())

	res, err := h.exports.Export(r.Context(), user)
	if err != nil {
		if errors.Is(err, common.ErrExternalIO) {
			writeMessage(w, http.StatusBadGateway, "Export storage unavailable.")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
		return
	}

	resp := exportResponse{Status: string(res.Status), Key: res.Key, ContentHash: res.ContentHash}
	switch res.Status {
	case services.StatusPublished:
		resp.Message = "Export published."
	case services.StatusUnchanged:
		resp.Message = "Export unchanged."
	default:
		resp.Message = "Nothing to export."
	}
	writeJSON(w, http.StatusOK, resp)
}

// validationMessage strips the sentinel prefix from a validation error.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
	if msg == "" {
		return "Invalid input."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
