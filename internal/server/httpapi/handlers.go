package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/siteadmin/internal/common"
	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/dmitrijs2005/siteadmin/internal/server/auth"
	"github.com/dmitrijs2005/siteadmin/internal/server/services"
)

const (
	maxLoginBody    = 1 << 20
	multipartMemory = 8 << 20
	uploadFormField = "file"
	defaultMimeType = "application/octet-stream"
)

// Authenticator verifies admin credentials.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// Handlers holds the route handlers and their collaborators.
type Handlers struct {
	login   Authenticator
	uploads services.UploadStore
	health  func(context.Context) error
	log     logging.Logger
}

// NewHandlers wires handlers. health may be nil, in which case the probe
// always reports ok.
func NewHandlers(login Authenticator, uploads services.UploadStore, health func(context.Context) error, log logging.Logger) *Handlers {
	return &Handlers{
		login:   login,
		uploads: uploads,
		health:  health,
		log:     log.With("module", "http"),
	}
}

// Login handles POST /api/admin/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		h.log.Debug(r.Context(), "login body rejected", "error", err)
		writeMessage(w, http.StatusBadRequest, msgInvalidLogin)
		return
	}

	res, err := h.login.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeMessage(w, http.StatusBadRequest, msgInvalidLogin)
			return
		}
		h.log.Error(r.Context(), "login failed", "error", err)
		writeMessage(w, http.StatusInternalServerError, msgServerError)
		return
	}

	_ = WriteJSON(w, http.StatusOK, loginResponse{Message: msgLoginSuccess, Token: res.Token})
}

// Upload handles POST /api/upload with a single multipart field "file".
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = defaultMimeType
	}

	stored, err := h.uploads.Save(r.Context(), header.Filename, mimeType, header.Size, file)
	if err != nil {
		h.log.Error(r.Context(), "upload failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, msgUploadInternal)
		return
	}

	adminID, _ := auth.AdminIDFromContext(r.Context())
	h.log.Info(r.Context(), "file uploaded", "admin_id", adminID, "path", stored.Path, "size", stored.Size)

	_ = WriteJSON(w, http.StatusOK, uploadResponse{
		Message: msgUploadSuccess,
		File: uploadedFile{
			OriginalName: stored.OriginalName,
			FileName:     stored.FileName,
			Path:         stored.Path,
			MimeType:     stored.MimeType,
			Size:         stored.Size,
		},
	})
}

// Me handles GET /api/admin/me and echoes the authenticated admin id.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.AdminIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, msgNotAuthorized)
		return
	}
	_ = WriteJSON(w, http.StatusOK, meResponse{ID: id})
}

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			h.log.Warn(r.Context(), "health check failed", "error", err)
			_ = WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	_ = WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
