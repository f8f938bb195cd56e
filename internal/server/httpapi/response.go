// Package httpapi is the public HTTP surface: admin login, authenticated
// upload and a health probe, routed with gorilla/mux.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// Client-visible texts. Failure bodies are fixed strings so that different
// causes produce byte-identical responses.
const (
	msgLoginSuccess   = "Admin login successful"
	msgInvalidLogin   = "Invalid email or password"
	msgServerError    = "Server error"
	msgNotAuthorized  = "Not authorized"
	msgUploadSuccess  = "File uploaded successfully"
	msgNoFile         = "No file uploaded"
	msgFileTooLarge   = "File too large"
	msgUploadInternal = "Internal server error"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type uploadedFile struct {
	OriginalName string `json:"originalname"`
	FileName     string `json:"filename"`
	Path         string `json:"path"`
	MimeType     string `json:"mimetype"`
	Size         int64  `json:"size"`
}

type uploadResponse struct {
	Message string       `json:"message"`
	File    uploadedFile `json:"file"`
}

type meResponse struct {
	ID string `json:"id"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	_ = WriteJSON(w, status, messageResponse{Message: msg})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = WriteJSON(w, status, errorResponse{Error: msg})
}
