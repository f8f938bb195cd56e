package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/siteadmin/internal/logging"
	"github.com/gorilla/mux"
)

// RouterOptions tunes the upload route.
type RouterOptions struct {
	UploadMaxBytes    int64
	UploadRequireAuth bool
}

// NewRouter builds the route table:
//
//	POST /api/admin/login
//	GET  /api/admin/me    (bearer)
//	POST /api/upload      (bearer unless disabled)
//	GET  /healthz
func NewRouter(h *Handlers, v TokenVerifier, opts RouterOptions, log logging.Logger) *mux.Router {
	log = log.With("module", "http")

	r := mux.NewRouter()
	r.Use(Logging(log), Recovery(log))

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/admin/login", h.Login).Methods(http.MethodPost)

	me := api.Path("/admin/me").Subrouter()
	me.Use(BearerAuth(v, log))
	me.Methods(http.MethodGet).HandlerFunc(h.Me)

	upload := api.Path("/upload").Subrouter()
	if opts.UploadRequireAuth {
		upload.Use(BearerAuth(v, log))
	}
	if opts.UploadMaxBytes > 0 {
		upload.Use(MaxBytes(opts.UploadMaxBytes))
	}
	upload.Methods(http.MethodPost).HandlerFunc(h.Upload)

	return r
}
