package clinic

import (
	"net/http"

	"github.com/wellbot/wellbot-api/internal/http/respond"
)

// Handler serves the public partner-clinic directory.
type Handler struct {
	directory *Directory
}

// NewHandler creates a directory HTTP handler.
func NewHandler(directory *Directory) *Handler {
	return &Handler{directory: directory}
}

// ListClinics returns every partner clinic.
// GET /clinics
func (h *Handler) ListClinics(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, map[string]any{"clinics": h.directory.All()})
}
