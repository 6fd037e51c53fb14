package parcel

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "landq/pkg/domain-errors"
	"landq/pkg/platform/httputil"
	"landq/pkg/requestcontext"
)

// maxUploadBytes bounds the multipart body: the snapshot is generated server
// side, so this only covers form fields plus the supporting document.
const maxUploadBytes = 32 << 20

// Creator runs the parcel creation pipeline.
type Creator interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
}

// Handler exposes the creation pipeline over HTTP.
type Handler struct {
	pipeline Creator
	logger   *slog.Logger
}

// NewHandler builds the parcel handler.
func NewHandler(pipeline Creator, logger *slog.Logger) *Handler {
	return &Handler{pipeline: pipeline, logger: logger}
}

// Register mounts the parcel routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/parcels", h.handleCreate)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form"))
		return
	}

	req := CreateRequest{
		Name:            r.FormValue("name"),
		Description:     r.FormValue("description"),
		CoordinatesJSON: r.FormValue("coordinates"),
		Price:           r.FormValue("price"),
		Country:         r.FormValue("country"),
		State:           r.FormValue("state"),
	}

	file, header, err := r.FormFile("landDocument")
	switch {
	case err == nil:
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unreadable land document"))
			return
		}
		req.Document = data
		req.DocumentName = header.Filename
		req.DocumentType = header.Header.Get("Content-Type")
	case err == http.ErrMissingFile:
		// Document is optional.
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid land document field"))
		return
	}

	result, err := h.pipeline.Create(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "parcel creation failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
