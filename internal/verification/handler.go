package verification

import (
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "landq/pkg/domain-errors"
	"landq/pkg/platform/httputil"
	"landq/pkg/requestcontext"
)

// Handler exposes the verification workflow over HTTP.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler builds the verification handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the public verification routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/parcels/{tokenID}/verification", h.handleRequest)
	r.Post("/parcels/{tokenID}/reappraisal", h.handleReappraisal)
	r.Get("/parcels/{tokenID}/verification", h.handleGet)
	r.Get("/parcels/{tokenID}/status", h.handleStatus)
}

// RegisterPrivileged mounts the agency/operator routes; the caller wraps
// them in the operator guard.
func (h *Handler) RegisterPrivileged(r chi.Router) {
	r.Post("/parcels/{tokenID}/appraisal", h.handleAppraise)
	r.Post("/agencies", h.handleRegisterAgency)
	r.Put("/agencies/fee", h.handleChangeFee)
}

func tokenIDParam(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "tokenID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid token id")
	}
	return id, nil
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.Request(ctx, tokenID)
	if err != nil {
		h.logger.WarnContext(ctx, "verification request failed",
			"request_id", requestcontext.RequestID(ctx),
			"token_id", tokenID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, result)
}

func (h *Handler) handleReappraisal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.RequestReappraisal(ctx, tokenID)
	if err != nil {
		h.logger.WarnContext(ctx, "reappraisal request failed",
			"request_id", requestcontext.RequestID(ctx),
			"token_id", tokenID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	rec, err := h.svc.Get(r.Context(), tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.svc.Status(r.Context(), tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

type appraiseRequest struct {
	PriceUSD string `json:"priceUsd"`
}

func (h *Handler) handleAppraise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var body appraiseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	price, ok := new(big.Int).SetString(body.PriceUSD, 10)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "priceUsd must be a base-10 integer"))
		return
	}

	outcome, err := h.svc.Appraise(ctx, tokenID, price)
	if err != nil {
		h.logger.WarnContext(ctx, "appraisal failed",
			"request_id", requestcontext.RequestID(ctx),
			"token_id", tokenID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

type agencyRequest struct {
	Region  string `json:"region"`
	Address string `json:"address,omitempty"`
	Fee     string `json:"fee"`
}

func (h *Handler) handleRegisterAgency(w http.ResponseWriter, r *http.Request) {
	var body agencyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	fee, ok := new(big.Int).SetString(body.Fee, 10)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fee must be a base-10 integer"))
		return
	}

	outcome, err := h.svc.RegisterAgency(r.Context(), body.Region, body.Address, fee)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

func (h *Handler) handleChangeFee(w http.ResponseWriter, r *http.Request) {
	var body agencyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	fee, ok := new(big.Int).SetString(body.Fee, 10)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fee must be a base-10 integer"))
		return
	}

	outcome, err := h.svc.ChangeAgencyFee(r.Context(), body.Region, fee)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, outcome)
}
