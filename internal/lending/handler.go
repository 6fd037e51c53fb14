package lending

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"landq/internal/ledger"
	dErrors "landq/pkg/domain-errors"
	"landq/pkg/platform/httputil"
	"landq/pkg/requestcontext"
)

// Handler exposes the loan lifecycle over HTTP.
type Handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler builds the lending handler.
func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the loan routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/parcels/{tokenID}/loan", h.handleIssue)
	r.Post("/parcels/{tokenID}/loan/repayment", h.handleRepay)
	r.Get("/parcels/{tokenID}/loan", h.handleGet)
	r.Get("/loans/quote", h.handleQuote)
}

func tokenIDParam(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "tokenID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid token id")
	}
	return id, nil
}

type issueRequest struct {
	PrincipalUSDT string `json:"principalUsdt"`
	PeriodDays    int    `json:"periodDays"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var body issueRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	principal, err := parseAmount(body.PrincipalUSDT)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.Issue(ctx, tokenID, principal, time.Duration(body.PeriodDays)*24*time.Hour)
	if err != nil {
		h.logger.WarnContext(ctx, "loan issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"token_id", tokenID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

type repayRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (h *Handler) handleRepay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var body repayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := parseAmount(body.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.Repay(ctx, tokenID, amount, ledger.Currency(body.Currency))
	if err != nil {
		h.logger.WarnContext(ctx, "loan repayment failed",
			"request_id", requestcontext.RequestID(ctx),
			"token_id", tokenID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleQuote(w http.ResponseWriter, r *http.Request) {
	amount, err := parseAmount(r.URL.Query().Get("amountUsdt"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	quote, err := h.svc.QuoteBTC(r.Context(), amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, quote)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	tokenID, err := tokenIDParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	view, err := h.svc.Get(r.Context(), tokenID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}
