package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-id/meridian/internal/platform/httpx"
)

// Guard wires authentication middleware into account routes.
type Guard interface {
	RequireAuth(http.Handler) http.Handler
	RequireSuperAdmin(http.Handler) http.Handler
}

// Handler manages account endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     Guard
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// Create registers a new account.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", validationDetail(err))
		return
	}

	account, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create account failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, RedactedResponse{User: account.Redacted()})
}

// GetRecord returns the raw stored record for an identifier. Super-admin only.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	opts := IdentifierOptions{
		Identifier:     r.URL.Query().Get("identifier"),
		IdentifierType: IdentifierType(r.URL.Query().Get("identifier_type")),
	}

	account, err := h.service.GetRecord(r.Context(), opts)
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrInvalidArgument) {
			h.logger.Error("get account record failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account.Record())
}

// Update applies a partial update to the target account.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	var req UpdateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", validationDetail(err))
		return
	}

	account, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req, principal)
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrInvalidArgument) {
			h.logger.Error("update account failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, UpdateResponse{
		Status:  "success",
		Message: "User Updated Successfully",
		User: UpdateSummary{
			ID:          account.ID,
			Name:        account.DisplayName(),
			PhoneNumber: account.PhoneNumber,
		},
	})
}

// Deactivate transitions the target account to inactive.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	var req DeactivateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Argument", "malformed request body")
		return
	}

	account, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "User not found")
			return
		}
		if !errors.Is(err, httpx.ErrInvalidArgument) {
			h.logger.Error("deactivate account failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, DeactivateResponse{
		IsActive: account.IsActive,
		Message:  "User deactivated successfully",
	})
}

// GetRedacted returns the password-stripped view of an account.
func (h *Handler) GetRedacted(w http.ResponseWriter, r *http.Request) {
	account, err := h.service.GetRedacted(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, httpx.ErrNotFound) && !errors.Is(err, httpx.ErrInvalidArgument) {
			h.logger.Error("get account failed", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, RedactedResponse{User: account.Redacted()})
}

// List returns a page of redacted accounts. Super-admin only.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	accounts, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list accounts failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	views := make([]AccountView, len(accounts))
	for i, account := range accounts {
		views[i] = account.Redacted()
	}
	httpx.JSON(w, http.StatusOK, ListAccountsResponse{Accounts: views, Total: total, Limit: limit, Offset: offset})
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Error()
	}
	return "validation failed"
}
