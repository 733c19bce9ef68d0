package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atelierluz/storefront/internal/services"
)

const maxContactBodyBytes = 64 << 10 // 64 KB

type contactFormRequest struct {
	Data services.ContactSubmission `json:"data"`
}

// ContactForm takes a contact submission and sends the support notification
// plus the submitter confirmation.
func (h *Handlers) ContactForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)
	r.Body = http.MaxBytesReader(w, r.Body, maxContactBodyBytes)

	var req contactFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	message, err := h.contactService.Submit(ctx, req.Data)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			h.respondError(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrSupportEmailNotConfigured):
			h.respondError(w, r, http.StatusInternalServerError, "support email configuration missing")
		default:
			logger.Error("failed to process contact form", "error", err)
			h.respondError(w, r, http.StatusInternalServerError, "an error occurred while processing your request")
		}
		return
	}

	h.respondJSON(w, r, http.StatusOK, map[string]any{
		"message": message,
		"success": true,
	})
}
