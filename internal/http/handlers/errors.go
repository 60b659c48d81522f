package handlers

import (
	"context"
	"errors"
	"net/http"

	"studio/internal/auth"
	"studio/internal/billing"
	"studio/internal/domain"
	"studio/internal/i18n"
	"studio/internal/middleware"
)

var errNoClaims = errors.New("missing user context")

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type errorMapping struct {
	target error
	status int
	code   string
	key    i18n.Key
}

// Specific reasons come before the sentinels they wrap.
var errorMappings = []errorMapping{
	{auth.ErrMissingCredentials, http.StatusUnauthorized, "unauthorized", i18n.MissingCredentials},
	{billing.ErrCardDetails, http.StatusBadRequest, "invalid_payment", i18n.CardDetails},
	{billing.ErrUPIID, http.StatusBadRequest, "invalid_payment", i18n.UPIID},
	{billing.ErrMethod, http.StatusBadRequest, "invalid_payment", i18n.PaymentMethod},
	{billing.ErrCurrentPlan, http.StatusBadRequest, "current_plan", i18n.CurrentPlan},
	{domain.ErrQuotaExceeded, http.StatusForbidden, "quota_exceeded", i18n.QuotaExceeded},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input", i18n.InvalidInput},
	{domain.ErrServiceFailure, http.StatusBadGateway, "service_error", i18n.ServiceError},
	{domain.ErrPersistence, http.StatusServiceUnavailable, "persistence_error", i18n.PersistenceError},
	{domain.ErrDuplicateOperation, http.StatusConflict, "busy", i18n.Busy},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", i18n.Unauthorized},
	{domain.ErrNoSession, http.StatusUnauthorized, "no_session", i18n.NoSession},
	{errNoClaims, http.StatusUnauthorized, "unauthorized", i18n.Unauthorized},
	{domain.ErrInvalidPayment, http.StatusBadRequest, "invalid_payment", i18n.PaymentFailed},
	{domain.ErrUnsupportedPlan, http.StatusBadRequest, "unsupported_plan", i18n.UnsupportedPlan},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", i18n.NotFound},
}

// fail maps err onto a status and a localized message.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code, key := http.StatusInternalServerError, "internal", i18n.Internal
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			status, code, key = m.status, m.code, m.key
			break
		}
	}
	if errors.Is(err, context.DeadlineExceeded) && status == http.StatusInternalServerError {
		status, code, key = http.StatusGatewayTimeout, "service_error", i18n.ServiceError
	}
	evt := a.log(r).Warn()
	if status >= http.StatusInternalServerError {
		evt = a.log(r).Error()
	}
	evt.Err(err).Int("status", status).Str("code", code).Msg("request failed")
	a.error(w, r, status, code, key)
}

func (a *App) error(w http.ResponseWriter, r *http.Request, status int, code string, key i18n.Key) {
	a.json(w, status, errorResponse{Error: errorPayload{
		Code:    code,
		Message: i18n.T(middleware.LocaleFromContext(r.Context()), key),
	}})
}
