package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/optica/paymentflow/libs/httpx"
	"github.com/optica/paymentflow/libs/money"
	"github.com/optica/paymentflow/services/gateway-service/internal/publish"
)

// EventPublisher is what the REST boundary needs from the publish side.
type EventPublisher interface {
	PublishCompanyCreated(ctx context.Context, req publish.CompanyRequest) (string, error)
	PublishAccountCreated(ctx context.Context, req publish.AccountRequest) (string, error)
	PublishRegisterCreated(ctx context.Context, req publish.RegisterRequest) (string, error)
}

type Handler struct {
	pub      EventPublisher
	validate *validator.Validate
	logger   *slog.Logger
}

func New(pub EventPublisher, logger *slog.Logger) *Handler {
	validate := validator.New()
	money.RegisterValidation(validate)
	return &Handler{
		pub:      pub,
		validate: validate,
		logger:   logger,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/gateway/companies", h.CreateCompany)
	mux.HandleFunc("/api/v1/gateway/accounts", h.CreateAccount)
	mux.HandleFunc("/api/v1/gateway/registers", h.CreateRegister)
	mux.HandleFunc("/api/v1/gateway/health", h.Health)
}

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req publish.CompanyRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.accept(w, r, "company creation request submitted", func(ctx context.Context) (string, error) {
		return h.pub.PublishCompanyCreated(ctx, req)
	})
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req publish.AccountRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.accept(w, r, "account creation request submitted", func(ctx context.Context) (string, error) {
		return h.pub.PublishAccountCreated(ctx, req)
	})
}

func (h *Handler) CreateRegister(w http.ResponseWriter, r *http.Request) {
	var req publish.RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.accept(w, r, "register creation request submitted", func(ctx context.Context) (string, error) {
		return h.pub.PublishRegisterCreated(ctx, req)
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decode unmarshals and validates the body. Validation failures surface
// synchronously; nothing is published for a malformed request.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if r.Method != http.MethodPost {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid field: "+verrs[0].Field())
			return false
		}
		httpx.WriteError(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}

// accept runs the publish and maps the result: 202 once the broker accepted
// the message, 502 if it did not. The entity does not exist yet when 202 is
// returned; creation happens asynchronously.
func (h *Handler) accept(w http.ResponseWriter, r *http.Request, msg string, publishFn func(context.Context) (string, error)) {
	eventID, err := publishFn(r.Context())
	if err != nil {
		h.logger.Error("publish failed",
			"err", err,
			"request_id", httpx.RequestIDFromContext(r.Context()),
		)
		httpx.WriteError(w, http.StatusBadGateway, "event could not be published")
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{
		"message":  msg,
		"event_id": eventID,
	})
}
