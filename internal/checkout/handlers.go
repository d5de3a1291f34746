package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-tiket/internal/common"
	"github.com/noah-isme/backend-tiket/internal/pricing"
	"github.com/noah-isme/backend-tiket/internal/resilience"
)

// Handler serves the pricing endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// NewHandler wires a Handler with its validator.
func NewHandler(svc *Service, v *validator.Validate) *Handler {
	if v == nil {
		v = NewValidator()
	}
	return &Handler{Svc: svc, Validate: v}
}

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type lineItemRequest struct {
	TicketTypeID string `json:"ticketTypeId" validate:"required,uuid"`
	Quantity     int    `json:"quantity"`
}

type orderRequest struct {
	Items  []lineItemRequest `json:"items" validate:"max=100,dive"`
	Record bool              `json:"record"`
}

type lineResponse struct {
	TicketTypeID string `json:"ticketTypeId"`
	Quantity     int    `json:"quantity"`
	Status       string `json:"status"`
	UnitPrice    string `json:"unitPrice"`
	Amount       string `json:"amount"`
}

type breakdownResponse struct {
	EventID            string         `json:"eventId"`
	TicketSubtotal     string         `json:"ticketSubtotal"`
	FeeSubtotal        string         `json:"feeSubtotal"`
	IssuerFeeSubtotal  string         `json:"issuerFeeSubtotal"`
	VenueFeeSubtotal   string         `json:"venueFeeSubtotal"`
	PaymentFeeSubtotal string         `json:"paymentFeeSubtotal"`
	GrandTotal         string         `json:"grandTotal"`
	Currency           string         `json:"currency"`
	PaidTickets        int            `json:"paidTickets"`
	LineItems          []lineResponse `json:"lineItems"`
}

// Price handles POST /events/{eventId}/price.
func (h *Handler) Price(w http.ResponseWriter, r *http.Request) {
	eventID, items, _, ok := h.decode(w, r)
	if !ok {
		return
	}
	b, err := h.Svc.Price(r.Context(), eventID, items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, toBreakdownResponse(b))
}

// OrderTotal handles POST /events/{eventId}/order-total.
func (h *Handler) OrderTotal(w http.ResponseWriter, r *http.Request) {
	eventID, items, record, ok := h.decode(w, r)
	if !ok {
		return
	}
	out, err := h.Svc.OrderTotal(r.Context(), eventID, items, record)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.Data(w, http.StatusOK, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (uuid.UUID, []pricing.LineItem, bool, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "pricing service not configured", nil)
		return uuid.Nil, nil, false, false
	}
	eventID, err := uuid.Parse(chi.URLParam(r, "eventId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid event id", nil)
		return uuid.Nil, nil, false, false
	}

	var payload orderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return uuid.Nil, nil, false, false
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeInvalidArgument, "invalid payload", validationDetails(err))
		return uuid.Nil, nil, false, false
	}

	items := make([]pricing.LineItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, pricing.LineItem{
			TicketTypeID: uuid.MustParse(it.TicketTypeID),
			Quantity:     it.Quantity,
		})
	}
	return eventID, items, payload.Record, true
}

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "orderRequest.")
		out[field] = fe.Tag()
	}
	return out
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidEvent *pricing.InvalidEventError
		mismatch     *pricing.CurrencyMismatchError
		appErr       *common.AppError
	)
	switch {
	case errors.As(err, &invalidEvent):
		appErr = common.InvalidArgument("event not found", err, map[string]string{"eventId": invalidEvent.EventID.String()})
	case errors.As(err, &mismatch):
		appErr = common.InvalidArgument("line items must share one currency", err, map[string]string{
			"ticketTypeId": mismatch.TicketTypeID.String(),
			"expected":     mismatch.Expected,
			"got":          mismatch.Got,
		})
	case errors.Is(err, resilience.ErrOpenCircuit):
		appErr = common.NewAppError(common.CodeUnavailable, "pricing temporarily unavailable", http.StatusServiceUnavailable, err)
	case errors.As(err, &appErr):
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("pricing request failed")
		appErr = common.NewAppError(common.CodeInternal, "internal error", http.StatusInternalServerError, err)
	}
	common.WriteAppError(w, appErr)
}

func toBreakdownResponse(b pricing.PriceBreakdown) breakdownResponse {
	lines := make([]lineResponse, 0, len(b.LineItems))
	for _, l := range b.LineItems {
		lines = append(lines, lineResponse{
			TicketTypeID: l.TicketTypeID.String(),
			Quantity:     l.Quantity,
			Status:       string(l.Status),
			UnitPrice:    pricing.PlainString(l.UnitPrice),
			Amount:       pricing.PlainString(l.Amount),
		})
	}
	return breakdownResponse{
		EventID:            b.EventID.String(),
		TicketSubtotal:     pricing.PlainString(b.TicketSubtotal),
		FeeSubtotal:        pricing.PlainString(b.FeeSubtotal),
		IssuerFeeSubtotal:  pricing.PlainString(b.IssuerFeeSubtotal),
		VenueFeeSubtotal:   pricing.PlainString(b.VenueFeeSubtotal),
		PaymentFeeSubtotal: pricing.PlainString(b.PaymentFeeSubtotal),
		GrandTotal:         pricing.PlainString(b.GrandTotal),
		Currency:           b.Currency,
		PaidTickets:        b.PaidTickets,
		LineItems:          lines,
	}
}

// Routes mounts the pricing endpoints under an event.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/events/{eventId}/price", h.Price)
	r.Post("/events/{eventId}/order-total", h.OrderTotal)
}
