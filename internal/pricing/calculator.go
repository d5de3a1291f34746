package pricing

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/backend-tiket/internal/obs"
)

// Event is a read-only view of an event and its fee configuration.
type Event struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Currency string      `json:"currency"`
	Fees     []FeeConfig `json:"fees"`
}

// Lookup provides the configuration snapshots a calculation reads.
type Lookup interface {
	TicketTypeFinder
	FindEventByID(ctx context.Context, id uuid.UUID) (Event, bool, error)
}

// PriceBreakdown is the result of pricing an order. All amounts carry Scale places and
// are floored for display.
type PriceBreakdown struct {
	EventID            uuid.UUID
	TicketSubtotal     decimal.Decimal
	FeeSubtotal        decimal.Decimal
	IssuerFeeSubtotal  decimal.Decimal
	VenueFeeSubtotal   decimal.Decimal
	PaymentFeeSubtotal decimal.Decimal
	GrandTotal         decimal.Decimal
	Currency           string
	PaidTickets        int
	LineItems          []LineResolution
}

// OrderTotal renders a breakdown for client display in decimal and minor-unit form.
type OrderTotal struct {
	Subtotal        string `json:"subtotal"`
	SubtotalCents   string `json:"subtotalCents"`
	Fees            string `json:"fees"`
	FeesCents       string `json:"feesCents"`
	GrandTotal      string `json:"grandTotal"`
	GrandTotalCents string `json:"grandTotalCents"`
	Currency        string `json:"currency"`

	Breakdown PriceBreakdown `json:"-"`
}

// Calculator prices orders against event configuration supplied by a Lookup.
type Calculator struct {
	lookup          Lookup
	logger          zerolog.Logger
	defaultCurrency string
	activeFeesOnly  bool
	tracer          trace.Tracer
}

// CalculatorConfig groups Calculator dependencies.
type CalculatorConfig struct {
	Lookup          Lookup
	Logger          *zerolog.Logger
	DefaultCurrency string
	ActiveFeesOnly  bool
}

// NewCalculator constructs a Calculator.
func NewCalculator(cfg CalculatorConfig) (*Calculator, error) {
	if cfg.Lookup == nil {
		return nil, errors.New("pricing: lookup is required")
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	currency := strings.ToUpper(strings.TrimSpace(cfg.DefaultCurrency))
	if currency == "" {
		currency = "USD"
	}
	return &Calculator{
		lookup:          cfg.Lookup,
		logger:          logger,
		defaultCurrency: currency,
		activeFeesOnly:  cfg.ActiveFeesOnly,
		tracer:          otel.Tracer("pricing"),
	}, nil
}

// CalculateTotalPrice prices items for the event: ticket subtotal, event fees and the
// payment processor markup.
func (c *Calculator) CalculateTotalPrice(ctx context.Context, eventID uuid.UUID, items []LineItem) (PriceBreakdown, error) {
	ctx, span := c.tracer.Start(ctx, "pricing.CalculateTotalPrice", trace.WithAttributes(
		attribute.String("event.id", eventID.String()),
		attribute.Int("line_items", len(items)),
	))
	defer span.End()

	breakdown, err := c.calculate(ctx, eventID, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordCalculation("total_price", err)
		return PriceBreakdown{}, err
	}
	span.SetAttributes(attribute.String("pricing.grand_total", PlainString(breakdown.GrandTotal)))
	recordCalculation("total_price", nil)
	return breakdown, nil
}

// CalculateOrderTotal prices items and renders subtotal, combined fees and grand total as
// decimal strings and minor units.
func (c *Calculator) CalculateOrderTotal(ctx context.Context, eventID uuid.UUID, items []LineItem) (OrderTotal, error) {
	ctx, span := c.tracer.Start(ctx, "pricing.CalculateOrderTotal", trace.WithAttributes(
		attribute.String("event.id", eventID.String()),
	))
	defer span.End()

	breakdown, err := c.calculate(ctx, eventID, items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		recordCalculation("order_total", err)
		return OrderTotal{}, err
	}
	recordCalculation("order_total", nil)
	return Render(breakdown), nil
}

// Render converts a breakdown into its display form. Fees combine event fees with the
// payment processor fee.
func Render(b PriceBreakdown) OrderTotal {
	fees := Floor(b.FeeSubtotal.Add(b.PaymentFeeSubtotal))
	return OrderTotal{
		Subtotal:        PlainString(b.TicketSubtotal),
		SubtotalCents:   MinorUnits(b.TicketSubtotal),
		Fees:            PlainString(fees),
		FeesCents:       MinorUnits(fees),
		GrandTotal:      PlainString(b.GrandTotal),
		GrandTotalCents: MinorUnits(b.GrandTotal),
		Currency:        b.Currency,
		Breakdown:       b,
	}
}

func (c *Calculator) calculate(ctx context.Context, eventID uuid.UUID, items []LineItem) (PriceBreakdown, error) {
	logger := c.loggerFor(ctx).With().Str("event_id", eventID.String()).Logger()

	event, ok, err := c.lookup.FindEventByID(ctx, eventID)
	if err != nil {
		return PriceBreakdown{}, err
	}
	if !ok {
		return PriceBreakdown{}, &InvalidEventError{EventID: eventID}
	}

	sub, err := ComputeSubtotal(ctx, c.lookup, eventID, items)
	if err != nil {
		return PriceBreakdown{}, err
	}
	for _, line := range sub.Lines {
		if line.Status == LineUnresolved || line.Status == LineInvalid {
			recordSkipped("line_item_" + string(line.Status))
			logger.Warn().
				Str("ticket_type_id", line.TicketTypeID.String()).
				Int("quantity", line.Quantity).
				Str("status", string(line.Status)).
				Msg("pricing_line_item_skipped")
		}
	}

	ticketSubtotal := RoundHalfUp(sub.Amount)
	fees, skipped := AggregateFees(event.Fees, sub.PaidTickets, ticketSubtotal, c.activeFeesOnly)
	for _, s := range skipped {
		recordSkipped("fee_" + s.Reason)
		logger.Warn().Str("fee_id", s.FeeID.String()).Str("reason", s.Reason).Msg("pricing_fee_skipped")
	}

	markup := ApplyPaymentMarkup(ticketSubtotal.Add(fees.Total))

	currency := sub.Currency
	if currency == "" {
		currency = strings.ToUpper(strings.TrimSpace(event.Currency))
	}
	if currency == "" {
		currency = c.defaultCurrency
	}

	return PriceBreakdown{
		EventID:            eventID,
		TicketSubtotal:     Floor(ticketSubtotal),
		FeeSubtotal:        Floor(fees.Total),
		IssuerFeeSubtotal:  Floor(fees.Issuer),
		VenueFeeSubtotal:   Floor(fees.Venue),
		PaymentFeeSubtotal: Floor(markup.PaymentFee),
		GrandTotal:         Floor(markup.GrandTotal),
		Currency:           currency,
		PaidTickets:        sub.PaidTickets,
		LineItems:          sub.Lines,
	}, nil
}

func (c *Calculator) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &c.logger
}

func recordCalculation(operation string, err error) {
	if obs.PricingCalculationsTotal == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidEvent):
		result = "invalid_event"
	case errors.Is(err, ErrCurrencyMismatch):
		result = "currency_mismatch"
	default:
		result = "error"
	}
	obs.PricingCalculationsTotal.WithLabelValues(operation, result).Inc()
}

func recordSkipped(kind string) {
	if obs.PricingSkippedTotal == nil {
		return
	}
	obs.PricingSkippedTotal.WithLabelValues(kind).Inc()
}
