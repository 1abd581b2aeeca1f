package pesapal

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/devcircularity/commerce-backend/internal/clock"
	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/observability/metrics"
	"github.com/devcircularity/commerce-backend/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// Identifier is the provider id the host framework dispatches on.
	Identifier = "pesapal"

	// The gateway requires a country on the billing address; orders from
	// contexts without one default to Kenya.
	defaultCountryCode = "KE"
	defaultEmail       = "customer@example.com"
	defaultFirstName   = "Customer"
)

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	GM    *metrics.GatewayMetrics
}

// Provider implements the host payment-provider contract against Pesapal.
type Provider struct {
	client *Client
	cfg    config.Pesapal
	log    *zap.Logger
	genID  *snowflake.Node
	clk    clock.Clock
	gm     *metrics.GatewayMetrics
}

// NewProvider constructs the provider and kicks off gateway initialization in
// the background. Initialization failures are logged, not fatal: the provider
// stays usable and re-authenticates lazily on the first real call.
func NewProvider(p Params, client *Client) *Provider {
	provider := &Provider{
		client: client,
		cfg:    p.Cfg.Pesapal,
		log:    p.Log.Named("payment.pesapal"),
		genID:  p.GenID,
		clk:    p.Clock,
		gm:     p.GM,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := provider.Init(ctx); err != nil {
			provider.log.Error("pesapal initialization failed", zap.Error(err))
		}
	}()

	return provider
}

// Init acquires a token and ensures an IPN registration exists, reusing the
// first discovered registration when the gateway already has one.
func (p *Provider) Init(ctx context.Context) error {
	if _, err := p.client.GetToken(ctx); err != nil {
		return err
	}
	id, err := p.client.EnsureIPN(ctx)
	if err != nil {
		return err
	}
	p.log.Info("pesapal ready", zap.String("ipn_id", id), zap.Bool("sandbox", p.cfg.Sandbox))
	return nil
}

func (p *Provider) Identifier() string {
	return Identifier
}

// InitiatePayment submits an order request to the gateway and returns the
// pending session the host stores. With DegradeOnError set, a gateway failure
// degrades to a synthesized pending session pointed at the callback URL so
// checkout can continue; that path can mask real payment failures and is
// therefore opt-in.
func (p *Provider) InitiatePayment(ctx context.Context, input domain.InitiatePaymentInput) (*domain.InitiatePaymentOutput, error) {
	orderID := fmt.Sprintf("order_%s", p.genID.Generate())

	notificationID, err := p.client.EnsureIPN(ctx)
	if err != nil {
		return p.initiateFallback(input, err)
	}

	order := OrderRequest{
		ID:             orderID,
		Currency:       input.CurrencyCode,
		Amount:         input.Amount,
		Description:    fmt.Sprintf("Order %s", orderID),
		CallbackURL:    p.cfg.CallbackURL,
		NotificationID: notificationID,
		BillingAddress: billingAddressFromContext(input.Context),
	}

	resp, err := p.client.SubmitOrder(ctx, order)
	if err != nil {
		return p.initiateFallback(input, err)
	}

	return &domain.InitiatePaymentOutput{
		ID: orderID,
		Data: domain.SessionData{
			"order_tracking_id":  resp.OrderTrackingID,
			"merchant_reference": resp.MerchantReference,
			"redirect_url":       resp.RedirectURL,
			"amount":             input.Amount,
			"currency_code":      input.CurrencyCode,
			"status":             string(domain.StatusPending),
		},
	}, nil
}

func (p *Provider) initiateFallback(input domain.InitiatePaymentInput, cause error) (*domain.InitiatePaymentOutput, error) {
	if !p.cfg.DegradeOnError {
		return nil, cause
	}

	p.gm.IncFallback("initiate")
	p.log.Error("order submission failed, degrading to synthesized pending session",
		zap.Error(cause),
		zap.Float64("amount", input.Amount),
		zap.String("currency", input.CurrencyCode),
	)

	return &domain.InitiatePaymentOutput{
		ID: fmt.Sprintf("pesapal_%d", p.clk.Now().UnixMilli()),
		Data: domain.SessionData{
			"amount":        input.Amount,
			"currency_code": input.CurrencyCode,
			"status":        string(domain.StatusPending),
			"redirect_url":  p.cfg.CallbackURL,
		},
	}, nil
}

// AuthorizePayment polls the gateway for the session's tracking id and maps
// its status onto the host vocabulary. A session without a tracking id, or an
// ambiguous gateway status, stays pending.
func (p *Provider) AuthorizePayment(ctx context.Context, input domain.AuthorizePaymentInput) (*domain.AuthorizePaymentOutput, error) {
	data := input.Data
	if data == nil {
		data = domain.SessionData{}
	}

	trackingID, _ := data["order_tracking_id"].(string)
	if trackingID == "" {
		return authorizeResult(data, domain.StatusPending), nil
	}

	status, err := p.client.GetTransactionStatus(ctx, trackingID)
	if err != nil {
		if p.cfg.DegradeOnError {
			// Legacy behavior: treat an unreachable gateway as authorized.
			// This can confirm orders that were never paid.
			p.gm.IncFallback("authorize")
			p.log.Error("status query failed, force-authorizing payment",
				zap.Error(err),
				zap.String("order_tracking_id", trackingID),
			)
			return authorizeResult(data, domain.StatusAuthorized), nil
		}
		p.log.Warn("status query failed, leaving payment pending",
			zap.Error(err),
			zap.String("order_tracking_id", trackingID),
		)
		return authorizeResult(data, domain.StatusPending), nil
	}

	switch status.PaymentStatusDescription {
	case "Completed":
		return authorizeResult(data, domain.StatusAuthorized), nil
	case "Failed":
		out := authorizeResult(data, domain.StatusError)
		out.Data["status"] = string(domain.StatusFailed)
		return out, nil
	default:
		return authorizeResult(data, domain.StatusPending), nil
	}
}

func authorizeResult(data domain.SessionData, status domain.SessionStatus) *domain.AuthorizePaymentOutput {
	merged := make(domain.SessionData, len(data)+1)
	for key, value := range data {
		merged[key] = value
	}
	merged["status"] = string(status)
	return &domain.AuthorizePaymentOutput{Status: status, Data: merged}
}

// CapturePayment issues no remote call: Pesapal auto-captures on successful
// authorization.
func (p *Provider) CapturePayment(ctx context.Context, input domain.CapturePaymentInput) (*domain.CapturePaymentOutput, error) {
	return &domain.CapturePaymentOutput{
		Data: domain.SessionData{"status": string(domain.StatusCaptured)},
	}, nil
}

// RefundPayment returns a status label only; true refunds require a manual
// process with the gateway.
func (p *Provider) RefundPayment(ctx context.Context, input domain.RefundPaymentInput) (*domain.RefundPaymentOutput, error) {
	return &domain.RefundPaymentOutput{
		Data: domain.SessionData{"status": string(domain.StatusRefunded)},
	}, nil
}

// CancelPayment returns a status label only; true cancellation requires a
// manual process with the gateway.
func (p *Provider) CancelPayment(ctx context.Context, input domain.CancelPaymentInput) (*domain.CancelPaymentOutput, error) {
	return &domain.CancelPaymentOutput{
		Data: domain.SessionData{"status": string(domain.StatusCanceled)},
	}, nil
}

// UpdatePayment passes the session data through unchanged.
func (p *Provider) UpdatePayment(ctx context.Context, input domain.UpdatePaymentInput) (*domain.UpdatePaymentOutput, error) {
	data := input.Data
	if data == nil {
		data = domain.SessionData{}
	}
	return &domain.UpdatePaymentOutput{Data: data}, nil
}

// DeletePayment acknowledges deletion without a remote call.
func (p *Provider) DeletePayment(ctx context.Context, input domain.DeletePaymentInput) (*domain.DeletePaymentOutput, error) {
	return &domain.DeletePaymentOutput{
		Data: domain.SessionData{"id": input.PaymentID, "deleted": true},
	}, nil
}

// GetPaymentStatus maps the gateway status onto the host vocabulary,
// degrading query failures to pending.
func (p *Provider) GetPaymentStatus(ctx context.Context, data domain.SessionData) (domain.SessionStatus, error) {
	trackingID, _ := data["order_tracking_id"].(string)
	if trackingID == "" {
		return domain.StatusPending, nil
	}

	status, err := p.client.GetTransactionStatus(ctx, trackingID)
	if err != nil {
		p.log.Warn("status query failed, reporting pending",
			zap.Error(err),
			zap.String("order_tracking_id", trackingID),
		)
		return domain.StatusPending, nil
	}

	switch status.PaymentStatusDescription {
	case "Completed":
		return domain.StatusAuthorized, nil
	case "Failed":
		return domain.StatusError, nil
	default:
		return domain.StatusPending, nil
	}
}

// RetrievePayment returns the session payload unchanged; the host is the
// owner of record.
func (p *Provider) RetrievePayment(ctx context.Context, data domain.SessionData) (domain.SessionData, error) {
	return data, nil
}

// GetWebhookActionAndData tags the raw payload for the host's generic
// webhook dispatcher.
func (p *Provider) GetWebhookActionAndData(ctx context.Context, payload map[string]any) (*domain.WebhookAction, error) {
	return &domain.WebhookAction{
		Action:      Identifier,
		ContentType: "json",
		Data:        payload,
	}, nil
}

func billingAddressFromContext(paymentCtx domain.Context) BillingAddress {
	customer := paymentCtx.Customer
	if customer == nil {
		customer = &domain.Customer{}
	}

	address := BillingAddress{
		EmailAddress: customer.Email,
		PhoneNumber:  customer.Phone,
		CountryCode:  defaultCountryCode,
		FirstName:    customer.FirstName,
		LastName:     customer.LastName,
	}
	if address.EmailAddress == "" {
		address.EmailAddress = defaultEmail
	}
	if address.FirstName == "" {
		address.FirstName = defaultFirstName
	}

	if billing := customer.BillingAddress; billing != nil {
		address.Line1 = billing.Line1
		address.Line2 = billing.Line2
		address.City = billing.City
		address.State = billing.Province
		address.PostalCode = billing.PostalCode
		address.ZipCode = billing.PostalCode
	}
	return address
}
