package domain

import "context"

// Provider is the payment-provider contract the host framework drives. A
// single instance is created per process and shared across requests.
type Provider interface {
	Identifier() string

	InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*InitiatePaymentOutput, error)
	AuthorizePayment(ctx context.Context, input AuthorizePaymentInput) (*AuthorizePaymentOutput, error)
	CapturePayment(ctx context.Context, input CapturePaymentInput) (*CapturePaymentOutput, error)
	RefundPayment(ctx context.Context, input RefundPaymentInput) (*RefundPaymentOutput, error)
	CancelPayment(ctx context.Context, input CancelPaymentInput) (*CancelPaymentOutput, error)
	UpdatePayment(ctx context.Context, input UpdatePaymentInput) (*UpdatePaymentOutput, error)
	DeletePayment(ctx context.Context, input DeletePaymentInput) (*DeletePaymentOutput, error)

	GetPaymentStatus(ctx context.Context, data SessionData) (SessionStatus, error)
	RetrievePayment(ctx context.Context, data SessionData) (SessionData, error)
	GetWebhookActionAndData(ctx context.Context, payload map[string]any) (*WebhookAction, error)
}
