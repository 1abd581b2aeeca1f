package domain

// SessionStatus is the coarse payment-status vocabulary the host framework
// understands.
type SessionStatus string

const (
	StatusPending    SessionStatus = "pending"
	StatusAuthorized SessionStatus = "authorized"
	StatusCaptured   SessionStatus = "captured"
	StatusFailed     SessionStatus = "failed"
	StatusRefunded   SessionStatus = "refunded"
	StatusCanceled   SessionStatus = "canceled"
	StatusError      SessionStatus = "error"
)

// SessionData is the opaque session payload round-tripped through the host
// framework. The host owns the record; providers only read and extend it.
type SessionData map[string]any

// Address carries the billing address sub-object of the payment context.
type Address struct {
	Line1      string
	Line2      string
	City       string
	Province   string
	PostalCode string
}

// Customer carries the customer sub-object of the payment context.
type Customer struct {
	Email          string
	Phone          string
	FirstName      string
	LastName       string
	BillingAddress *Address
}

// Context is passed by the host framework on payment initiation.
type Context struct {
	Customer *Customer
}

type InitiatePaymentInput struct {
	Amount       float64
	CurrencyCode string
	Context      Context
}

type InitiatePaymentOutput struct {
	ID   string
	Data SessionData
}

type AuthorizePaymentInput struct {
	Data SessionData
}

type AuthorizePaymentOutput struct {
	Status SessionStatus
	Data   SessionData
}

type CapturePaymentInput struct {
	Data SessionData
}

type CapturePaymentOutput struct {
	Data SessionData
}

type RefundPaymentInput struct {
	Amount float64
	Data   SessionData
}

type RefundPaymentOutput struct {
	Data SessionData
}

type CancelPaymentInput struct {
	Data SessionData
}

type CancelPaymentOutput struct {
	Data SessionData
}

type UpdatePaymentInput struct {
	Amount       float64
	CurrencyCode string
	Data         SessionData
}

type UpdatePaymentOutput struct {
	Data SessionData
}

type DeletePaymentInput struct {
	PaymentID string
	Data      SessionData
}

type DeletePaymentOutput struct {
	Data SessionData
}

// WebhookAction tags a raw webhook payload for the host's generic dispatcher.
type WebhookAction struct {
	Action      string
	ContentType string
	Data        map[string]any
}
