package pesapal

// tokenResponse is returned by /api/Auth/RequestToken.
type tokenResponse struct {
	Token      string `json:"token"`
	ExpiryDate string `json:"expiryDate"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// IPNRegistration describes a registered notification URL.
type IPNRegistration struct {
	ID                   string `json:"ipn_id"`
	URL                  string `json:"url"`
	CreatedDate          string `json:"created_date"`
	IPNNotificationType  string `json:"ipn_notification_type_description"`
	IPNStatusDescription string `json:"ipn_status_decription"`
}

// BillingAddress is the customer address block of an order request.
type BillingAddress struct {
	EmailAddress string `json:"email_address"`
	PhoneNumber  string `json:"phone_number"`
	CountryCode  string `json:"country_code"`
	FirstName    string `json:"first_name"`
	MiddleName   string `json:"middle_name"`
	LastName     string `json:"last_name"`
	Line1        string `json:"line_1"`
	Line2        string `json:"line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	ZipCode      string `json:"zip_code"`
}

// OrderRequest is submitted to /api/Transactions/SubmitOrderRequest.
type OrderRequest struct {
	ID             string         `json:"id"`
	Currency       string         `json:"currency"`
	Amount         float64        `json:"amount"`
	Description    string         `json:"description"`
	CallbackURL    string         `json:"callback_url"`
	NotificationID string         `json:"notification_id"`
	BillingAddress BillingAddress `json:"billing_address"`
}

// OrderResponse carries the gateway-side tracking identifiers for a
// submitted order.
type OrderResponse struct {
	OrderTrackingID   string `json:"order_tracking_id"`
	MerchantReference string `json:"merchant_reference"`
	RedirectURL       string `json:"redirect_url"`
	Status            string `json:"status"`
}

// TransactionStatus is the raw status payload for a tracking id. The gateway
// reports "Completed", "Failed" or "Pending" in the description field.
type TransactionStatus struct {
	PaymentMethod            string  `json:"payment_method"`
	Amount                   float64 `json:"amount"`
	CreatedDate              string  `json:"created_date"`
	ConfirmationCode         string  `json:"confirmation_code"`
	PaymentStatusDescription string  `json:"payment_status_description"`
	Description              string  `json:"description"`
	PaymentAccount           string  `json:"payment_account"`
	MerchantReference        string  `json:"merchant_reference"`
	Currency                 string  `json:"currency"`
	StatusCode               int     `json:"status_code"`
}
