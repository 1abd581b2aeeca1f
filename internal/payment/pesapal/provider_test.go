package pesapal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/payment/domain"
	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestProvider(t *testing.T, cfg config.Pesapal) (*Provider, *testClock) {
	t.Helper()

	client, clk := newTestClient(t, cfg)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return &Provider{
		client: client,
		cfg:    client.cfg,
		log:    zap.NewNop(),
		genID:  node,
		clk:    clk,
	}, clk
}

func mockIPNList(entries ...string) {
	list := make([]map[string]string, 0, len(entries))
	for _, id := range entries {
		list = append(list, map[string]string{"ipn_id": id})
	}
	gock.New(gatewayHost).
		Get("/pesapalv3/api/URLSetup/GetIpnList").
		Reply(200).
		JSON(list)
}

func mockTransactionStatus(description string) {
	gock.New(gatewayHost).
		Get("/pesapalv3/api/Transactions/GetTransactionStatus").
		Reply(200).
		JSON(map[string]any{"payment_status_description": description})
}

func TestInitiatePaymentDefaultsBillingAddress(t *testing.T) {
	provider, clk := newTestProvider(t, config.Pesapal{CallbackURL: "http://localhost:9000/checkout/complete"})
	mockToken(clk, 5*time.Minute)
	mockIPNList("ipn-1")

	var order OrderRequest
	gock.New(gatewayHost).
		Post("/pesapalv3/api/Transactions/SubmitOrderRequest").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return false, err
			}
			return true, json.Unmarshal(body, &order)
		}).
		Reply(200).
		JSON(map[string]string{
			"order_tracking_id":  "track-1",
			"merchant_reference": "order_1",
			"redirect_url":       "https://pay.pesapal.com/iframe/track-1",
			"status":             "200",
		})

	out, err := provider.InitiatePayment(context.Background(), domain.InitiatePaymentInput{
		Amount:       100,
		CurrencyCode: "KES",
	})
	require.NoError(t, err)
	assert.True(t, gock.IsDone(), "expected exactly one order submission")

	assert.Equal(t, "customer@example.com", order.BillingAddress.EmailAddress)
	assert.Equal(t, "Customer", order.BillingAddress.FirstName)
	assert.Equal(t, "KE", order.BillingAddress.CountryCode)
	assert.Equal(t, "ipn-1", order.NotificationID)
	assert.Equal(t, 100.0, order.Amount)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "pending", out.Data["status"])
	assert.Equal(t, "track-1", out.Data["order_tracking_id"])
	assert.Equal(t, "https://pay.pesapal.com/iframe/track-1", out.Data["redirect_url"])
}

func TestInitiatePaymentUsesCustomerDetails(t *testing.T) {
	provider, clk := newTestProvider(t, config.Pesapal{})
	mockToken(clk, 5*time.Minute)
	mockIPNList("ipn-1")

	var order OrderRequest
	gock.New(gatewayHost).
		Post("/pesapalv3/api/Transactions/SubmitOrderRequest").
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				return false, err
			}
			return true, json.Unmarshal(body, &order)
		}).
		Reply(200).
		JSON(map[string]string{"order_tracking_id": "track-2"})

	_, err := provider.InitiatePayment(context.Background(), domain.InitiatePaymentInput{
		Amount:       250,
		CurrencyCode: "KES",
		Context: domain.Context{
			Customer: &domain.Customer{
				Email:     "jane@example.com",
				FirstName: "Jane",
				LastName:  "Wanjiru",
				BillingAddress: &domain.Address{
					Line1:      "1 Moi Avenue",
					City:       "Nairobi",
					PostalCode: "00100",
				},
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", order.BillingAddress.EmailAddress)
	assert.Equal(t, "Jane", order.BillingAddress.FirstName)
	assert.Equal(t, "Nairobi", order.BillingAddress.City)
	assert.Equal(t, "00100", order.BillingAddress.PostalCode)
	assert.Equal(t, "00100", order.BillingAddress.ZipCode)
}

func TestInitiatePaymentStrictModePropagatesFailure(t *testing.T) {
	provider, clk := newTestProvider(t, config.Pesapal{})
	mockToken(clk, 5*time.Minute)
	mockIPNList("ipn-1")
	gock.New(gatewayHost).
		Post("/pesapalv3/api/Transactions/SubmitOrderRequest").
		Reply(500).
		JSON(map[string]string{"error": "unavailable"})

	_, err := provider.InitiatePayment(context.Background(), domain.InitiatePaymentInput{
		Amount:       100,
		CurrencyCode: "KES",
	})
	require.Error(t, err)
	assert.True(t, domain.IsIntegrationError(err))
}

func TestInitiatePaymentDegradesToPendingSession(t *testing.T) {
	provider, clk := newTestProvider(t, config.Pesapal{
		DegradeOnError: true,
		CallbackURL:    "http://localhost:9000/checkout/complete",
	})
	mockToken(clk, 5*time.Minute)
	mockIPNList("ipn-1")
	gock.New(gatewayHost).
		Post("/pesapalv3/api/Transactions/SubmitOrderRequest").
		Reply(500).
		JSON(map[string]string{"error": "unavailable"})

	out, err := provider.InitiatePayment(context.Background(), domain.InitiatePaymentInput{
		Amount:       100,
		CurrencyCode: "KES",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "pending", out.Data["status"])
	assert.Equal(t, "http://localhost:9000/checkout/complete", out.Data["redirect_url"])
}

func TestAuthorizePaymentStatusMapping(t *testing.T) {
	tests := []struct {
		description string
		want        domain.SessionStatus
	}{
		{"Completed", domain.StatusAuthorized},
		{"Failed", domain.StatusError},
		{"Pending", domain.StatusPending},
		{"Reversed", domain.StatusPending},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			provider, clk := newTestProvider(t, config.Pesapal{})
			mockToken(clk, 5*time.Minute)
			mockTransactionStatus(tc.description)

			out, err := provider.AuthorizePayment(context.Background(), domain.AuthorizePaymentInput{
				Data: domain.SessionData{"order_tracking_id": "track-1"},
			})
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.Status)
			if tc.want == domain.StatusError {
				assert.Equal(t, "failed", out.Data["status"])
			} else {
				assert.Equal(t, string(tc.want), out.Data["status"])
			}
		})
	}
}

func TestAuthorizePaymentWithoutTrackingIDStaysPending(t *testing.T) {
	provider, _ := newTestProvider(t, config.Pesapal{})

	out, err := provider.AuthorizePayment(context.Background(), domain.AuthorizePaymentInput{
		Data: domain.SessionData{"amount": 100.0},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, out.Status)
	assert.Equal(t, 100.0, out.Data["amount"])
}

func TestAuthorizePaymentQueryFailureStaysPending(t *testing.T) {
	provider, clk := newTestProvider(t, config.Pesapal{})
	mockToken(clk, 5*time.Minute)
	gock.New(gatewayHost).
		Get("/pesapalv3/api/Transactions/GetTransactionStatus").
		Reply(500).
		JSON(map[string]string{"error": "unavailable"})

	out, err := provider.AuthorizePayment(context.Background(), domain.AuthorizePaymentInput{
		Data: domain.SessionData{"order_tracking_id": "track-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, out.Status)
}

func TestAuthorizePaymentQueryFailureDegradesToAuthorized(t *testing.T) {
	provider, clk := newTestProvider(t, config.Pesapal{DegradeOnError: true})
	mockToken(clk, 5*time.Minute)
	gock.New(gatewayHost).
		Get("/pesapalv3/api/Transactions/GetTransactionStatus").
		Reply(500).
		JSON(map[string]string{"error": "unavailable"})

	out, err := provider.AuthorizePayment(context.Background(), domain.AuthorizePaymentInput{
		Data: domain.SessionData{"order_tracking_id": "track-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAuthorized, out.Status)
}

func TestAuthorizePaymentDoesNotMutateInputData(t *testing.T) {
	provider, _ := newTestProvider(t, config.Pesapal{})
	data := domain.SessionData{"amount": 100.0}

	out, err := provider.AuthorizePayment(context.Background(), domain.AuthorizePaymentInput{Data: data})
	require.NoError(t, err)

	out.Data["extra"] = true
	_, mutated := data["extra"]
	assert.False(t, mutated)
	_, hadStatus := data["status"]
	assert.False(t, hadStatus)
}

func TestGetPaymentStatusMapping(t *testing.T) {
	tests := []struct {
		description string
		want        domain.SessionStatus
	}{
		{"Completed", domain.StatusAuthorized},
		{"Failed", domain.StatusError},
		{"Pending", domain.StatusPending},
	}

	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			provider, clk := newTestProvider(t, config.Pesapal{})
			mockToken(clk, 5*time.Minute)
			mockTransactionStatus(tc.description)

			status, err := provider.GetPaymentStatus(context.Background(), domain.SessionData{"order_tracking_id": "track-1"})
			require.NoError(t, err)
			assert.Equal(t, tc.want, status)
		})
	}
}

func TestGetPaymentStatusQueryFailureReportsPending(t *testing.T) {
	provider, clk := newTestProvider(t, config.Pesapal{})
	mockToken(clk, 5*time.Minute)
	gock.New(gatewayHost).
		Get("/pesapalv3/api/Transactions/GetTransactionStatus").
		Reply(500).
		JSON(map[string]string{"error": "unavailable"})

	status, err := provider.GetPaymentStatus(context.Background(), domain.SessionData{"order_tracking_id": "track-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, status)
}

func TestLocalLifecycleOperations(t *testing.T) {
	provider, _ := newTestProvider(t, config.Pesapal{})
	ctx := context.Background()

	capture, err := provider.CapturePayment(ctx, domain.CapturePaymentInput{})
	require.NoError(t, err)
	assert.Equal(t, "captured", capture.Data["status"])

	refund, err := provider.RefundPayment(ctx, domain.RefundPaymentInput{Amount: 50})
	require.NoError(t, err)
	assert.Equal(t, "refunded", refund.Data["status"])

	cancel, err := provider.CancelPayment(ctx, domain.CancelPaymentInput{})
	require.NoError(t, err)
	assert.Equal(t, "canceled", cancel.Data["status"])

	update, err := provider.UpdatePayment(ctx, domain.UpdatePaymentInput{Data: domain.SessionData{"k": "v"}})
	require.NoError(t, err)
	assert.Equal(t, "v", update.Data["k"])

	deleted, err := provider.DeletePayment(ctx, domain.DeletePaymentInput{PaymentID: "pay-1"})
	require.NoError(t, err)
	assert.Equal(t, "pay-1", deleted.Data["id"])
	assert.Equal(t, true, deleted.Data["deleted"])

	retrieved, err := provider.RetrievePayment(ctx, domain.SessionData{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "v", retrieved["k"])
}

func TestGetWebhookActionAndData(t *testing.T) {
	provider, _ := newTestProvider(t, config.Pesapal{})

	action, err := provider.GetWebhookActionAndData(context.Background(), map[string]any{
		"OrderTrackingId": "track-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pesapal", action.Action)
	assert.Equal(t, "json", action.ContentType)
	assert.Equal(t, "track-1", action.Data["OrderTrackingId"])
}
