package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"farmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOrderID = uuid.MustParse("7d1c2f9e-4b7a-4c1e-9a51-0c5a2b7e3f10")

func testOrder() *model.Order {
	return &model.Order{
		ID:            testOrderID,
		CustomerID:    "C1",
		CustomerName:  "Kofi Boateng",
		CustomerEmail: "kofi@example.com",
		Items: []model.OrderItem{
			{ProductID: "A", Name: "Tomatoes", Quantity: 2, Price: decimal.RequireFromString("3.99"), SellerID: "S1", SellerName: "Green Acres"},
			{ProductID: "B", Name: "Yams", Quantity: 1, Price: decimal.RequireFromString("12.50"), SellerID: "S2", SellerName: "Volta Farms"},
		},
		TotalAmount:     decimal.RequireFromString("20.48"),
		Currency:        "GHS",
		Status:          model.StatusPaid,
		PaymentMethod:   model.PaymentMethodOnline,
		ShippingAddress: model.ShippingAddress{Street: "12 Market Road", City: "Accra", Zip: "00233"},
		PaymentDetails:  &model.PaymentDetails{TransactionID: "TX1", Status: "successful", Gateway: "Flutterwave"},
	}
}

func TestSubjects(t *testing.T) {
	id := "ORD1"

	assert.Equal(t, "Welcome to Vical Farmart!", WelcomeSubject())
	assert.Equal(t, "New Order Placed on Vical Farmart (#ORD1)", OrderAlertSubject(id, model.RoleAdmin))
	assert.Equal(t, "You have a new order! (#ORD1)", OrderAlertSubject(id, model.RoleSeller))
	assert.Equal(t, "Update on your Vical Farmart Order #ORD1", StatusUpdateSubject(id, model.RoleCustomer, model.StatusShipped))
	assert.Equal(t, "Order #ORD1 status has been updated to Shipped", StatusUpdateSubject(id, model.RoleSeller, model.StatusShipped))
	assert.Equal(t, "Your Vical Farmart Order Confirmation (#ORD1)", ConfirmationSubject(id))
	assert.Equal(t, "Your Vical Farmart Order Invoice (#ORD1)", InvoiceSubject(id))
}

// recordingTransport keeps every email it is asked to send.
type recordingTransport struct {
	sent []Email
	err  error
}

func (r *recordingTransport) Send(_ context.Context, email Email) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, email)
	return nil
}

func newTestDispatcher(t *testing.T) (Dispatcher, *recordingTransport) {
	t.Helper()
	composer, err := NewTemplateComposer()
	require.NoError(t, err)
	transport := &recordingTransport{}
	return NewDispatcher(composer, transport, zerolog.Nop()), transport
}

func TestDispatcher_SendConfirmation(t *testing.T) {
	d, transport := newTestDispatcher(t)

	require.NoError(t, d.SendConfirmation(context.Background(), testOrder()))
	require.Len(t, transport.sent, 1)

	email := transport.sent[0]
	assert.Equal(t, "kofi@example.com", email.To)
	assert.Equal(t, "Your Vical Farmart Order Confirmation (#"+testOrderID.String()+")", email.Subject)
	assert.Contains(t, email.HTMLBody, "Tomatoes")
	assert.Contains(t, email.HTMLBody, "GH₵20.48")
	assert.Contains(t, email.HTMLBody, "TX1")
	assert.Contains(t, email.HTMLBody, "receipt")
}

func TestDispatcher_SendInvoice(t *testing.T) {
	d, transport := newTestDispatcher(t)
	order := testOrder()
	order.Status = model.StatusPending
	order.PaymentMethod = model.PaymentMethodPayOnDelivery
	order.PaymentDetails = nil

	require.NoError(t, d.SendInvoice(context.Background(), order))
	require.Len(t, transport.sent, 1)

	email := transport.sent[0]
	assert.Equal(t, "Your Vical Farmart Order Invoice (#"+testOrderID.String()+")", email.Subject)
	assert.Contains(t, email.HTMLBody, "due on delivery")
	assert.Contains(t, email.HTMLBody, "not a receipt")
}

func TestDispatcher_SendOrderAlert_ScopedToSeller(t *testing.T) {
	d, transport := newTestDispatcher(t)
	order := testOrder()

	seller := Recipient{ID: "S2", Name: "Volta Farms", Email: "volta@example.com", Role: model.RoleSeller}
	require.NoError(t, d.SendOrderAlert(context.Background(), order, seller, order.Items[1:]))

	email := transport.sent[0]
	assert.Equal(t, "You have a new order! (#"+testOrderID.String()+")", email.Subject)
	assert.Contains(t, email.HTMLBody, "Yams")
	assert.NotContains(t, email.HTMLBody, "Tomatoes")
	assert.Contains(t, email.HTMLBody, "GH₵12.50")
}

func TestDispatcher_SendOrderAlert_Admin(t *testing.T) {
	d, transport := newTestDispatcher(t)
	order := testOrder()

	admin := Recipient{Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin}
	require.NoError(t, d.SendOrderAlert(context.Background(), order, admin, order.Items))

	email := transport.sent[0]
	assert.Equal(t, "New Order Placed on Vical Farmart (#"+testOrderID.String()+")", email.Subject)
	assert.Contains(t, email.HTMLBody, "Tomatoes")
	assert.Contains(t, email.HTMLBody, "Yams")
}

func TestDispatcher_SendStatusUpdate(t *testing.T) {
	d, transport := newTestDispatcher(t)
	order := testOrder()
	order.Status = model.StatusShipped

	require.NoError(t, d.SendStatusUpdate(context.Background(), order, customerOf(order)))
	require.NoError(t, d.SendStatusUpdate(context.Background(), order,
		Recipient{ID: "S1", Name: "Green Acres", Email: "green@example.com", Role: model.RoleSeller}))

	require.Len(t, transport.sent, 2)
	assert.Equal(t, "Update on your Vical Farmart Order #"+testOrderID.String(), transport.sent[0].Subject)
	assert.Contains(t, transport.sent[0].HTMLBody, "on its way")
	assert.Equal(t, "Order #"+testOrderID.String()+" status has been updated to Shipped", transport.sent[1].Subject)
	assert.NotContains(t, transport.sent[1].HTMLBody, "Yams")
}

func TestDispatcher_SendWelcome(t *testing.T) {
	d, transport := newTestDispatcher(t)

	user := &model.User{ID: "U1", DisplayName: "Esi <b>", Email: "esi@example.com", Role: model.RoleSeller}
	require.NoError(t, d.SendWelcome(context.Background(), user))

	email := transport.sent[0]
	assert.Equal(t, "Welcome to Vical Farmart!", email.Subject)
	assert.Contains(t, email.HTMLBody, "list your produce")
	assert.Contains(t, email.HTMLBody, "Esi &lt;b&gt;")
}

func TestDispatcher_TransportFailurePropagates(t *testing.T) {
	composer, err := NewTemplateComposer()
	require.NoError(t, err)
	transport := &recordingTransport{err: errors.New("smtp down")}
	d := NewDispatcher(composer, transport, zerolog.Nop())

	err = d.SendConfirmation(context.Background(), testOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestDispatcher_MissingAddress(t *testing.T) {
	d, transport := newTestDispatcher(t)
	order := testOrder()
	order.CustomerEmail = ""

	assert.Error(t, d.SendConfirmation(context.Background(), order))
	assert.Empty(t, transport.sent)
}

func TestPostmarkTransport_Send(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		response    string
		expectError bool
	}{
		{
			name:     "Accepted",
			status:   http.StatusOK,
			response: `{"ErrorCode":0,"Message":"OK","MessageID":"abc","SubmittedAt":"2024-03-01T10:00:00Z","To":"kofi@example.com"}`,
		},
		{
			name:        "Rejected",
			status:      http.StatusUnprocessableEntity,
			response:    `{"ErrorCode":300,"Message":"Invalid email request"}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got map[string]interface{}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/email", r.URL.Path)
				assert.Equal(t, "pm-token", r.Header.Get("X-Postmark-Server-Token"))
				body, _ := io.ReadAll(r.Body)
				_ = json.Unmarshal(body, &got)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			transport := NewPostmarkTransport("pm-token", server.URL, Sender{Name: "Vical Farmart", Address: "orders@farmart.test"})
			err := transport.Send(context.Background(), Email{To: "kofi@example.com", Subject: "Hi", HTMLBody: "<p>Hi</p>"})

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "kofi@example.com", got["To"])
			assert.Equal(t, "<p>Hi</p>", got["HtmlBody"])
			assert.Equal(t, "Vical Farmart <orders@farmart.test>", got["From"])
		})
	}
}

func TestSendGridTransport_Send(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		expectError bool
	}{
		{name: "Accepted", status: http.StatusAccepted},
		{name: "Unauthorised", status: http.StatusUnauthorized, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v3/mail/send", r.URL.Path)
				assert.Equal(t, "Bearer SG.key", r.Header.Get("Authorization"))
				b, _ := io.ReadAll(r.Body)
				body = string(b)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			transport := NewSendGridTransport("SG.key", server.URL, Sender{Name: "Vical Farmart", Address: "orders@farmart.test"})
			err := transport.Send(context.Background(), Email{To: "kofi@example.com", Subject: "Hi", HTMLBody: "<p>Hi</p>"})

			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, strings.Contains(body, "kofi@example.com"))
			assert.True(t, strings.Contains(body, "orders@farmart.test"))
		})
	}
}

func TestLogTransport_Send(t *testing.T) {
	assert.NoError(t, NewLogTransport(zerolog.Nop()).Send(context.Background(), Email{To: "a@b.c"}))
}
