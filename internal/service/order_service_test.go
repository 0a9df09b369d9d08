package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"farmart/internal/auth"
	"farmart/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOrderFixture() (OrderService, *MockOrderRepository, *MockUserRepository, *MockDispatcher, *MockPublisher) {
	orders := new(MockOrderRepository)
	users := new(MockUserRepository)
	dispatcher := new(MockDispatcher)
	publisher := new(MockPublisher)
	svc := NewOrderService(orders, users, dispatcher, publisher, zerolog.Nop())
	return svc, orders, users, dispatcher, publisher
}

func testOrder(status model.Status, sellers ...string) *model.Order {
	order := &model.Order{
		ID:            uuid.New(),
		CustomerID:    "C1",
		CustomerName:  "Ama Mensah",
		CustomerEmail: "ama@example.com",
		Currency:      "GHS",
		Status:        status,
		PaymentMethod: model.PaymentMethodPayOnDelivery,
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	for i, seller := range sellers {
		order.Items = append(order.Items, model.OrderItem{
			ProductID:  seller + "-P" + string(rune('A'+i)),
			Name:       "Yam",
			Quantity:   1,
			Price:      decimal.RequireFromString("10.00"),
			SellerID:   seller,
			SellerName: "Farm " + seller,
		})
	}
	order.TotalAmount = model.TotalOf(order.Items)
	order.AttributeSeller()
	return order
}

func TestOrderService_ListScopesByRole(t *testing.T) {
	tests := []struct {
		name     string
		actor    *auth.Principal
		expected model.OrderFilter
		err      error
	}{
		{
			name:     "customer sees own orders",
			actor:    principal("C1", model.RoleCustomer),
			expected: model.OrderFilter{CustomerID: "C1", Limit: 20},
		},
		{
			name:     "seller sees orders with own lines",
			actor:    principal("S1", model.RoleSeller),
			expected: model.OrderFilter{SellerID: "S1", Limit: 20},
		},
		{
			name:     "courier sees delivery workload",
			actor:    principal("K1", model.RoleCourier),
			expected: model.OrderFilter{Statuses: courierStatuses, Limit: 20},
		},
		{
			name:     "admin sees everything",
			actor:    principal("A1", model.RoleAdmin),
			expected: model.OrderFilter{Limit: 20},
		},
		{
			name:  "unknown role",
			actor: principal("X1", model.Role("guest")),
			err:   model.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, orders, _, _, _ := newOrderFixture()
			if tt.err == nil {
				orders.On("List", mock.Anything, tt.expected).Return([]model.Order{*testOrder(model.StatusPending, "S1")}, nil).Once()
			}

			got, err := svc.List(context.Background(), tt.actor, model.OrderFilter{Limit: 20})

			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				orders.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, 1)
			orders.AssertExpectations(t)
		})
	}
}

func TestOrderService_Get(t *testing.T) {
	order := testOrder(model.StatusProcessing, "S1", "S2")

	tests := []struct {
		name  string
		actor *auth.Principal
		found bool
	}{
		{"owner", principal("C1", model.RoleCustomer), true},
		{"other customer", principal("C2", model.RoleCustomer), false},
		{"seller on the order", principal("S2", model.RoleSeller), true},
		{"unrelated seller", principal("S9", model.RoleSeller), false},
		{"courier on active delivery", principal("K1", model.RoleCourier), true},
		{"supervisor", principal("U1", model.RoleSupervisor), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, orders, _, _, _ := newOrderFixture()
			orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

			got, err := svc.Get(context.Background(), tt.actor, order.ID)

			if !tt.found {
				assert.ErrorIs(t, err, model.ErrOrderNotFound)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, order.ID, got.ID)
		})
	}

	t.Run("missing order", func(t *testing.T) {
		svc, orders, _, _, _ := newOrderFixture()
		orders.On("GetByID", mock.Anything, mock.Anything).Return(nil, nil)

		_, err := svc.Get(context.Background(), principal("A1", model.RoleAdmin), uuid.New())
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("repository error", func(t *testing.T) {
		svc, orders, _, _, _ := newOrderFixture()
		orders.On("GetByID", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		_, err := svc.Get(context.Background(), principal("A1", model.RoleAdmin), uuid.New())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get order")
	})

	t.Run("courier cannot see pending orders", func(t *testing.T) {
		svc, orders, _, _, _ := newOrderFixture()
		pending := testOrder(model.StatusPending, "S1")
		orders.On("GetByID", mock.Anything, pending.ID).Return(pending, nil)

		_, err := svc.Get(context.Background(), principal("K1", model.RoleCourier), pending.ID)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	seller := func(id string) *model.User {
		return &model.User{ID: id, DisplayName: "Seller " + id, Email: id + "@farms.test", Role: model.RoleSeller, Active: true}
	}

	t.Run("admin starts processing a shared order and everyone is told", func(t *testing.T) {
		svc, orders, users, dispatcher, publisher := newOrderFixture()
		order := testOrder(model.StatusPaid, "S1", "S2")
		orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
		orders.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(c model.StatusChange) bool {
			return c.OrderID == order.ID &&
				c.From == model.StatusPaid &&
				c.To == model.StatusProcessing &&
				c.ActorID == "A1" &&
				c.ActorRole == model.RoleAdmin
		})).Return(nil).Once()
		users.On("GetByID", mock.Anything, "S1").Return(seller("S1"), nil)
		users.On("GetByID", mock.Anything, "S2").Return(seller("S2"), nil)
		dispatcher.On("SendStatusUpdate", mock.Anything, mock.Anything, toEmail("ama@example.com")).Return(nil).Once()
		dispatcher.On("SendStatusUpdate", mock.Anything, mock.Anything, toEmail("S1@farms.test")).Return(nil).Once()
		dispatcher.On("SendStatusUpdate", mock.Anything, mock.Anything, toEmail("S2@farms.test")).Return(nil).Once()
		publisher.On("StatusChanged", mock.Anything, mock.Anything, mock.Anything).Once()

		got, err := svc.UpdateStatus(context.Background(), principal("A1", model.RoleAdmin), order.ID, model.StatusProcessing)

		require.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, got.Status)
		orders.AssertExpectations(t)
		dispatcher.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("email failure does not undo the change", func(t *testing.T) {
		svc, orders, users, dispatcher, publisher := newOrderFixture()
		order := testOrder(model.StatusShipped, "S1")
		orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
		orders.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil)
		users.On("GetByID", mock.Anything, "S1").Return(seller("S1"), nil)
		dispatcher.On("SendStatusUpdate", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
		publisher.On("StatusChanged", mock.Anything, mock.Anything, mock.Anything)

		got, err := svc.UpdateStatus(context.Background(), principal("K1", model.RoleCourier), order.ID, model.StatusDelivered)

		require.NoError(t, err)
		assert.Equal(t, model.StatusDelivered, got.Status)
	})

	t.Run("sole seller starts processing", func(t *testing.T) {
		svc, orders, users, dispatcher, publisher := newOrderFixture()
		order := testOrder(model.StatusPaid, "S1")
		orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
		orders.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(c model.StatusChange) bool {
			return c.ActorID == "S1" && c.To == model.StatusProcessing
		})).Return(nil).Once()
		users.On("GetByID", mock.Anything, "S1").Return(seller("S1"), nil)
		dispatcher.On("SendStatusUpdate", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		publisher.On("StatusChanged", mock.Anything, mock.Anything, mock.Anything).Once()

		got, err := svc.UpdateStatus(context.Background(), principal("S1", model.RoleSeller), order.ID, model.StatusProcessing)

		require.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, got.Status)
		orders.AssertExpectations(t)
	})

	rejected := []struct {
		name    string
		current model.Status
		sellers []string
		next    model.Status
		actor   *auth.Principal
		err     error
	}{
		{"unknown status", model.StatusPending, []string{"S1"}, model.Status("Lost"), principal("A1", model.RoleAdmin), model.ErrInvalidStatus},
		{"customer cannot ship", model.StatusPending, []string{"S1"}, model.StatusShipped, principal("C1", model.RoleCustomer), model.ErrInvalidStatusTransition},
		{"customer cannot cancel once paid", model.StatusPaid, []string{"S1"}, model.StatusCancelled, principal("C1", model.RoleCustomer), model.ErrInvalidStatusTransition},
		{"courier cannot cancel", model.StatusShipped, []string{"S1"}, model.StatusCancelled, principal("K1", model.RoleCourier), model.ErrInvalidStatusTransition},
		{"delivered is terminal", model.StatusDelivered, []string{"S1"}, model.StatusCancelled, principal("A1", model.RoleAdmin), model.ErrInvalidStatusTransition},
		{"no skipping back", model.StatusShipped, []string{"S1"}, model.StatusPending, principal("A1", model.RoleAdmin), model.ErrInvalidStatusTransition},
		{"seller cannot cancel a shared order", model.StatusPaid, []string{"S1", "S2"}, model.StatusCancelled, principal("S1", model.RoleSeller), model.ErrInvalidStatusTransition},
		{"seller cannot process a shared order", model.StatusPaid, []string{"S1", "S2"}, model.StatusProcessing, principal("S2", model.RoleSeller), model.ErrInvalidStatusTransition},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			svc, orders, _, dispatcher, _ := newOrderFixture()
			order := testOrder(tt.current, tt.sellers...)
			orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)

			_, err := svc.UpdateStatus(context.Background(), tt.actor, order.ID, tt.next)

			assert.ErrorIs(t, err, tt.err)
			orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
			dispatcher.AssertNotCalled(t, "SendStatusUpdate", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("concurrent change wins", func(t *testing.T) {
		svc, orders, _, dispatcher, publisher := newOrderFixture()
		order := testOrder(model.StatusPending, "S1")
		orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
		orders.On("UpdateStatus", mock.Anything, mock.Anything).Return(model.ErrStatusConflict)

		_, err := svc.UpdateStatus(context.Background(), principal("S1", model.RoleSeller), order.ID, model.StatusProcessing)

		assert.ErrorIs(t, err, model.ErrStatusConflict)
		dispatcher.AssertNotCalled(t, "SendStatusUpdate", mock.Anything, mock.Anything, mock.Anything)
		publisher.AssertNotCalled(t, "StatusChanged", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestOrderService_History(t *testing.T) {
	svc, orders, _, _, _ := newOrderFixture()
	order := testOrder(model.StatusProcessing, "S1")
	history := []model.StatusChange{
		{OrderID: order.ID, From: model.StatusPending, To: model.StatusProcessing, ActorID: "S1", ActorRole: model.RoleSeller},
	}
	orders.On("GetByID", mock.Anything, order.ID).Return(order, nil)
	orders.On("History", mock.Anything, order.ID).Return(history, nil)

	got, err := svc.History(context.Background(), principal("C1", model.RoleCustomer), order.ID)
	require.NoError(t, err)
	assert.Equal(t, history, got)

	_, err = svc.History(context.Background(), principal("C2", model.RoleCustomer), order.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestOrderService_CourierWorkload(t *testing.T) {
	svc, orders, _, _, _ := newOrderFixture()
	orders.On("List", mock.Anything, model.OrderFilter{Statuses: courierStatuses, Limit: 500}).
		Return([]model.Order{*testOrder(model.StatusShipped, "S1")}, nil)

	got, err := svc.CourierWorkload(context.Background(), principal("K1", model.RoleCourier))
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.CourierWorkload(context.Background(), principal("S1", model.RoleSeller))
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestOrderService_Export(t *testing.T) {
	t.Run("staff export", func(t *testing.T) {
		svc, orders, _, _, _ := newOrderFixture()
		filter := model.OrderFilter{Statuses: []model.Status{model.StatusDelivered}}
		orders.On("List", mock.Anything, filter).
			Return([]model.Order{*testOrder(model.StatusDelivered, "S1"), *testOrder(model.StatusDelivered, "S1", "S2")}, nil)

		var buf bytes.Buffer
		err := svc.Export(context.Background(), principal("A1", model.RoleAdmin), filter, &buf)

		require.NoError(t, err)
		// xlsx files are zip archives.
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PK")))
	})

	t.Run("sellers may not export", func(t *testing.T) {
		svc, orders, _, _, _ := newOrderFixture()

		var buf bytes.Buffer
		err := svc.Export(context.Background(), principal("S1", model.RoleSeller), model.OrderFilter{}, &buf)

		assert.ErrorIs(t, err, model.ErrForbidden)
		assert.Zero(t, buf.Len())
		orders.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})
}
