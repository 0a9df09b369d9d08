package handler

import (
	"context"
	"io"
	"net/http"

	"farmart/internal/auth"
	"farmart/internal/model"
	"farmart/internal/payment"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) ListMine(ctx context.Context, seller *auth.Principal) ([]model.Product, error) {
	args := m.Called(ctx, seller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, seller *auth.Principal, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, seller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, seller *auth.Principal, id string, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, seller, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, seller *auth.Principal, id string) error {
	return m.Called(ctx, seller, id).Error(0)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cart(args mock.Arguments) (*model.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) Get(ctx context.Context, customerID string) (*model.Cart, error) {
	return m.cart(m.Called(ctx, customerID))
}

func (m *MockCartService) AddItem(ctx context.Context, customerID, productID string, quantity int) (*model.Cart, error) {
	return m.cart(m.Called(ctx, customerID, productID, quantity))
}

func (m *MockCartService) UpdateItem(ctx context.Context, customerID, productID string, quantity int) (*model.Cart, error) {
	return m.cart(m.Called(ctx, customerID, productID, quantity))
}

func (m *MockCartService) RemoveItem(ctx context.Context, customerID, productID string) (*model.Cart, error) {
	return m.cart(m.Called(ctx, customerID, productID))
}

func (m *MockCartService) Clear(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Submit(ctx context.Context, customerID string, req *model.CheckoutRequest) (*model.CheckoutResult, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResult), args.Error(1)
}

func (m *MockCheckoutService) Status(ctx context.Context, customerID, txRef string) (*model.CheckoutResult, error) {
	args := m.Called(ctx, customerID, txRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResult), args.Error(1)
}

func (m *MockCheckoutService) Shutdown(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) List(ctx context.Context, actor *auth.Principal, filter model.OrderFilter) ([]model.Order, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, actor *auth.Principal, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) History(ctx context.Context, actor *auth.Principal, id uuid.UUID) ([]model.StatusChange, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusChange), args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, actor *auth.Principal, id uuid.UUID, next model.Status) (*model.Order, error) {
	args := m.Called(ctx, actor, id, next)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CourierWorkload(ctx context.Context, actor *auth.Principal) ([]model.Order, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderService) Export(ctx context.Context, actor *auth.Principal, filter model.OrderFilter, w io.Writer) error {
	return m.Called(ctx, actor, filter, w).Error(0)
}

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) user(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Register(ctx context.Context, data *model.UserData) (*model.User, error) {
	return m.user(m.Called(ctx, data))
}

func (m *MockUserService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LoginResponse), args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, userID string) (*model.User, error) {
	return m.user(m.Called(ctx, userID))
}

func (m *MockUserService) UpdateMe(ctx context.Context, userID string, update *model.ProfileUpdate) (*model.User, error) {
	return m.user(m.Called(ctx, userID, update))
}

func (m *MockUserService) AdminCreate(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	return m.user(m.Called(ctx, req))
}

func (m *MockUserService) List(ctx context.Context, role model.Role) ([]model.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) SetActive(ctx context.Context, id string, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *MockUserService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) ListCouriers(ctx context.Context) ([]model.Courier, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Courier), args.Error(1)
}

func (m *MockUserService) SaveCourier(ctx context.Context, courier *model.Courier) (*model.Courier, error) {
	args := m.Called(ctx, courier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Courier), args.Error(1)
}

// MockUploadService is a mock implementation of UploadService.
type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, filename, contentType, body)
	return args.String(0), args.Error(1)
}

// MockSessions is a mock implementation of PaymentSessions.
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Callback(txRef string, cb payment.Callback) error {
	return m.Called(txRef, cb).Error(0)
}

func (m *MockSessions) Redirect(rawURL string) error {
	return m.Called(rawURL).Error(0)
}

func (m *MockSessions) Dismiss(txRef string) error {
	return m.Called(txRef).Error(0)
}

// withURLParams sets chi route parameters on r.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// asUser attaches an authenticated principal to r.
func asUser(r *http.Request, id string, role model.Role) (*http.Request, *auth.Principal) {
	p := &auth.Principal{UserID: id, Email: id + "@example.com", Role: role}
	return r.WithContext(auth.WithPrincipal(r.Context(), p)), p
}
