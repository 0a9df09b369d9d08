package router

import (
	"net/http"
	"net/url"
	"strings"

	"farmart/internal/auth"
	"farmart/internal/handler"
	"farmart/internal/middleware"
	"farmart/internal/model"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Payments *handler.PaymentHandler
	Orders   *handler.OrderHandler
	Users    *handler.UserHandler
	Uploads  *handler.UploadHandler
}

// Options configures routing that is not tied to a handler.
type Options struct {
	// UploadDir, when set, is served read-only under the path of UploadBaseURL.
	UploadDir     string
	UploadBaseURL string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, tokens auth.TokenManager, users middleware.UserLookup, opts Options, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	if opts.UploadDir != "" {
		mountUploads(r, opts.UploadDir, opts.UploadBaseURL)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.Products.GetAll)
		r.Get("/products/{id}", h.Products.GetByID)

		r.Post("/auth/register", h.Users.Register)
		r.Post("/auth/login", h.Users.Login)

		// The admin token travels in the body.
		r.Post("/admin/users", h.Users.AdminCreate)

		r.Route("/payments", func(r chi.Router) {
			r.Get("/redirect", h.Payments.Redirect)
			r.Post("/{txRef}/callback", h.Payments.Callback)
			r.Post("/{txRef}/close", h.Payments.Close)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(tokens, users, logger))

			r.Get("/users/me", h.Users.Me)
			r.Put("/users/me", h.Users.UpdateMe)
			r.Post("/uploads", h.Uploads.Upload)

			r.Route("/cart", func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleCustomer))
				r.Get("/", h.Cart.Get)
				r.Delete("/", h.Cart.Clear)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{productId}", h.Cart.UpdateItem)
				r.Delete("/items/{productId}", h.Cart.RemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleCustomer))
				r.Post("/", h.Checkout.Submit)
				r.Get("/{txRef}", h.Checkout.Status)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.Orders.List)
				r.Get("/{id}", h.Orders.GetByID)
				r.Get("/{id}/history", h.Orders.History)
				r.Patch("/{id}/status", h.Orders.UpdateStatus)
			})

			r.With(middleware.RequireRole(model.RoleCourier)).
				Get("/courier/orders", h.Orders.CourierWorkload)

			r.Route("/seller/products", func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleSeller))
				r.Get("/", h.Products.ListMine)
				r.Post("/", h.Products.Create)
				r.Put("/{id}", h.Products.Update)
				r.Delete("/{id}", h.Products.Delete)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor))
				r.Get("/admin/users", h.Users.List)
				r.Get("/admin/couriers", h.Users.ListCouriers)
				r.Get("/admin/orders/export", h.Orders.Export)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin))
				r.Patch("/admin/users/{id}/active", h.Users.SetActive)
				r.Delete("/admin/users/{id}", h.Users.Delete)
				r.Post("/admin/couriers", h.Users.SaveCourier)
				r.Put("/admin/couriers/{id}", h.Users.SaveCourier)
			})
		})
	})

	return r
}

// mountUploads serves dir at the path component of baseURL.
func mountUploads(r chi.Router, dir, baseURL string) {
	prefix := "/files"
	if u, err := url.Parse(baseURL); err == nil && strings.Trim(u.Path, "/") != "" {
		prefix = "/" + strings.Trim(u.Path, "/")
	}
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
		// Stored files are never rendered as active content on the API origin.
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; sandbox")
		fs.ServeHTTP(w, r)
	})
}
