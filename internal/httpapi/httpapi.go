package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/auth"
	"github.com/choshma-zone/storefront/internal/cart"
	"github.com/choshma-zone/storefront/internal/catalog"
	"github.com/choshma-zone/storefront/internal/checkout"
	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/media"
	"github.com/choshma-zone/storefront/internal/observability"
	"github.com/choshma-zone/storefront/internal/wishlist"
)

//go:generate mockgen -source internal/httpapi/httpapi.go -destination=internal/httpapi/httpapi_mock_test.go -package=httpapi

type Catalog interface {
	ListWithStats(ctx context.Context, activeOnly bool) ([]domain.Product, catalog.LookupStats, error)
	GetByIDWithStats(ctx context.Context, id string) (*domain.Product, catalog.LookupStats, error)
	Upsert(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type Authenticator interface {
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	Session(ctx context.Context, token string) (*auth.User, error)
	SignOut(ctx context.Context, token string) error
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (*auth.Session, error)
}

type Orders interface {
	GetByUID(ctx context.Context, orderUID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
}

type Checkout interface {
	Place(ctx context.Context, cart checkout.CartView, userID string, info checkout.Info) (*domain.Order, error)
}

type Server struct {
	catalog   Catalog
	auth      Authenticator
	orders    Orders
	checkout  Checkout
	carts     *cart.Manager
	wishlists *wishlist.Manager
	media     *media.Store
	adminKey  string

	router  chi.Router
	logger  *zap.Logger
	metrics observability.Metrics
}

type Deps struct {
	Catalog   Catalog
	Auth      Authenticator
	Orders    Orders
	Checkout  Checkout
	Carts     *cart.Manager
	Wishlists *wishlist.Manager
	Media     *media.Store
	AdminKey  string
}

func New(deps Deps, logger *zap.Logger, metrics observability.Metrics) *Server {
	s := &Server{
		catalog:   deps.Catalog,
		auth:      deps.Auth,
		orders:    deps.Orders,
		checkout:  deps.Checkout,
		carts:     deps.Carts,
		wishlists: deps.Wishlists,
		media:     deps.Media,
		adminKey:  deps.AdminKey,
		logger:    logger,
		metrics:   metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(ServerTimingApp(s.metrics))

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", s.listProducts)
		r.Get("/products/{id}", s.getProduct)

		r.Get("/cart", s.getCart)
		r.Post("/cart", s.addToCart)
		r.Put("/cart/{productID}", s.setCartQuantity)
		r.Delete("/cart/{productID}", s.removeFromCart)
		r.Delete("/cart", s.clearCart)

		r.Get("/wishlist", s.getWishlist)
		r.Post("/wishlist/toggle", s.toggleWishlist)
		r.Delete("/wishlist/{productID}", s.removeFromWishlist)

		r.Post("/checkout", s.placeOrder)
		r.Get("/orders", s.listMyOrders)
		r.Get("/orders/{uid}", s.getOrder)

		r.Post("/auth/signin", s.signIn)
		r.Post("/auth/signout", s.signOut)
		r.Post("/auth/otp/request", s.requestOTP)
		r.Post("/auth/otp/verify", s.verifyOTP)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/products", s.upsertProduct)
			r.Delete("/products/{id}", s.deleteProduct)
			r.Post("/products/{id}/image", s.uploadProductImage)
		})
	})

	s.router = r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

func (s *Server) Handler() http.Handler { return s.router }

// user resolves the session token best-effort; anonymous requests get a nil
// user, not an error.
func (s *Server) user(r *http.Request) *auth.User {
	u, err := s.auth.Session(r.Context(), bearerToken(r))
	if err != nil {
		return nil
	}
	return u
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNotSignedIn):
		http.Error(w, "sign in required", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidOTP):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrDuplicateEntry), errors.Is(err, domain.ErrReferenced):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, checkout.ErrEmptyCart):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "service error", http.StatusInternalServerError)
	}
}

func lookupHeaders(w http.ResponseWriter, st catalog.LookupStats) {
	observability.AppendServerTiming(w, "cache", st.CacheMs, "")
	observability.AppendServerTiming(w, "db", st.DBMs, "")
	observability.AppendServerTiming(w, "source", 0, string(st.Source))
	w.Header().Set("X-Source", string(st.Source))
	observability.SetIfPos(w, "X-Cache-Time", st.CacheMs)
	observability.SetIfPos(w, "X-DB-Time", st.DBMs)
}
