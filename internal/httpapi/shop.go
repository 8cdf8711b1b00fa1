package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/cart"
	"github.com/choshma-zone/storefront/internal/checkout"
	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/notify"
)

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "1"

	products, st, err := s.catalog.ListWithStats(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	lookupHeaders(w, st)
	writeJSON(w, map[string]any{"products": products})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, st, err := s.catalog.GetByIDWithStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	lookupHeaders(w, st)
	writeJSON(w, p)
}

// deviceCart resolves the caller's cart by device identity: the X-Device-ID
// header, then the device_id cookie, then a fresh ID set as a cookie.
func (s *Server) deviceCart(w http.ResponseWriter, r *http.Request) *cart.Cart {
	id := strings.TrimSpace(r.Header.Get("X-Device-ID"))
	if id == "" {
		if c, err := r.Cookie("device_id"); err == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     "device_id",
			Value:    id,
			Path:     "/",
			HttpOnly: true,
		})
	}
	return s.carts.ForDevice(id)
}

type cartResponse struct {
	Lines      []domain.CartLine `json:"lines"`
	ItemsTotal float64           `json:"items_total"`
}

func cartBody(c *cart.Cart) cartResponse {
	return cartResponse{Lines: c.Lines(), ItemsTotal: checkout.Round2(c.ItemsTotal())}
}

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, cartBody(s.deviceCart(w, r)))
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ProductID == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	// Denormalize display fields at add-time so the cart stays renderable
	// after a catalog change.
	p, _, err := s.catalog.GetByIDWithStats(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}

	c := s.deviceCart(w, r)
	c.Add(domain.CartLine{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Quantity:  req.Quantity,
	})
	writeJSON(w, cartBody(c))
}

func (s *Server) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	c := s.deviceCart(w, r)
	c.SetQuantity(chi.URLParam(r, "productID"), req.Quantity)
	writeJSON(w, cartBody(c))
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	c := s.deviceCart(w, r)
	c.Remove(chi.URLParam(r, "productID"))
	writeJSON(w, cartBody(c))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	c := s.deviceCart(w, r)
	c.Clear()
	writeJSON(w, cartBody(c))
}

type wishlistResponse struct {
	Entries []domain.WishlistEntry `json:"entries"`
	Notices []notify.Notice        `json:"notices,omitempty"`
}

func (s *Server) getWishlist(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	if u == nil {
		writeError(w, domain.ErrNotSignedIn)
		return
	}

	sess := s.wishlists.ForUser(r.Context(), u.ID)
	writeJSON(w, wishlistResponse{
		Entries: sess.Coordinator.Entries(),
		Notices: sess.Notices.Drain(),
	})
}

// toggleWishlist works for anonymous callers too: the coordinator turns the
// mutation into a no-op plus a sign-in prompt notice.
func (s *Server) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ProductID == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	p, _, err := s.catalog.GetByIDWithStats(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, err)
		return
	}

	var userID string
	if u := s.user(r); u != nil {
		userID = u.ID
	}

	sess := s.wishlists.ForUser(r.Context(), userID)
	if err := sess.Coordinator.Toggle(r.Context(), *p); err != nil && !isBenign(err) {
		s.logger.Warn("wishlist toggle failed",
			zap.String("product_id", req.ProductID),
			zap.Error(err),
		)
	}
	writeJSON(w, wishlistResponse{
		Entries: sess.Coordinator.Entries(),
		Notices: sess.Notices.Drain(),
	})
}

func (s *Server) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	if u == nil {
		writeError(w, domain.ErrNotSignedIn)
		return
	}

	sess := s.wishlists.ForUser(r.Context(), u.ID)
	if err := sess.Coordinator.Remove(r.Context(), chi.URLParam(r, "productID")); err != nil && !isBenign(err) {
		s.logger.Warn("wishlist remove failed", zap.Error(err))
	}
	writeJSON(w, wishlistResponse{
		Entries: sess.Coordinator.Entries(),
		Notices: sess.Notices.Drain(),
	})
}

// isBenign filters outcomes the coordinator already resolved locally; the
// drained notices carry anything user-facing.
func isBenign(err error) bool {
	return err == nil || errors.Is(err, domain.ErrNotSignedIn)
}

type checkoutRequest struct {
	CustomerName string         `json:"customer_name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone"`
	Address      string         `json:"address"`
	City         string         `json:"city"`
	Zip          string         `json:"zip"`
	Region       string         `json:"region"`
	Payment      domain.Payment `json:"payment"`
}

func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var userID string
	if u := s.user(r); u != nil {
		userID = u.ID
	}

	c := s.deviceCart(w, r)
	order, err := s.checkout.Place(r.Context(), c, userID, checkout.Info{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		City:         req.City,
		Zip:          req.Zip,
		Region:       req.Region,
		Payment:      req.Payment,
	})
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			writeError(w, err)
		case isServiceError(err):
			http.Error(w, "service error", http.StatusInternalServerError)
		default:
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, order)
}

// isServiceError separates infrastructure failures from request validation;
// the former must read as 5xx so the client knows the cart survived.
func isServiceError(err error) bool {
	return strings.Contains(err.Error(), "place order")
}

func (s *Server) listMyOrders(w http.ResponseWriter, r *http.Request) {
	u := s.user(r)
	if u == nil {
		writeError(w, domain.ErrNotSignedIn)
		return
	}

	orders, err := s.orders.ListByUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"orders": orders})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.GetByUID(r.Context(), chi.URLParam(r, "uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, order)
}
