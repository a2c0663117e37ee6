package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kwalram/textile-pos/internal/core/domain"
	"github.com/kwalram/textile-pos/internal/core/service"
	"github.com/kwalram/textile-pos/internal/port"
)

// SessionHeader identifies the browsing session owning a cart and its
// payment flow. Each session is served independently.
const SessionHeader = "X-Session-ID"

const defaultSalesLimit = 50

type HTTPHandler struct {
	checkout *service.CheckoutService
	catalog  port.CatalogRepository
	sales    port.SalesRepository
}

func NewHTTPHandler(checkout *service.CheckoutService, catalog port.CatalogRepository, sales port.SalesRepository) *HTTPHandler {
	return &HTTPHandler{checkout: checkout, catalog: catalog, sales: sales}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type openCheckoutRequest struct {
	CustomerInfo domain.CustomerInfo `json:"customerInfo"`
}

type selectMethodRequest struct {
	Method string `json:"method"`
}

type cashInputRequest struct {
	CashReceived string `json:"cashReceived"`
}

type confirmResponse struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"orderNumber"`
	Message     string `json:"message,omitempty"`
}

type cartResponse struct {
	Items []domain.LineItem `json:"items"`
	Total int64             `json:"total"`
}

func toCartResponse(cart *domain.Cart) cartResponse {
	items := cart.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	return cartResponse{Items: items, Total: cart.Total()}
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- products ---

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.Name == "" || p.UnitPrice < 0 {
		writeError(w, http.StatusBadRequest, "missing name or negative price")
		return
	}

	id, err := h.catalog.CreateProduct(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	var p domain.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.UnitPrice < 0 {
		writeError(w, http.StatusBadRequest, "negative price")
		return
	}

	ok, err := h.catalog.UpdateProduct(r.Context(), id, p)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "productId")

	ok, err := h.catalog.DeleteProduct(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- cart ---

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	cart, err := h.checkout.GetCart(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	var body addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProductID == "" {
		writeError(w, http.StatusBadRequest, "missing productId")
		return
	}

	cart, err := h.checkout.AddItem(r.Context(), sessionID, body.ProductID)
	if err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")

	var body updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.checkout.UpdateQuantity(r.Context(), sessionID, productID, body.Quantity)
	if err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productId")

	cart, err := h.checkout.RemoveItem(r.Context(), sessionID, productID)
	if err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(cart))
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.checkout.ClearCart(r.Context(), sessionID); err != nil {
		h.writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- checkout / payment flow ---

func (h *HTTPHandler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	var body openCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.checkout.OpenCheckout(r.Context(), sessionID, body.CustomerInfo)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	view, err := h.checkout.CheckoutView(sessionID)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) SelectMethod(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	var body selectMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Method == "" {
		writeError(w, http.StatusBadRequest, "missing method")
		return
	}

	view, err := h.checkout.SelectMethod(r.Context(), sessionID, domain.PaymentMethod(body.Method))
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) EnterCash(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	var body cashInputRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := h.checkout.EnterCash(sessionID, body.CashReceived)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	conf, err := h.checkout.Confirm(r.Context(), sessionID)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResponse{
		Success:     true,
		OrderNumber: conf.OrderNumber,
		Message:     conf.Message,
	})
}

func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	view, err := h.checkout.Cancel(sessionID)
	if err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := h.checkout.CloseCheckout(sessionID); err != nil {
		h.writeCheckoutError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// --- reports ---

func (h *HTTPHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	limit := defaultSalesLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	sales, err := h.sales.ListSales(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load sales")
		return
	}
	if sales == nil {
		sales = []domain.Sale{}
	}
	writeJSON(w, http.StatusOK, sales)
}

func (h *HTTPHandler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sales.Summarize(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// --- helpers ---

func (h *HTTPHandler) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing "+SessionHeader+" header")
		return "", false
	}
	return sessionID, true
}

func (h *HTTPHandler) writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound), errors.Is(err, domain.ErrLineItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCheckoutOpen):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (h *HTTPHandler) writeCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart), errors.Is(err, service.ErrInsufficientCash):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrNoActiveCheckout):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrCheckoutOpen),
		errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrArtifactNotReady),
		errors.Is(err, service.ErrFlowBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUnknownMethod):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubmitFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
