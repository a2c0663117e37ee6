package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(h *HTTPHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", h.Health)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Post("/", h.CreateProduct)
		r.Get("/{productId}", h.GetProduct)
		r.Put("/{productId}", h.UpdateProduct)
		r.Delete("/{productId}", h.DeleteProduct)
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{productId}", h.UpdateQuantity)
		r.Delete("/items/{productId}", h.RemoveItem)
	})

	r.Route("/api/checkout", func(r chi.Router) {
		r.Post("/", h.OpenCheckout)
		r.Get("/", h.GetCheckout)
		r.Delete("/", h.CloseCheckout)
		r.Post("/method", h.SelectMethod)
		r.Put("/cash", h.EnterCash)
		r.Post("/confirm", h.Confirm)
		r.Post("/cancel", h.Cancel)
	})

	r.Route("/api/reports", func(r chi.Router) {
		r.Get("/sales", h.ListSales)
		r.Get("/summary", h.SalesSummary)
	})

	return r
}
