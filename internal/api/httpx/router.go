package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/club-pos/internal/api/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachTracingMetadata)
	r.Use(middlewares.Trace)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handler.Health)
	r.Get("/menu", handler.Menu)

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", handler.OpenCart)
		r.Route("/{cartID}", func(r chi.Router) {
			r.Get("/", handler.GetCart)
			r.Delete("/", handler.DiscardCart)
			r.Post("/items", handler.AddToCart)
			r.Post("/items/{itemID}/increase", handler.IncreaseItem)
			r.Post("/items/{itemID}/decrease", handler.DecreaseItem)
			r.Delete("/items/{itemID}", handler.RemoveItem)
			r.Post("/merge", handler.MergeIntoCart)
			r.Post("/checkout", handler.Checkout)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", handler.ListOrders)
		r.Delete("/", handler.ClearOrders)
		r.Get("/current", handler.CurrentOrder)
		r.Route("/{orderNumber}", func(r chi.Router) {
			r.Get("/", handler.GetOrder)
			r.Get("/history", handler.OrderHistory)
			r.Post("/transitions", handler.Transition)
			r.Post("/accept", handler.AcceptOrder)
			r.Post("/close", handler.CloseOrder)
			r.Post("/edit", handler.EditOrder)
			r.Put("/items", handler.ReviseOrder)
		})
	})
	return r
}
