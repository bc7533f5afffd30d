package router

import (
	"context"
	"net/http"
	"time"

	"shoply-be/internal/cart"
	"shoply-be/internal/category"
	"shoply-be/internal/logger"
	"shoply-be/internal/metrics"
	"shoply-be/internal/middleware"
	"shoply-be/internal/order"
	"shoply-be/internal/product"
	"shoply-be/internal/user"
	"shoply-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	DB      Pinger
	Tokens  middleware.TokenParser
	Limiter *middleware.RateLimiter
	Stats   *metrics.CheckoutStats

	Users      *user.Handler
	Products   *product.Handler
	Categories *category.Handler
	Carts      *cart.Handler
	Orders     *order.Handler
}

func New(d Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.AuthMiddleware(d.Tokens))
	r.Use(middleware.LoggingMiddleware)
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}

	r.Get("/healthz", health(d.DB))
	if d.Stats != nil {
		r.Get("/metrics", d.Stats.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.Users.Register)
			r.Post("/login", d.Users.Login)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", d.Products.List)
			r.Get("/{id}", d.Products.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/", d.Products.Create)
				r.Put("/{id}", d.Products.Update)
				r.Delete("/{id}", d.Products.Delete)
			})
		})

		r.Get("/categories", d.Categories.List)

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", d.Carts.Get)
			r.Post("/add", d.Carts.Add)
			r.Put("/update/{id}", d.Carts.Update)
			r.Delete("/remove/{id}", d.Carts.Remove)
			r.Delete("/clear", d.Carts.Clear)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", d.Orders.List)
			r.Post("/create", d.Orders.Create)
			r.Get("/{id}", d.Orders.Get)
			r.Put("/{id}/status", d.Orders.UpdateStatus)
		})
	})

	return r
}

func health(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.FromCtx(r.Context()).Warn("health check failed", zap.Error(err))
			utils.WriteJSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
	}
}
