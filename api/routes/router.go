package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/gearstore/api/controllers"
	"github.com/angelmondragon/gearstore/api/middleware"
	"github.com/angelmondragon/gearstore/internal/account"
	"github.com/angelmondragon/gearstore/internal/shop"
	"github.com/angelmondragon/gearstore/pkg/config"
	"github.com/angelmondragon/gearstore/pkg/currency"
	"github.com/angelmondragon/gearstore/pkg/logger"
)

// Dependencies are the services the local HTTP surface is built on.
type Dependencies struct {
	Config        *config.Config
	Logger        *logger.Logger
	Storage       controllers.Pinger
	Metrics       middleware.RequestObserver
	Gatherer      prometheus.Gatherer
	Session       middleware.SessionReader
	Shop          shop.Service
	Cart          controllers.CartStore
	Converter     *currency.Converter
	Account       account.Service
	Checkout      controllers.CheckoutService
	Notifications controllers.ToastFeed
}

func NewRouter(deps Dependencies) http.Handler {
	logg := deps.Logger
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	converter := deps.Converter
	if converter == nil {
		converter = currency.Default()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.Metrics),
		middleware.Session(deps.Session, logg),
	)

	r.Get("/healthz", controllers.Healthz(cfg, deps.Storage, logg))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/payment/callback", controllers.PaymentCallback(deps.Checkout, logg))

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(deps.Shop, logg))
		r.Get("/products/{id}", controllers.GetProduct(deps.Shop, logg))
		r.Get("/categories", controllers.ListCategories(deps.Shop, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, converter, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, converter, logg))
			r.Post("/items", controllers.AddCartItem(deps.Shop, logg))
			r.Patch("/items/{variantID}", controllers.UpdateCartItem(deps.Cart, converter, logg))
			r.Delete("/items/{variantID}", controllers.RemoveCartItem(deps.Cart, converter, logg))
		})

		r.Route("/session", func(r chi.Router) {
			r.Post("/login", controllers.SessionLogin(deps.Account, logg))
			r.Post("/register", controllers.SessionRegister(deps.Account, logg))
			r.Delete("/", controllers.SessionLogout(deps.Account, logg))
		})
		r.With(middleware.RequireSession(deps.Session, logg)).Get("/profile", controllers.Profile(deps.Account, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutView(deps.Checkout, logg))
			r.Post("/", controllers.CheckoutSubmit(deps.Checkout, logg))
			r.Delete("/", controllers.CheckoutAbandon(deps.Checkout, logg))
		})

		r.Get("/notifications", controllers.ListNotifications(deps.Notifications, logg))
		r.Delete("/notifications/{id}", controllers.DismissNotification(deps.Notifications, logg))
	})

	return r
}
