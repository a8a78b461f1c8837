package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tablepos/api/internal/config"
	"github.com/tablepos/api/internal/database"
	"github.com/tablepos/api/internal/handler"
	mw "github.com/tablepos/api/internal/middleware"
	"github.com/tablepos/api/internal/service"
	"github.com/tablepos/api/internal/ws"
)

const (
	roleAdmin   = string(database.UserRoleADMIN)
	roleManager = string(database.UserRoleMANAGER)
)

// New creates a Chi router with all application routes wired up.
// hub and keys may be nil; live events and idempotency checks are then off.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub, keys mw.KeyStore) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.IdempotencyHeader},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// A nil *ws.Hub must not reach the handlers as a non-nil Broadcaster.
	var events handler.Broadcaster
	if hub != nil {
		events = hub
		// WebSocket route (handles auth internally via query param)
		r.Get("/ws/sections/{sid}", hub.Handler(cfg.JWTSecret))
	}

	// Services
	orderService := service.NewOrderService(pool, func(db database.DBTX) service.OrderStore {
		return database.New(db)
	})
	invoiceService := service.NewInvoiceService(pool, func(db database.DBTX) service.SettleStore {
		return database.New(db)
	})
	tableService := service.NewTableService(pool, func(db database.DBTX) service.TableStore {
		return database.New(db)
	})
	supplyService := service.NewSupplyService(pool, func(db database.DBTX) service.InventoryStore {
		return database.New(db)
	})
	constantsService := service.NewConstantsService(pool, func(db database.DBTX) service.ConstantsStore {
		return database.New(db)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		orderHandler := handler.NewOrderHandler(orderService, queries, events)
		paymentHandler := handler.NewPaymentHandler(invoiceService, events)
		r.Route("/orders", func(r chi.Router) {
			orderHandler.RegisterRoutes(r, mw.Idempotency(keys))
			r.Route("/{id}/payments", paymentHandler.RegisterRoutes)
		})

		tableHandler := handler.NewTableHandler(queries, tableService, events)
		r.Route("/tables", tableHandler.RegisterRoutes)

		sectionHandler := handler.NewSectionHandler(queries)
		r.Route("/sections", sectionHandler.RegisterRoutes)

		menuItemHandler := handler.NewMenuItemHandler(queries)
		r.Route("/menu-items", menuItemHandler.RegisterRoutes)

		supplyHandler := handler.NewSupplyHandler(queries, supplyService)
		r.Route("/supplies", supplyHandler.RegisterRoutes)

		constantsHandler := handler.NewConstantsHandler(constantsService)
		r.Route("/constants", func(r chi.Router) {
			constantsHandler.RegisterRoutes(r, mw.RequireRole(roleAdmin, roleManager))
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(roleAdmin))
			userHandler := handler.NewUserHandler(queries)
			r.Route("/users", userHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
