package handler

import (
	"io/fs"
	"net/http"

	"github.com/Dan9191/expense-service/internal/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RouterConfig collects what the HTTP surface needs besides the handlers
type RouterConfig struct {
	Tokens         middleware.TokenVerifier
	Static         fs.FS
	AllowedOrigins []string
	Logger         *logrus.Logger
}

// NewRouter wires every route and the middleware chain around them
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging(cfg.Logger), middleware.Recover)

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	api.HandleFunc("/auth/signup", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	// Protected routes
	authRouter := api.NewRoute().Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg.Tokens))
	authRouter.HandleFunc("/auth/profile", h.GetProfile).Methods(http.MethodGet)
	authRouter.HandleFunc("/auth/profile", h.UpdateProfile).Methods(http.MethodPut)

	// Fixed paths go before /expenses/{id}
	authRouter.HandleFunc("/expenses/stats/total", h.TotalExpense).Methods(http.MethodGet)
	authRouter.HandleFunc("/expenses/stats/category", h.TotalByCategory).Methods(http.MethodGet)
	authRouter.HandleFunc("/expenses/filter/category", h.ExpensesByCategory).Methods(http.MethodGet)
	authRouter.HandleFunc("/expenses/filter/daterange", h.ExpensesByDateRange).Methods(http.MethodGet)
	authRouter.HandleFunc("/expenses/search", h.SearchExpenses).Methods(http.MethodGet)
	authRouter.HandleFunc("/expenses/export", h.ExportExpenses).Methods(http.MethodGet)
	authRouter.HandleFunc("/expenses", h.CreateExpense).Methods(http.MethodPost)
	authRouter.HandleFunc("/expenses", h.ListExpenses).Methods(http.MethodGet)
	authRouter.HandleFunc("/expenses/{id}", h.GetExpense).Methods(http.MethodGet)
	authRouter.HandleFunc("/expenses/{id}", h.UpdateExpense).Methods(http.MethodPut)
	authRouter.HandleFunc("/expenses/{id}", h.DeleteExpense).Methods(http.MethodDelete)

	api.PathPrefix("/").HandlerFunc(h.NotFound)

	// Client UI
	if cfg.Static != nil {
		r.PathPrefix("/").Handler(http.FileServer(http.FS(cfg.Static)))
	}
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Content-Disposition"},
		MaxAge:         300,
	})(r)
}
