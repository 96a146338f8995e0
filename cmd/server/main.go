package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/korvarsson/bdget/internal/api/handlers"
	"github.com/korvarsson/bdget/internal/api/middleware"
	"github.com/korvarsson/bdget/internal/config"
	"github.com/korvarsson/bdget/internal/logger"
	"github.com/korvarsson/bdget/internal/store"
)

func main() {
	cfg := config.Load()

	// Parse command-line flags; flags override the environment
	var (
		port    = flag.String("port", cfg.Port, "HTTP server port")
		dataDir = flag.String("data-dir", cfg.DataDir, "Directory for the JSON data files")
	)
	flag.Parse()

	// Initialize logger
	log := logger.WithLevel(logger.New(), cfg.LogLevel)

	// Initialize persistence
	kv, err := store.NewFileKV(*dataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data directory")
	}
	st := store.New(kv, cfg.Currency)

	// Initialize handlers
	chatHandler := handlers.NewChatHandler(st, log)
	transactionsHandler := handlers.NewTransactionsHandler(st, log)
	goalsHandler := handlers.NewGoalsHandler(st, log)
	incomeHandler := handlers.NewPredictedIncomeHandler(st, log)
	importHandler := handlers.NewImportHandler(st, nil, log)
	settingsHandler := handlers.NewSettingsHandler(st, log)

	// Create router
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.Chat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.List(w, r)
		case http.MethodPost:
			transactionsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			transactionsHandler.Delete(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/goals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			goalsHandler.List(w, r)
		case http.MethodPost:
			goalsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/goals/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/goals/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Goal ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			goalsHandler.Delete(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/predicted-income", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			incomeHandler.List(w, r)
		case http.MethodPost:
			incomeHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/predicted-income/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/predicted-income/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Predicted income ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			incomeHandler.Delete(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/import", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			importHandler.Import(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/currency", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			settingsHandler.GetCurrency(w, r)
		case http.MethodPut:
			settingsHandler.PutCurrency(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/conversation", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			settingsHandler.GetConversation(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", *port).Str("data_dir", *dataDir).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
