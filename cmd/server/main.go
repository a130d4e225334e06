package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"github.com/volcanocoin/backend/internal/database"
	"github.com/volcanocoin/backend/internal/handlers"
	"github.com/volcanocoin/backend/internal/metrics"
	mW "github.com/volcanocoin/backend/internal/middleware"
	"github.com/volcanocoin/backend/internal/models"
	"github.com/volcanocoin/backend/internal/services"
	"github.com/volcanocoin/backend/internal/token"
)

// @title VolcanoCoin Ledger API
// @version 1.0
// @description Fungible-token ledger with auditable payment records
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	viper.BindEnv("token.owner", "TOKEN_OWNER")
	viper.BindEnv("token.admin", "TOKEN_ADMIN")
	viper.BindEnv("token.initial_supply", "TOKEN_INITIAL_SUPPLY")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	viper.SetDefault("token.initial_supply", "10000")

	// Construct the ledger engine
	owner, err := models.ParseAddress(viper.GetString("token.owner"))
	if err != nil {
		log.Fatalf("Invalid token.owner: %v", err)
	}
	admin, err := models.ParseAddress(viper.GetString("token.admin"))
	if err != nil {
		log.Fatalf("Invalid token.admin: %v", err)
	}
	initialSupply, err := models.ToSmallestUnit(viper.GetString("token.initial_supply"))
	if err != nil {
		log.Fatalf("Invalid token.initial_supply: %v", err)
	}

	engine, err := token.NewService(token.Config{
		Owner:         owner,
		Admin:         admin,
		InitialSupply: initialSupply,
	})
	if err != nil {
		log.Fatalf("Failed to construct ledger: %v", err)
	}
	metrics.SetTotalSupply(engine.TotalSupply())
	log.Printf("Ledger constructed: owner=%s admin=%s supply=%s VLC",
		owner, admin, models.FromSmallestUnit(engine.TotalSupply()))

	// Audit journal (optional)
	db := database.InitDatabase()
	if db != nil {
		defer db.Close()
	}
	journal := services.NewJournalService(db)
	if err := journal.EnsureSchema(); err != nil {
		log.Printf("Warning: failed to ensure journal schema: %v", err)
	}

	// Redis: event relay + payment-request cache (optional)
	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()

	events, unsubscribe := engine.Subscribe(nil, 128)
	defer unsubscribe()
	go services.NewEventRelay(redisClient).Run(relayCtx, events)

	tokenHandler := handlers.NewTokenHandler(engine, journal)
	qrService := services.NewQRService(redisClient)
	qrHandler := handlers.NewQRHandler(qrService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public reads (no auth required)
		r.Get("/supply", tokenHandler.TotalSupply)
		r.Get("/accounts/{address}/balance", tokenHandler.BalanceEnquiry)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Post("/transfer", tokenHandler.Transfer)
			r.Post("/supply/increase", tokenHandler.IncreaseSupply)

			r.Get("/payments/{paymentId}", tokenHandler.GetPayment)
			r.Put("/payments/{paymentId}", tokenHandler.UpdateDetails)
			r.Get("/accounts/{address}/payments", tokenHandler.ListAccountPayments)
			r.Get("/accounts/{address}/payments/{index}", tokenHandler.GetAccountPayment)

			// QR payment requests
			r.Post("/qr/generate", qrHandler.GenerateQR)
			r.Post("/qr/process", qrHandler.ProcessQR)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
