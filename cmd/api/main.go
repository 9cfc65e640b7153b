package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/infra/crypto"
	"github.com/crosslist/backend/internal/infra/database"
	"github.com/crosslist/backend/internal/infra/http/handlers"
	"github.com/crosslist/backend/internal/infra/http/middleware"
	"github.com/crosslist/backend/internal/infra/logger"
	"github.com/crosslist/backend/internal/infra/mail"
	"github.com/crosslist/backend/internal/infra/queue"
	"github.com/crosslist/backend/internal/platform"
	"github.com/crosslist/backend/internal/platform/boardpost"
	"github.com/crosslist/backend/internal/platform/markethub"
	"github.com/crosslist/backend/internal/usecase"
)

func main() {
	godotenv.Load()

	zlog, err := logger.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatal(err)
	}
	defer zlog.Sync()

	db, err := database.NewDBConnection(os.Getenv("DATABASE_URL"))
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rabbitMQ, err := queue.NewRabbitMQ(
		os.Getenv("RABBITMQ_USER"), os.Getenv("RABBITMQ_PASS"),
		os.Getenv("RABBITMQ_HOST"), os.Getenv("RABBITMQ_PORT"),
	)
	if err != nil {
		zlog.Fatal("rabbitmq connection failed", zap.Error(err))
	}
	defer rabbitMQ.Conn.Close()
	defer rabbitMQ.Ch.Close()

	cipher, err := crypto.NewSecretBox(os.Getenv("CREDENTIAL_KEY"))
	if err != nil {
		zlog.Fatal("credential key invalid", zap.Error(err))
	}

	// Repositories
	listingRepo := database.NewListingRepository(db)
	credentialRepo := database.NewCredentialRepository(db)
	messageRepo := database.NewMessageRepository(db)
	leadRepo := database.NewLeadRepository(db)

	// Platform adapters
	registry := platform.NewRegistry()
	registry.MustRegister(markethub.NewClient(os.Getenv("MARKETHUB_URL")))
	registry.MustRegister(boardpost.New(boardpost.Config{
		BaseURL:   os.Getenv("BOARDPOST_URL"),
		NoSandbox: os.Getenv("CHROME_NO_SANDBOX") == "true",
		RemoteURL: os.Getenv("CHROME_REMOTE_URL"),
	}, zlog))

	// Mail and queue
	mailPort, _ := strconv.Atoi(os.Getenv("MAIL_PORT"))
	if mailPort == 0 {
		mailPort = 587
	}
	mailSender := mail.NewEmailSender(
		os.Getenv("MAIL_HOST"), mailPort,
		os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"), os.Getenv("MAIL_FROM"),
	)
	notifier := mail.NewReconnectNotifier(mailSender, mail.StaticDirectory{Address: os.Getenv("NOTIFY_FALLBACK_EMAIL")}, zlog)
	producer := queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

	// Use cases
	credentialStore := usecase.NewCredentialStore(credentialRepo, cipher, registry, zlog)
	distributeUC := usecase.NewDistributeListingUseCase(listingRepo, credentialStore, registry, producer, notifier, zlog)
	removeUC := usecase.NewRemoveListingUseCase(listingRepo, credentialStore, registry, zlog)
	ingestUC := usecase.NewIngestMessageUseCase(messageRepo, leadRepo, zlog)
	statusUC := usecase.NewUpdateLeadStatusUseCase(leadRepo, zlog)

	// Handlers
	listingHandler := handlers.NewListingHandler(listingRepo, distributeUC, removeUC, producer)
	credentialHandler := handlers.NewCredentialHandler(credentialStore, registry)
	ingestHandler := handlers.NewIngestHandler(ingestUC)
	leadHandler := handlers.NewLeadHandler(leadRepo, statusUC)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ.Conn, registry.Names())

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	r.Post("/listings", listingHandler.HandleCreate)
	r.Post("/listings/{id}/distribute", listingHandler.HandleDistribute)
	r.Post("/listings/{id}/remove", listingHandler.HandleRemove)
	r.Delete("/listings/{id}", listingHandler.HandleDelete)
	r.Post("/owners/{ownerID}/platforms/{platform}/credentials", credentialHandler.HandleConnect)
	r.Delete("/owners/{ownerID}/platforms/{platform}/credentials", credentialHandler.HandleDisconnect)
	r.Post("/ingest", ingestHandler.Handle)
	r.Get("/leads", leadHandler.HandleList)
	r.Get("/leads/{id}", leadHandler.HandleGet)
	r.Post("/leads/{id}/status", leadHandler.HandleUpdateStatus)
	r.Get("/healthz", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	zlog.Info("api listening", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
