package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/infra/crypto"
	"github.com/crosslist/backend/internal/infra/database"
	"github.com/crosslist/backend/internal/infra/logger"
	"github.com/crosslist/backend/internal/infra/mail"
	"github.com/crosslist/backend/internal/infra/queue"
	"github.com/crosslist/backend/internal/platform"
	"github.com/crosslist/backend/internal/platform/boardpost"
	"github.com/crosslist/backend/internal/platform/markethub"
	"github.com/crosslist/backend/internal/usecase"
)

// The worker binary consumes distribution jobs (including deferred
// rate-limit retries the broker releases back to the work queue) and runs
// the message poller for platforms without webhooks.
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

	listingRepo := database.NewListingRepository(db)
	credentialRepo := database.NewCredentialRepository(db)
	messageRepo := database.NewMessageRepository(db)
	leadRepo := database.NewLeadRepository(db)
	cursorRepo := database.NewCursorRepository(db)

	registry := platform.NewRegistry()
	registry.MustRegister(markethub.NewClient(os.Getenv("MARKETHUB_URL")))
	registry.MustRegister(boardpost.New(boardpost.Config{
		BaseURL:   os.Getenv("BOARDPOST_URL"),
		NoSandbox: os.Getenv("CHROME_NO_SANDBOX") == "true",
		RemoteURL: os.Getenv("CHROME_REMOTE_URL"),
	}, zlog))

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

	credentialStore := usecase.NewCredentialStore(credentialRepo, cipher, registry, zlog)
	distributeUC := usecase.NewDistributeListingUseCase(listingRepo, credentialStore, registry, producer, notifier, zlog)
	ingestUC := usecase.NewIngestMessageUseCase(messageRepo, leadRepo, zlog)
	poller := usecase.NewPollMessagesUseCase(registry, credentialStore, cursorRepo, ingestUC, zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pollInterval := 2 * time.Minute
	if raw := os.Getenv("POLL_INTERVAL"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			pollInterval = parsed
		}
	}
	go poller.Run(ctx, pollInterval)

	worker := queue.NewWorker(rabbitMQ.Ch, distributeUC, zlog)
	if err := worker.Start(ctx, queue.QueueName); err != nil && ctx.Err() == nil {
		zlog.Fatal("worker stopped", zap.Error(err))
	}
}
