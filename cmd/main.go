package main

import (
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"rsvpbot/internal/infrastructure"
	httpiface "rsvpbot/internal/interfaces/http"
	"rsvpbot/internal/repository"
	"rsvpbot/internal/usecases"
)

func main() {
	// Load .env file (optional; real deployments set env directly)
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Connect to PostgreSQL
	pgClient, err := infrastructure.NewPostgresClient(os.Getenv("DATABASE_URL"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pgClient.Pool)
	deliveryRepo := repository.NewDeliveryRepository(pgClient.Pool)

	// Auth + initial admin
	authUsecase := usecases.NewAuthUsecase(userRepo, os.Getenv("JWT_SECRET"))
	if err := authUsecase.EnsureAdmin(envOr("ADMIN_USER", "admin"), os.Getenv("ADMIN_PASSWORD")); err != nil {
		log.Warn().Err(err).Msg("failed to ensure admin user")
	}

	// Outbound clients
	sender := infrastructure.NewWhatsAppClient(os.Getenv("WA_TOKEN"), os.Getenv("PHONE_NUMBER_ID"), log)
	if base := os.Getenv("GRAPH_API_BASE"); base != "" {
		sender.WithBaseURL(base)
	}
	backend := infrastructure.NewBackendClient(os.Getenv("BACKEND_API_BASE"), os.Getenv("BACKEND_API_KEY"), log)

	adminChatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_ADMIN_CHAT_ID"), 10, 64)
	notifier := infrastructure.NewTelegramNotifier(os.Getenv("TELEGRAM_BOT_TOKEN"), adminChatID, log)

	// Conversation engine
	sessions := infrastructure.NewSessionStore()
	sessions.DebugReset = os.Getenv("DEBUG_RESET_SESSIONS") == "true"
	if sessions.DebugReset {
		log.Warn().Msg("DEBUG_RESET_SESSIONS is on; every message restarts the flow")
	}
	engine := usecases.NewConversationEngine(sessions, backend, backend, log).WithNotifier(notifier)

	// Broadcast orchestrator
	orchestrator := usecases.NewBroadcastOrchestrator(sender, backend, backend, log).
		WithDeliveryRepository(deliveryRepo).
		WithNotifier(notifier)

	// HTTP server
	verifyToken := envOr("VERIFY_TOKEN", "ED_WA_Verify_2025")
	handler := httpiface.NewHandler(engine, orchestrator, sender, backend, sessions, deliveryRepo, verifyToken, log)
	middleware := httpiface.NewMiddleware(os.Getenv("JWT_SECRET"))

	r := gin.Default()
	httpiface.SetupRoutes(r, handler, authUsecase, middleware)

	addr := "0.0.0.0:" + envOr("PORT", "8080")
	log.Info().Str("addr", addr).Msg("starting http server")
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
