package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lunch-voting/internal/auth"
	"lunch-voting/internal/clock"
	"lunch-voting/internal/config"
	"lunch-voting/internal/database"
	"lunch-voting/internal/kafka"
	"lunch-voting/internal/logger"
	"lunch-voting/internal/metrics"
	"lunch-voting/internal/middleware"
	"lunch-voting/internal/models"
	"lunch-voting/internal/restaurant"
	restaurantdb "lunch-voting/internal/restaurant/db"
	"lunch-voting/internal/restaurant/restaurant_api"
	"lunch-voting/internal/sse"
	"lunch-voting/internal/user"
	userdb "lunch-voting/internal/user/db"
	"lunch-voting/internal/user/user_api"
	"lunch-voting/internal/utils"
	"lunch-voting/internal/vote"
	votedb "lunch-voting/internal/vote/db"
	voteredis "lunch-voting/internal/vote/redis"
	"lunch-voting/internal/vote/vote_api"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
)

func healthHandler(db *bun.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			utils.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()

	logger, err := logger.NewLogger(cfg.Log.Dir, cfg.Log.Service)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("APP", "Starting lunch voting service initialization")
	if envErr != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk, err := clock.NewSystem(cfg.Voting.Timezone)
	if err != nil {
		logger.Fatal("CONFIG", err.Error())
	}
	logger.Info("CONFIG", fmt.Sprintf("Voting day computed in %s", cfg.Voting.Timezone))

	bunDB, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.AutoSchema {
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Failed to create schema: %v", err))
		}
		logger.Info("DATABASE", "Schema ensured")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	gateOpts := []vote.GateOption{
		vote.WithMetrics(metrics.NewVoteMetrics(registry, "lunch_voting")),
	}
	broker := sse.NewBroker()
	publishers := []vote.Publisher{broker}

	if cfg.Redis.Enabled {
		redisClient, err := voteredis.Connect(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn("REDIS", "Vote cache disabled, duplicate checks go to the database")
		} else {
			defer redisClient.Close()
			gateOpts = append(gateOpts, vote.WithCache(voteredis.NewCache(redisClient, cfg.Redis.VoteTTL)))
		}
	}

	if cfg.Kafka.Enabled {
		logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.VoteCast}, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.VoteCast, logger)
		defer producer.Close()
		publishers = append(publishers, producer)

		if cfg.Kafka.AuditGroup != "" {
			consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.VoteCast, cfg.Kafka.AuditGroup, logger)
			defer consumer.Close()
			go func() {
				err := consumer.Run(ctx, func(ev models.VoteCastEvent) {
					logger.LogVote("AUDIT", ev.MenuID, fmt.Sprintf("vote %d by %s for restaurant %d on %s",
						ev.VoteID, ev.UserID, ev.RestaurantID, ev.MenuDate))
				})
				if err != nil {
					logger.Error("KAFKA", fmt.Sprintf("Vote audit consumer stopped: %v", err))
				}
			}()
		}
	}

	gateOpts = append(gateOpts, vote.WithPublisher(vote.Fanout(publishers...)))

	var verifier auth.Verifier
	var issuer *auth.Issuer
	if cfg.Auth.JWTSecret != "" {
		issuer, err = auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
		if err != nil {
			logger.Fatal("AUTH", err.Error())
		}
		verifier = issuer
	}
	if cfg.Auth.OIDCIssuer != "" {
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.Auth.OIDCIssuer)
		if err != nil {
			logger.Fatal("AUTH", err.Error())
		}
		verifier = oidcVerifier
		issuer = nil
		logger.Info("AUTH", "Verifying bearer tokens against "+cfg.Auth.OIDCIssuer)
	}
	if verifier == nil {
		logger.Fatal("CONFIG", "Either JWT_SECRET or OIDC_ISSUER must be set")
	}
	requireAuth := auth.Middleware(verifier, logger)

	menus := restaurant.NewService(&restaurantdb.DB{Bun: bunDB}, clk, logger)
	ledger := &votedb.DB{Bun: bunDB}
	gate := vote.NewGate(menus, ledger, clk, logger, gateOpts...)
	tally := vote.NewTally(ledger, menus, clk)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	r.Use(middleware.AppVersion(cfg.Server.MinAppVersion, logger))

	// --- Public Routes ---
	r.Get("/health", healthHandler(bunDB))
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		if issuer != nil {
			users := user.NewService(&userdb.DB{Bun: bunDB}, issuer, logger)
			user_api.NewHandler(users, logger).RegisterRoutes(r, requireAuth)
			logger.Info("ROUTER", "Auth routes registered under /api/auth")
		}

		// --- Protected Routes ---
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			restaurant_api.NewHandler(menus, logger).RegisterRoutes(r)
			logger.Info("ROUTER", "Restaurant routes registered under /api/restaurants")
			vote_api.NewHandler(gate, tally, logger).RegisterRoutes(r)
			logger.Info("ROUTER", "Vote routes registered under /api/vote")
			sse.NewHandler(broker, clk, logger).RegisterRoutes(r)
			logger.Info("ROUTER", "Vote stream registered at /api/events/votes")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", "Lunch voting service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "Lunch voting service shutdown complete")
	}
}
