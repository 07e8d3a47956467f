package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	v1 "github.com/thorep/stallplass-sub008/cmd/api/router/v1"
	authAdapter "github.com/thorep/stallplass-sub008/internal/infrastructure/auth/adapter"
	cacheAdapter "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/adapter"
	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	"github.com/thorep/stallplass-sub008/internal/infrastructure/database"
	queueAdapter "github.com/thorep/stallplass-sub008/internal/infrastructure/queue/adapter"
	qport "github.com/thorep/stallplass-sub008/internal/infrastructure/queue/port"
	"github.com/thorep/stallplass-sub008/internal/infrastructure/realtime"
	"github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/task"
	messagingctl "github.com/thorep/stallplass-sub008/internal/pkg/messaging/presentation/controller"
	messagingHandler "github.com/thorep/stallplass-sub008/internal/pkg/messaging/presentation/http"
	userAdapter "github.com/thorep/stallplass-sub008/internal/repository/adapter"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found or could not be loaded", "error", err)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// Connect to the database on startup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := database.NewPoolFromEnv(ctx)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	authn, err := authAdapter.NewJWTAuthenticatorFromEnv()
	if err != nil {
		log.Error("failed to configure authentication", "error", err)
		os.Exit(1)
	}

	// Cache and queue degrade gracefully: unread counts fall back to the DB
	// and read receipts are marked inline when Redis is unreachable.
	var cache cacheport.Cache
	if c, err := cacheAdapter.NewRedisAdapter(); err != nil {
		log.Warn("running without cache", "error", err)
	} else {
		cache = c
		defer c.Close()
	}

	var queueClient qport.Client
	if qc, err := queueAdapter.NewAsynqClientFromEnv(); err != nil {
		log.Warn("running without task queue", "error", err)
	} else {
		queueClient = qc
		defer qc.Close()
	}

	rtRouter := realtime.NewRouter()
	defer rtRouter.Close()

	presence := realtime.NewPresence(typingIdleFromEnv(), func(conversationID string, state realtime.TypingState) {
		if frame := messagingctl.EncodeTypingStopped(conversationID, state); frame != nil {
			rtRouter.Broadcast(conversationID, frame, state.UserID)
		}
	})
	defer presence.Close()

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Background worker for best-effort read receipts, when Redis is around.
	if queueClient != nil {
		srv, err := queueAdapter.NewAsynqServer()
		if err != nil {
			log.Warn("task worker not started", "error", err)
		} else {
			task.RegisterMarkReadTask(srv, pool, cache)
			go func() {
				if err := srv.Run(rootCtx); err != nil {
					log.Error("task worker stopped", "error", err)
				}
			}()
		}
	}

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "OK",
		})
	})

	v1.RegisterRoutes(r, authn, messagingHandler.Deps{
		Pool:     pool,
		Cache:    cache,
		Queue:    queueClient,
		Router:   rtRouter,
		Presence: presence,
		Users:    userAdapter.NewPgUserRepository(pool),
		Log:      log,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.Info("starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func typingIdleFromEnv() time.Duration {
	if v := os.Getenv("TYPING_IDLE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return realtime.DefaultTypingIdle
}
