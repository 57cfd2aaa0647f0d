package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caldermed/medanchor/internal/handler"
	"github.com/caldermed/medanchor/internal/ledger"
	"github.com/caldermed/medanchor/internal/reconcile"
	"github.com/caldermed/medanchor/internal/records"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("medanchord exited with error", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	// ── Configuration ────────────────────────────────────────────────────────
	viper.SetConfigName("medanchor")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("configs")
	viper.AddConfigPath(".")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	viper.SetDefault("server.rate_limit_rps", 20)
	viper.SetDefault("database.url", "")
	viper.SetDefault("ledger.topic_id", "")
	viper.SetDefault("ledger.submit_timeout", "10s")
	viper.SetDefault("ledger.bulk_deadline", "30s")
	viper.SetDefault("ledger.point_deadline", "10s")
	viper.SetDefault("ledger.logs_deadline", "15s")

	if err := viper.ReadInConfig(); err != nil {
		var cfgNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgNotFound) {
			return fmt.Errorf("read config: %w", err)
		}
		logger.Warn("no config file found, using defaults and env vars")
	}

	// ── Store + ledger transport ─────────────────────────────────────────────
	// A configured database gets the durable postgres pair; without one the
	// process runs fully in memory for development.
	var (
		store  records.Store
		client ledger.Client
	)
	if dbURL := viper.GetString("database.url"); dbURL != "" {
		db, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer db.Close()

		if err := db.Ping(context.Background()); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("connected to postgres")

		store = records.NewPostgresStore(db)
		client = ledger.NewPostgresClient(db, logger)
	} else {
		logger.Warn("no database.url configured; using in-memory store and ledger; do not use in production")
		store = records.NewMemoryStore()
		client = ledger.NewMemoryClient()
	}

	// ── Anchoring topic ──────────────────────────────────────────────────────
	topic := ledger.TopicID(viper.GetString("ledger.topic_id"))
	if topic == "" {
		created, err := client.CreateTopic(context.Background())
		if err != nil {
			return fmt.Errorf("bootstrap anchoring topic: %w", err)
		}
		topic = created
		logger.Info("no ledger.topic_id configured; created a fresh topic",
			zap.String("topic", string(topic)),
		)
	}

	writer := ledger.NewWriter(client, topic, viper.GetDuration("ledger.submit_timeout"), logger)
	reader := ledger.NewReader(client, logger)
	rec := reconcile.New(store, reader, topic,
		viper.GetDuration("ledger.bulk_deadline"),
		viper.GetDuration("ledger.point_deadline"),
		logger,
	)

	recordHandler := handler.NewRecordHandler(store, writer, logger)
	verifyHandler := handler.NewVerifyHandler(rec, logger)
	topicHandler := handler.NewTopicHandler(client, reader, topic, viper.GetDuration("ledger.logs_deadline"), logger)

	// ── HTTP Router ──────────────────────────────────────────────────────────
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	corsOrigins := viper.GetStringSlice("server.cors_origins")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(corsOrigins),
		MaxAge:           12 * time.Hour,
	}))

	// Request body size limit (1 MB)
	router.Use(func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
		c.Next()
	})

	if rps := viper.GetInt("server.rate_limit_rps"); rps > 0 {
		router.Use(handler.RateLimiter(rps, rps*2))
	}

	router.Use(requestLogger(logger))
	router.Use(handler.PrometheusMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "topic": string(topic)})
	})
	router.GET("/metrics", handler.MetricsHandler())

	root := router.Group("")
	recordHandler.Register(root)
	verifyHandler.Register(root)
	topicHandler.Register(root)

	// ── Serve + graceful shutdown ────────────────────────────────────────────
	httpPort := viper.GetInt("server.port")
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", httpPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("medanchord HTTP listening",
			zap.Int("port", httpPort),
			zap.String("topic", string(topic)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP listen error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down medanchord...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	logger.Info("medanchord stopped")
	return nil
}

// containsWildcard returns true if origins includes "*".
func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			return true
		}
	}
	return false
}

// requestLogger returns a Gin middleware that logs each request with zap.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
