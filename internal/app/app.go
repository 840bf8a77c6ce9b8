package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"option-trader/api"
	"option-trader/internal/broker"
	"option-trader/internal/config"
	"option-trader/internal/execution"
	"option-trader/internal/features"
	"option-trader/internal/infrastructure"
	"option-trader/internal/predictor"
	"option-trader/internal/push"
	"option-trader/internal/runner"
	tradesignal "option-trader/internal/signal"
	"option-trader/internal/storage"
)

// App defines the application structure and its dependencies
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	NC         *nats.Conn
	JS         nats.JetStreamContext
	Broker     broker.Broker
	Store      *storage.Store
	Runner     *runner.Runner
	Gateway    *push.Gateway
	HTTPServer *http.Server
}

// NewApp creates a new application instance
func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	infrastructure.Init()
	logger := infrastructure.Logger

	return &App{
		Config: &cfg,
		Logger: logger,
	}, nil
}

// Init initializes all application components
func (a *App) Init(ctx context.Context) error {
	// 1. NATS
	nc, js, err := infrastructure.InitNATS(a.Config.NatsURL, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.NC = nc
	a.JS = js

	// 2. Broker
	b, err := broker.New(a.Config.BrokerKind, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to build broker: %w", err)
	}
	a.Broker = b

	// 3. Model
	var pred predictor.Predictor
	if a.Config.ModelURL != "" {
		pred = predictor.NewService(a.Config.ModelURL)
	} else {
		pred, err = predictor.LoadLogistic(a.Config.ModelWeights)
		if err != nil {
			return fmt.Errorf("failed to load model: %w", err)
		}
	}

	// 4. Store and pipeline
	a.Store = storage.NewStore(a.Config.DataFile, a.Logger)
	pipeline := features.NewPipeline()
	classifier := tradesignal.NewClassifier(pred, a.Logger)
	executor := execution.NewExecutor(a.Broker, a.Logger)
	publisher := push.NewNATSPublisher(js, a.Logger)

	a.Runner = runner.New(a.Broker, pipeline, classifier, executor, a.Store, publisher,
		runner.CandleSpec{
			Asset:           a.Config.Asset,
			IntervalSeconds: a.Config.CandleSecs,
			Count:           a.Config.CandleCount,
		}, a.Logger)

	a.Gateway = push.NewGateway(js, a.Logger)
	return nil
}

// Run starts the application services and the HTTP server
func (a *App) Run(ctx context.Context) error {
	if err := a.Gateway.Run(); err != nil {
		return fmt.Errorf("failed to start push gateway: %w", err)
	}

	a.resumeIfActive(ctx)

	a.HTTPServer = &http.Server{
		Addr:    ":" + a.Config.Port,
		Handler: a.setupRouter(),
	}

	go func() {
		a.Logger.Info("starting http server", zap.String("port", a.Config.Port))
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	return a.waitForShutdown()
}

// resumeIfActive restores the run loop after a restart when the persisted
// active flag is still set. The session is re-established from the configured
// credentials reference.
func (a *App) resumeIfActive(ctx context.Context) {
	doc, err := a.Store.Load()
	if err != nil {
		a.Logger.Error("failed to read persisted state", zap.Error(err))
		return
	}

	if doc.RunActive && a.Config.BrokerEmail != "" {
		creds := broker.Credentials{Email: a.Config.BrokerEmail, Password: a.Config.BrokerPassword}
		if err := broker.Connect(ctx, a.Broker, creds, a.Logger); err != nil {
			a.Logger.Error("failed to restore broker session, run will not resume", zap.Error(err))
			return
		}
	}

	if err := a.Runner.Resume(); err != nil {
		a.Logger.Error("failed to resume run loop", zap.Error(err))
	}
}

// waitForShutdown handles graceful shutdown signals
func (a *App) waitForShutdown() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	a.Logger.Info("shutting down...")

	// The run loop may be mid-settlement; Stop waits for the cycle to end.
	a.Runner.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.NC.Close()
	return nil
}

// setupRouter configures the Gin router and its routes
func (a *App) setupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	apiHandler := api.NewHandler(a.Runner, a.Broker, a.Store, a.Logger)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/login", apiHandler.Login)
		v1.POST("/trade", apiHandler.Trade)
		v1.POST("/bot/start", apiHandler.StartBot)
		v1.POST("/bot/stop", apiHandler.StopBot)
		v1.GET("/bot/status", apiHandler.BotStatus)
		v1.POST("/bot/reset", apiHandler.ResetRisk)
		v1.GET("/history", apiHandler.History)
		v1.GET("/balance", apiHandler.Balance)
	}

	r.StaticFile("/", "./static/index.html")
	r.Static("/static", "./static")

	r.GET("/ws", func(c *gin.Context) {
		a.Gateway.ServeHTTP(c.Writer, c.Request)
	})

	return r
}
