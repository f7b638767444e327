package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"selfeval/internal/app"
	"selfeval/internal/config"
	"selfeval/internal/logger"
	"selfeval/internal/metrics"
	"selfeval/internal/transport/rest"
	"selfeval/internal/transport/rest/middleware"
	"selfeval/internal/transport/ws"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Connect(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to start", zap.Error(err))
	}
	defer a.Close(context.Background())

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svcs := a.NewServices(cfg, m)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	wsHub := ws.NewHub(log)
	svcs.Attempts.SetBroadcaster(wsHub)

	router := rest.NewRouter(&rest.Container{
		AuthService:     svcs.Auth,
		CourseService:   svcs.Courses,
		QuestionService: svcs.Questions,
		QCAService:      svcs.QCAs,
		SurveyService:   svcs.Surveys,
		AttemptService:  svcs.Attempts,
		WSHub:           wsHub,
		Metrics:         m,
		RateLimiter:     middleware.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		Log:             log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("mode", cfg.Server.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server exited")
}
