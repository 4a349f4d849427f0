package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/elibrary-service/elibrary/config"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/handler"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/repository"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/server"
	"github.com/Astemirdum/elibrary-service/elibrary/internal/service"
	"github.com/Astemirdum/elibrary-service/elibrary/migrations"
	"github.com/Astemirdum/elibrary-service/pkg/auth"
	"github.com/Astemirdum/elibrary-service/pkg/circuit_breaker"
	"github.com/Astemirdum/elibrary-service/pkg/kafka"
	"github.com/Astemirdum/elibrary-service/pkg/logger"
	"github.com/Astemirdum/elibrary-service/pkg/metrics"
	"github.com/Astemirdum/elibrary-service/pkg/postgres"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "elibrary")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	pub := kafka.NewNopPublisher()
	if cfg.Kafka.Enable {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		pub = kafka.NewPublisher(producer, cfg.Kafka.Topic, circuit_breaker.New(100, time.Second, 0.2, 2))
	}

	m := metrics.NewCirculation(prometheus.DefaultRegisterer)
	circulation := service.NewCirculation(repo, log,
		service.WithPublisher(pub),
		service.WithMetrics(m),
	)
	issuer := auth.NewIssuer(cfg.Auth)
	accounts := service.NewAccounts(repo, issuer, log)
	catalog := service.NewCatalog(repo, log)
	sweeper := service.NewOverdueSweeper(repo, cfg.Circulation.SweepInterval, m, log)

	h := handler.New(circulation, accounts, catalog, issuer, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr",
				net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})
	g.Go(func() error {
		return sweeper.Run(gCtx)
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gCtx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("app stopped", zap.Error(err))
	}

	if err := pub.Close(); err != nil {
		log.Warn("publisher close", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}
