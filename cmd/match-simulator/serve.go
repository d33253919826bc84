package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/utakatalp/match-simulator/internal/api"
	"github.com/utakatalp/match-simulator/internal/config"
	"github.com/utakatalp/match-simulator/internal/league"
	"github.com/utakatalp/match-simulator/internal/simulator"
	"github.com/utakatalp/match-simulator/internal/store"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the match scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			log, err := config.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func seed(cfg *config.Config) int64 {
	if cfg.Simulation.Seed != 0 {
		return cfg.Simulation.Seed
	}
	return time.Now().UnixNano()
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	// 1) Storage
	repo, closeRepo, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer closeRepo()
	log.WithField("driver", cfg.Database.Driver).Info("Storage ready")

	// 2) Engine, service and scheduler
	engine := league.NewEngine(cfg.Rules(), league.NewRand(seed(cfg)), uuid.NewString)
	svc := simulator.NewService(repo, engine, log, simulator.Options{
		KickDelay:    cfg.Simulation.KickDelay,
		RoundSpacing: cfg.Simulation.GroupRoundSpacing,
		ReturnLegGap: cfg.Simulation.ReturnLegGap,
	})
	sched, err := simulator.NewScheduler(svc, cfg.Simulation.Speed, log)
	if err != nil {
		return err
	}
	go sched.Run(ctx)

	// 3) HTTP
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(svc, sched, log, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
