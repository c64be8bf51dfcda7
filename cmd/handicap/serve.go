package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/handicapper/internal/metrics"
	"github.com/yourusername/handicapper/internal/scheduler"
	"github.com/yourusername/handicapper/internal/server"
	"github.com/yourusername/handicapper/internal/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the evaluation HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	cal := newCalibrator()
	evaluator, err := service.NewRaceEvaluatorFromConfig(cfg, asCalibrator(cal), appLog)
	if err != nil {
		return err
	}

	var sched *scheduler.Scheduler
	srvCfg := server.Config{
		ServiceName:       cfg.App.Name,
		Version:           Version,
		Commit:            GitCommit,
		Addr:              cfg.ListenAddress(),
		RequestsPerSecond: cfg.Server.RequestsPerSecond,
		Burst:             cfg.Server.Burst,
		Logger:            appLog,
		Evaluator:         evaluator,
	}
	if cfg.Metrics.Enabled {
		srvCfg.MetricsPath = cfg.Metrics.Path
	}

	if cal != nil {
		srvCfg.Calibration = cal
		calSvc := service.NewCalibrationService(cal, cfg.Calibration, appLog)
		calSvc.OnRefit(evaluator.InvalidateCache)
		if err := calSvc.Initialize(ctx); err != nil {
			appLog.WithError(err).Warn("Starting without calibration")
		}

		if cfg.Calibration.RefreshSchedule != "" {
			sched = scheduler.NewScheduler(calSvc, appLog)
			if _, err := sched.ScheduleCalibrationRefit(cfg.Calibration.RefreshSchedule); err != nil {
				return err
			}
			if err := sched.Start(); err != nil {
				return err
			}
			defer sched.Stop()
		}
	}

	srv := server.NewServer(srvCfg)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	srv.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"addr":        cfg.ListenAddress(),
		"environment": cfg.App.Environment,
		"calibration": cal != nil,
		"scheduler":   sched != nil,
	}).Info("Handicapper started")

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	appLog.WithField("signal", sig).Info("Shutdown signal received")
	srv.SetReady(false)
	return srv.Shutdown()
}
