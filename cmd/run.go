package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/internal/courtlistener"
	"github.com/docketwatch/docketwatch/internal/monitor"
	"github.com/docketwatch/docketwatch/internal/report"
	"github.com/docketwatch/docketwatch/internal/store"
	"github.com/docketwatch/docketwatch/internal/telemetry"
	"github.com/docketwatch/docketwatch/news"
	"github.com/docketwatch/docketwatch/repository/redis_repository"
)

func runCMD() *cobra.Command {
	var cfgPath string
	var printReport bool
	var run = &cobra.Command{
		Use:   "run",
		Short: "Execute one collection run and publish the report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig(cfgPath)
			ctx := context.Background()

			var st monitor.Storage = monitor.NopStorage{}
			if dsn, err := cfg.Storage.Postgres.DSN(); err == nil {
				s, err := store.NewWithDSN(ctx, dsn)
				if err != nil {
					return fmt.Errorf("postgres: %w", err)
				}
				st = s
			}

			var courts redis_repository.CourtRepository
			if cfg.Storage.Redis.Host != "" {
				rdb, err := redis_repository.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
					cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
				if err != nil {
					return fmt.Errorf("redis: %w", err)
				}
				courts = redis_repository.NewCourtRepository(rdb, 0)
			}

			index := courtlistener.NewClient(cfg.Sources.CourtListener, courts)
			feed := news.NewFeedSource(cfg.Sources.NewsFeed)
			mon, err := monitor.New(*cfg, index, feed, st,
				report.NewGitHubPublisher(cfg.Report), report.NewSlackNotifier(cfg.Report.SlackWebhook),
				telemetry.New())
			if err != nil {
				return err
			}

			body, err := mon.RunOnce(ctx)
			if err != nil {
				return err
			}
			if printReport {
				fmt.Println(body)
			}
			return nil
		},
	}
	run.Flags().BoolVar(&printReport, "print", false, "print the rendered report to stdout")
	run.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	return run
}
