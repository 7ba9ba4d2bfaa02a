package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docketwatch/docketwatch/config"
	"github.com/docketwatch/docketwatch/internal/courtlistener"
	"github.com/docketwatch/docketwatch/internal/monitor"
	"github.com/docketwatch/docketwatch/internal/report"
	"github.com/docketwatch/docketwatch/internal/resolve"
	"github.com/docketwatch/docketwatch/internal/store"
	"github.com/docketwatch/docketwatch/internal/telemetry"
	"github.com/docketwatch/docketwatch/news"
	"github.com/docketwatch/docketwatch/repository/redis_repository"
)

// Run wires the full service and serves until the listener fails:
// health and metrics endpoints, the report API, and the cron scheduler
// that fires collection runs.
func Run(cfg *config.Config) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if err := Migrate("file://migrations", cfg.Storage.Postgres, "up", 0); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ctx := context.Background()
	dsn, err := cfg.Storage.Postgres.DSN()
	if err != nil {
		return err
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return err
	}

	var courts redis_repository.CourtRepository
	sched := &Scheduler{Stop: make(chan struct{})}
	if cfg.Storage.Redis.Host != "" {
		rdb, err := redis_repository.Conn(ctx, cfg.Storage.Redis.Host, cfg.Storage.Redis.Port,
			cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, cfg.Storage.Redis.Timeout)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		courts = redis_repository.NewCourtRepository(rdb, 0)
		sched.Rdb = rdb
	}

	metrics := telemetry.New()
	index := courtlistener.NewClient(cfg.Sources.CourtListener, courts)
	feed := news.NewFeedSource(cfg.Sources.NewsFeed)
	mon, err := monitor.New(*cfg, index, feed, st,
		report.NewGitHubPublisher(cfg.Report), report.NewSlackNotifier(cfg.Report.SlackWebhook), metrics)
	if err != nil {
		return err
	}

	sched.Cron = cfg.Server.ScheduleCron
	sched.Store = st
	sched.Monitor = mon
	sched.Start()
	defer close(sched.Stop)

	registerReportAPI(e, cfg, st)

	return e.Start(cfg.Server.Address)
}

func registerReportAPI(e *echo.Echo, cfg *config.Config, st *store.Store) {
	renderer := report.NewRenderer(cfg.Report)
	loc, _ := time.LoadLocation(cfg.Report.Normalize().TimeZone)

	api := e.Group("/api")
	api.GET("/report/today", func(c echo.Context) error {
		day := resolve.DayOf(time.Now().In(loc), loc)
		return reportForDay(c, st, renderer, loc, day, cfg.Resolution.LookbackDays)
	})
	api.GET("/report/:day", func(c echo.Context) error {
		day := c.Param("day")
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "day must be YYYY-MM-DD")
		}
		return reportForDay(c, st, renderer, loc, day, cfg.Resolution.LookbackDays)
	})
	api.GET("/runs/:day", func(c echo.Context) error {
		runs, err := st.ListRuns(c.Request().Context(), c.Param("day"))
		if err != nil {
			return err
		}
		return c.JSON(200, runs)
	})
}

func reportForDay(c echo.Context, st *store.Store, renderer *report.Renderer, loc *time.Location, day string, lookbackDays int) error {
	records, err := st.ListDayRecords(c.Request().Context(), day)
	if err != nil {
		return err
	}
	if c.QueryParam("format") == "json" {
		return c.JSON(200, records)
	}
	body := renderer.Render(time.Now().In(loc), records, lookbackDays)
	return c.String(200, body)
}
