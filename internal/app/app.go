package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trumpwatch/internal/aggregator"
	"trumpwatch/internal/alerting"
	"trumpwatch/internal/config"
	"trumpwatch/internal/fetcher"
	"trumpwatch/internal/httpapi"
	"trumpwatch/internal/market"
	"trumpwatch/internal/scheduler"
	"trumpwatch/internal/service"
	"trumpwatch/internal/storage"
	"trumpwatch/internal/tui"
)

const shutdownTimeout = 5 * time.Second

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer

	sources func() aggregator.Sources
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	a := &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
	a.sources = a.newFetchers
	return a
}

func (a *App) newFetchers() aggregator.Sources {
	src := a.Config.Sources
	base := func(endpoint, key string) fetcher.Options {
		return fetcher.Options{BaseURL: endpoint, APIKey: key, Timeout: src.Timeout, UserAgent: src.UserAgent}
	}
	fred := base(src.Endpoints.FRED, src.APIKeys.FRED)
	if src.APIKeys.FRED == "" {
		a.Logger.Warn().Strs("kinds", []string{string(market.KindSP500), string(market.KindUnemployment), string(market.KindInflation), string(market.KindOil)}).
			Msg("fred api key not set, these metrics will use fallback values")
	}
	termStart := a.Config.Term.Start
	baselines := a.Config.Baselines

	return aggregator.Sources{
		Metrics: []fetcher.MetricFetcher{
			fetcher.NewTreasury(fetcher.TreasuryOptions{Options: base(src.Endpoints.Treasury, ""), TermStart: termStart}, a.Logger),
			fetcher.NewGas(fetcher.GasOptions{Options: base(src.Endpoints.EIA, src.APIKeys.EIA), Baseline: config.Decimal(baselines.Gas)}, a.Logger),
			fetcher.NewFREDSeries(market.KindSP500, fetcher.SeriesSP500, fred, a.Logger),
			fetcher.NewFREDSeries(market.KindUnemployment, fetcher.SeriesUnemployment, fred, a.Logger),
			fetcher.NewFREDInflation(fred, a.Logger),
			fetcher.NewBitcoin(fetcher.BitcoinOptions{Options: base(src.Endpoints.CoinGecko, src.APIKeys.CoinGecko), Baseline: config.Decimal(baselines.Bitcoin)}, a.Logger),
			fetcher.NewGold(fetcher.GoldOptions{Options: base(src.Endpoints.Metals, src.APIKeys.Metals), Baseline: config.Decimal(baselines.Gold)}, a.Logger),
			fetcher.NewFREDSeries(market.KindOil, fetcher.SeriesWTI, fred, a.Logger),
			fetcher.NewExecutiveOrders(fetcher.ExecutiveOrdersOptions{Options: base(src.Endpoints.FederalRegister, ""), TermStart: termStart}, a.Logger),
		},
		Quotes: fetcher.NewQuotes(base(src.Endpoints.Quotes, ""), a.Logger),
		Posts:  fetcher.NewPosts(base(src.Endpoints.TruthSocial, ""), a.Logger),
	}
}

// newAggregator wires every source. extra names kinds forced onto their
// fallback in addition to sources.disabled.
func (a *App) newAggregator(extra []string) (*aggregator.Aggregator, error) {
	disabled, err := ParseKinds(append(append([]string{}, a.Config.Sources.Disabled...), extra...))
	if err != nil {
		return nil, err
	}
	if len(disabled) > 0 {
		a.Logger.Info().Strs("disabled", kindStrings(disabled)).Msg("sources forced to fallback")
	}

	fallbacks := aggregator.NewFallbacks(a.Config.Fallbacks, a.Config.Baselines)
	return aggregator.New(a.sources(), fallbacks, aggregator.Options{
		Timeout:    a.Config.Sources.Timeout,
		QuoteCount: a.Config.Sources.QuoteCount,
		Disabled:   disabled,
	}, a.Logger), nil
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Digest.Enabled {
		return nil
	}
	cfg := a.Config.Digest.Telegram
	return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
}

// ParseKinds resolves source names such as "gas" or "bitcoin". Blank entries
// are ignored.
func ParseKinds(names []string) ([]market.Kind, error) {
	var kinds []market.Kind
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		kind, ok := market.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func kindStrings(kinds []market.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// Run executes the long-running refresh service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	agg, err := a.newAggregator(nil)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		RunOnStart:   true,
	}, a.Logger)

	store := storage.NewMemory()
	svc := service.New(a.Config, sched, agg, store, store, a.newNotifier(), a.Logger)

	worker := aggregator.NewWorker(svc.Cycle, a.Logger)
	worker.Start(ctx)
	defer worker.Close()

	if a.Config.HTTP.Enabled {
		srv := a.newHTTPServer(svc, worker)
		go func() {
			a.Logger.Info().Str("addr", srv.Addr).Msg("http api listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error().Err(err).Msg("http api stopped")
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.Logger.Error().Err(err).Msg("http api forced to shutdown")
			}
		}()
	}

	a.Logger.Info().Msg("starting refresh service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("refresh service stopped")
	return nil
}

func (a *App) newHTTPServer(svc *service.Service, worker *aggregator.Worker) *http.Server {
	if a.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpapi.New(svc.Term(), svc, worker, a.Logger).RegisterRoutes(r)

	return &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Watch opens the terminal dashboard.
func (a *App) Watch(ctx context.Context) error {
	agg, err := a.newAggregator(nil)
	if err != nil {
		return err
	}

	worker := aggregator.NewWorker(agg.Refresh, a.Logger)
	worker.Start(ctx)
	defer worker.Close()

	return tui.Run(a.Config.Term.Window(), worker.RefreshNow)
}

// ExportOptions hold parameters for exporting the current snapshot.
type ExportOptions struct {
	PNGPath string
	CSVPath string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	JSON bool
}
