package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"sun_transit/internal/config"
	"sun_transit/internal/database"
	"sun_transit/internal/detector"
	"sun_transit/internal/dump1090"
	"sun_transit/internal/feed"
	"sun_transit/internal/models"
	"sun_transit/internal/notify"
	"sun_transit/internal/scheduler"
	"sun_transit/internal/solar"
	"sun_transit/internal/tasks"
)

// Beyond this radius the flat-earth direction estimate drifts noticeably
const flatEarthLimitKm = 100

// Daemon represents the main daemon structure
type Daemon struct {
	ctx       context.Context
	cancel    context.CancelFunc
	scheduler *scheduler.Scheduler
	source    feed.Source
	notifier  notify.Notifier
	database  *database.DB // nil when the registry is disabled
	done      chan struct{}
}

// New wires the feed, sun model, detector, notifier and optional registry
// into a scheduled detection task
func New(cfg *config.Config) (*Daemon, error) {
	observer := models.Observer{
		Latitude:  cfg.Observer.Latitude,
		Longitude: cfg.Observer.Longitude,
		Elevation: cfg.Observer.Elevation,
	}

	det, err := detector.New(detector.Config{Observer: observer, Margin: cfg.Margin})
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	sun, err := solar.New(cfg.SolarModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create sun locator: %w", err)
	}

	source, err := newSource(cfg.Feed)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg.Notify)
	if err != nil {
		source.Close()
		return nil, err
	}

	db, err := openRegistry(cfg.Registry)
	if err != nil {
		source.Close()
		notifier.Close()
		return nil, err
	}

	if cfg.Feed.RadiusKm > flatEarthLimitKm {
		slog.Warn("Search radius exceeds the flat-earth approximation's useful range",
			"radius_km", cfg.Feed.RadiusKm,
			"limit_km", flatEarthLimitKm,
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sched := scheduler.New(ctx)

	taskCfg := tasks.TransitDetectorConfig{
		Source:   source,
		Sun:      sun,
		Detector: det,
		Notifier: notifier,
		RadiusKm: cfg.Feed.RadiusKm,
		Interval: cfg.PollInterval,
	}
	if db != nil {
		taskCfg.Registry = db.AircraftRepository()
	}
	sched.AddTask(tasks.NewTransitDetector(taskCfg))

	slog.Info("Daemon configured",
		"latitude", observer.Latitude,
		"longitude", observer.Longitude,
		"elevation", observer.Elevation,
		"margin", cfg.Margin,
		"feed", cfg.Feed.Source,
		"solar_model", cfg.SolarModel,
		"notify", cfg.Notify.Method,
		"registry", db != nil,
	)

	return &Daemon{
		ctx:       ctx,
		cancel:    cancel,
		scheduler: sched,
		source:    source,
		notifier:  notifier,
		database:  db,
		done:      make(chan struct{}),
	}, nil
}

func newSource(cfg config.FeedConfig) (feed.Source, error) {
	switch cfg.Source {
	case "adsbx":
		retry := feed.DefaultRetryConfig()
		retry.MaxRetries = cfg.MaxRetries
		return feed.NewADSBExchangeClient(feed.ADSBExchangeConfig{
			BaseURL:   cfg.BaseURL,
			Host:      cfg.Host,
			APIKey:    cfg.APIKey,
			RateLimit: cfg.RateLimit,
			Timeout:   cfg.Timeout,
			Retry:     retry,
		}), nil
	case "dump1090":
		return dump1090.NewClient(cfg.BaseURL, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown feed source: %s", cfg.Source)
	}
}

func newNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	switch cfg.Method {
	case notify.MethodEmail:
		e, err := notify.NewEmail(notify.EmailConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.From,
			Password: cfg.Password,
			To:       cfg.To,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create email notifier: %w", err)
		}
		return e, nil
	case notify.MethodLog:
		return notify.Log{}, nil
	default:
		return nil, fmt.Errorf("unknown notify method: %s", cfg.Method)
	}
}

// openRegistry opens the aircraft registry and fills it from the CSV files on
// first use. Returns nil when no database path is configured.
func openRegistry(cfg config.RegistryConfig) (*database.DB, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}

	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize registry database: %w", err)
	}

	repo := db.AircraftRepository()
	populated, err := repo.IsTablePopulated()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check aircraft table: %w", err)
	}

	switch {
	case populated:
		slog.Info("Aircraft registry is already populated", "db_path", cfg.DBPath)
	case len(cfg.CSVPaths) == 0:
		slog.Warn("Aircraft registry is empty and no CSV files are configured", "db_path", cfg.DBPath)
	default:
		slog.Info("Aircraft registry is empty, loading from CSV files", "csv_paths", cfg.CSVPaths)
		if err := repo.LoadFromMultipleCSV(cfg.CSVPaths, cfg.BatchSize); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to load aircraft from CSV: %w", err)
		}
		slog.Info("Successfully loaded aircraft registry from CSV")
	}

	return db, nil
}

func (d *Daemon) Start() error {
	slog.Info("Starting daemon")

	d.scheduler.Start()

	// Wait for context cancellation
	go func() {
		<-d.ctx.Done()
		close(d.done)
	}()

	slog.Info("Daemon started successfully")
	return nil
}

// Stop gracefully stops the daemon
func (d *Daemon) Stop() error {
	slog.Info("Stopping daemon")
	d.cancel()
	<-d.done

	d.scheduler.Stop()
	if skipped := d.scheduler.Skipped(); skipped > 0 {
		slog.Warn("Detection cycles overran the poll interval", "skipped_ticks", skipped)
	}

	if err := d.source.Close(); err != nil {
		slog.Error("Error closing aircraft feed", "error", err)
	}

	if err := d.notifier.Close(); err != nil {
		slog.Error("Error closing notifier", "error", err)
	}

	if d.database != nil {
		if err := d.database.Close(); err != nil {
			slog.Error("Error closing database", "error", err)
		}
	}

	slog.Info("Daemon stopped")
	return nil
}
