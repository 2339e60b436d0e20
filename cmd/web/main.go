package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/myrjola/lifelog/internal/envstruct"
	"github.com/myrjola/lifelog/internal/errors"
	"github.com/myrjola/lifelog/internal/logging"
	"github.com/myrjola/lifelog/internal/records"
	"github.com/myrjola/lifelog/internal/sqlite"
	"github.com/myrjola/lifelog/internal/workout"
	"github.com/yuin/goldmark"
)

type application struct {
	logger         *slog.Logger
	templateFS     fs.FS
	staticPath     string
	markdown       goldmark.Markdown
	requestTimeout time.Duration
	db             *sqlite.Database
	store          *records.Store
	workoutService *workout.Service
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"LIFELOG_ADDR" envDefault:"localhost:8081"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"LIFELOG_SQLITE_URL" envDefault:"./lifelog.sqlite3"`
	// WorkoutConfig is the path to a YAML or JSON workout configuration. Empty uses the built-in program.
	WorkoutConfig string `env:"LIFELOG_WORKOUT_CONFIG" envDefault:""`
	// TemplatePath is the path to the directory containing the HTML templates.
	TemplatePath string `env:"LIFELOG_TEMPLATE_PATH" envDefault:""`
	// StaticPath is the path to the directory of static assets such as stylesheets.
	StaticPath string `env:"LIFELOG_STATIC_PATH" envDefault:""`
	// RequestTimeout bounds how long a request may take including writing the response.
	RequestTimeout time.Duration `env:"LIFELOG_REQUEST_TIMEOUT" envDefault:"2s"`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	var htmlTemplatePath string
	if htmlTemplatePath, err = resolveAndVerifyTemplatePath(cfg.TemplatePath); err != nil {
		return errors.Wrap(err, "resolve template path")
	}

	// Configuration problems abort startup before anything is served.
	var workoutConfig workout.Config
	if workoutConfig, err = workout.LoadConfig(cfg.WorkoutConfig); err != nil {
		return errors.Wrap(err, "load workout config", slog.String("path", cfg.WorkoutConfig))
	}
	var catalog *workout.Catalog
	if catalog, err = workout.NewCatalog(workoutConfig); err != nil {
		return errors.Wrap(err, "validate workout config", slog.String("path", cfg.WorkoutConfig))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "loaded workout config", slog.String("catalog", catalog.String()))

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "failed to close db",
				errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	store := records.NewStore(db, logger)
	app := application{
		logger:         logger,
		templateFS:     os.DirFS(htmlTemplatePath),
		staticPath:     cfg.StaticPath,
		markdown:       newMarkdown(),
		requestTimeout: cfg.RequestTimeout,
		db:             db,
		store:          store,
		workoutService: workout.NewService(catalog, store, logger),
	}

	handler, err := app.routes()
	if err != nil {
		return errors.Wrap(err, "routes")
	}
	if err = app.configureAndStartServer(ctx, cfg.Addr, handler); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

func main() {
	ctx := context.Background()
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug, nil)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
