package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/2beens/trainload/internal/config"
	"github.com/2beens/trainload/internal/db"
	"github.com/2beens/trainload/internal/gymstats/repo"
	"github.com/2beens/trainload/internal/gymstats/training"
	"github.com/2beens/trainload/internal/logging"
	"github.com/2beens/trainload/pkg"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	exitOK           = 0
	exitFailure      = 1
	exitInvalidInput = 2
	exitNotFound     = 3
	exitConflict     = 4
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("trainload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	env := fs.String("env", "development", "environment [prod | production | dev | development]")
	configPath := fs.String("config", "", "path for the TOML config file (defaults are used when empty)")
	storeKind := fs.String("store", storePostgres, "history store [postgres | memory]")
	seedPath := fs.String("seed", "", "JSON fixture loaded into the store before the command runs")
	metricsFile := fs.String("metrics-file", "", "write prometheus metrics to this textfile when done")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: trainload [flags] <command> [command flags]\n\nflags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\ncommands:\n")
		for _, name := range commandNames() {
			fmt.Fprintf(stderr, "  %-20s %s\n", name, commands[name].usage)
		}
	}
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitInvalidInput
	}

	cmdName := fs.Arg(0)
	cmd, ok := commands[cmdName]
	if !ok {
		fmt.Fprintf(stderr, "unknown command: %s\n", cmdName)
		fs.Usage()
		return exitInvalidInput
	}

	cfg, err := loadConfig(*env, *configPath)
	if err != nil {
		fmt.Fprintf(stderr, "config: %s\n", err)
		return exitInvalidInput
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		SentryServerName: "trainload-cli",
		Console:          stderr,
	})
	log.Debugf("running [%s] in [%s] environment, store [%s]", cmdName, cfg.Environment, *storeKind)

	if cmd.run == nil {
		if err := migrate(cfg); err != nil {
			return fail(stderr, err)
		}
		return writeJSON(stdout, stderr, map[string]string{"status": "migrated"})
	}

	a, err := newApp(ctx, appParams{
		Config:           cfg,
		StoreKind:        *storeKind,
		RedisPassword:    os.Getenv("TRAINLOAD_REDIS_PASS"),
		HoneycombEnabled: os.Getenv("HONEYCOMB_ENABLED") == "true",
	})
	if err != nil {
		return fail(stderr, err)
	}
	defer a.close()

	if *seedPath != "" {
		if err := a.seed(ctx, *seedPath); err != nil {
			return fail(stderr, fmt.Errorf("seed: %w", err))
		}
	}

	out, cmdErr := cmd.run(ctx, a, fs.Args()[1:])

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, a.registry); err != nil {
			log.Errorf("write metrics textfile: %s", err)
		}
	}

	if cmdErr != nil {
		return fail(stderr, cmdErr)
	}
	return writeJSON(stdout, stderr, out)
}

func loadConfig(env, path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		cfg.Environment = env
		return cfg, nil
	}
	exists, err := pkg.PathExists(path, false)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	return config.Load(env, path)
}

func migrate(cfg *config.Config) error {
	params := db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	}
	return repo.RunMigrations(params.ConnString())
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(stderr, "encode output: %s\n", err)
		return exitFailure
	}
	return exitOK
}

func fail(stderr io.Writer, err error) int {
	code := exitCode(err)
	if code == exitFailure {
		log.Errorf("command failed: %s", err)
	}
	fmt.Fprintf(stderr, "error: %s\n", err)
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, training.ErrInvalidInput):
		return exitInvalidInput
	case errors.Is(err, training.ErrNotFound):
		return exitNotFound
	case errors.Is(err, training.ErrConflict):
		return exitConflict
	default:
		return exitFailure
	}
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
