package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterconfig"
)

var (
	appName = "jupiter"
	appSHA  = "latest-app-git-sha" // Populated by the compiler at the linking stage.
	logger  *logrus.Entry
)

func main() {
	rootLogger := logrus.New()
	rootLogger.SetOutput(os.Stderr)
	logger = rootLogger.WithField("app", appName)

	if err := configureApp().Run(os.Args); err != nil {
		logger.WithField("err", err).Error("shutting down due to an error")
		_ = os.Stderr.Sync()

		os.Exit(1)
	}
}

func configureApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "browse and cache the JupiterWeb course catalogue"
	app.Version = appSHA
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"JUPITER_CONFIG"},
			Usage:   "path to the YAML configuration file",
		},
		&cli.StringFlag{
			Name:    "log-level",
			EnvVars: []string{"JUPITER_LOG_LEVEL"},
			Usage:   "override the configured log level",
		},
		&cli.StringFlag{
			Name:    "cache-dir",
			EnvVars: []string{"JUPITER_CACHE_DIR"},
			Usage:   "override the configured cache directory",
		},
	}
	app.Commands = []*cli.Command{
		unitsCommand(),
		coursesCommand(),
		curriculumCommand(),
		lectureCommand(),
		searchCommand(),
		syncCommand(),
		cacheCommand(),
		loginCommand(),
	}
	return app
}

// loadConfig reads the configuration file and applies the global flag
// overrides.
func loadConfig(appCtx *cli.Context) (jupiterconfig.Config, error) {
	cfg, err := jupiterconfig.Load(appCtx.String("config"))
	if err != nil {
		return jupiterconfig.Config{}, err
	}
	if level := appCtx.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if dir := appCtx.String("cache-dir"); dir != "" {
		cfg.Cache.Dir = dir
	}
	return cfg, cfg.Validate()
}

func setup(appCtx *cli.Context) (*jupiterconfig.Runtime, error) {
	cfg, err := loadConfig(appCtx)
	if err != nil {
		return nil, err
	}
	log, err := cfg.Logging.Logger(logrus.Fields{"app": appName})
	if err != nil {
		return nil, err
	}
	logger = log
	return cfg.Build(clock.WallClock, log)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
