package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupitercache"
	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterrepo"
)

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "refresh units, courses and optionally lectures into the cache",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{Name: "units", Usage: "unit names to synchronize, overrides sync.units"},
			&cli.BoolFlag{Name: "lectures", Usage: "also refresh every lecture of the synchronized curricula"},
			&cli.DurationFlag{Name: "every", Usage: "keep running and repeat the sync at this interval"},
		},
		Action: func(appCtx *cli.Context) error {
			cfg, err := loadConfig(appCtx)
			if err != nil {
				return err
			}
			if appCtx.IsSet("units") {
				cfg.Sync.Units = appCtx.StringSlice("units")
			}
			if appCtx.IsSet("lectures") {
				cfg.Sync.IncludeLectures = appCtx.Bool("lectures")
			}

			log, err := cfg.Logging.Logger(logrus.Fields{"app": appName})
			if err != nil {
				return err
			}
			rt, err := cfg.Build(nil, log)
			if err != nil {
				return err
			}
			syncer, err := rt.Syncer()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(appCtx.Context)
			defer cancel()

			if !appCtx.IsSet("every") {
				return runSync(ctx, syncer, appCtx.App.ErrWriter)
			}
			return schedule(ctx, rt.Cache, syncer, appCtx.Duration("every"), cfg.Cache.CleanupInterval.Duration, log)
		},
	}
}

// runSync drives one synchronization and prints its progress to w.
func runSync(ctx context.Context, syncer *jupiterrepo.Syncer, w io.Writer) error {
	for ev := range syncer.Sync(ctx) {
		switch ev.Kind {
		case jupiterrepo.Progress:
			fmt.Fprintf(w, "[%3.0f%%] %s\n", ev.Percentage*100, ev.Message)
		case jupiterrepo.Done:
			fmt.Fprintf(w, "[100%%] %s\n", ev.Message)
		case jupiterrepo.Failed:
			return fmt.Errorf("%s: %w", ev.Message, ev.Err)
		}
	}
	return nil
}

// schedule repeats the sync every interval and cleans the cache every
// cleanup interval until ctx is done.
func schedule(ctx context.Context, cache *jupitercache.Cache, syncer *jupiterrepo.Syncer, every, cleanup time.Duration, log *logrus.Entry) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLogger(cronLogger{log.WithField("component", "scheduler")}))
	if err != nil {
		return fmt.Errorf("failed to init scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if err := runSync(ctx, syncer, io.Discard); err != nil {
				log.WithField("err", err).Error("scheduled sync failed")
				return
			}
			log.Info("scheduled sync finished")
		}),
		gocron.WithName("sync"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cleanup),
		gocron.NewTask(func() {
			stats := cache.Cleanup()
			log.WithFields(logrus.Fields{
				"expired": stats.Expired,
				"evicted": stats.Evicted,
				"freed":   stats.FreedBytes,
			}).Info("cache cleanup finished")
		}),
		gocron.WithName("cache cleanup"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule cache cleanup: %w", err)
	}

	scheduler.Start()
	log.WithField("every", every).Info("sync scheduled")
	<-ctx.Done()
	return scheduler.Shutdown()
}

// cronLogger routes scheduler logs through logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) fields(args []interface{}) *logrus.Entry {
	entry := l.entry
	for i := 0; i+1 < len(args); i += 2 {
		entry = entry.WithField(fmt.Sprint(args[i]), args[i+1])
	}
	return entry
}

func (l cronLogger) Debug(msg string, args ...interface{}) { l.fields(args).Debug(msg) }
func (l cronLogger) Error(msg string, args ...interface{}) { l.fields(args).Error(msg) }
func (l cronLogger) Info(msg string, args ...interface{}) { l.fields(args).Info(msg) }
func (l cronLogger) Warn(msg string, args ...interface{}) { l.fields(args).Warn(msg) }
