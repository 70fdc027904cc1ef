package jupitercache

import (
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTTL              = 24 * time.Hour
	DefaultCleanupInterval  = 6 * time.Hour
	DefaultCleanupThreshold = 80 << 20
	DefaultMaxSize          = 100 << 20
)

type Config struct {
	// Dir is the cache root directory. It is created if missing.
	Dir string

	// A clock instance for entry timestamps and expiry. If not specified,
	// the default wall-clock will be used instead.
	Clock clock.Clock

	// TTL is the age after which an entry counts as a miss.
	TTL time.Duration

	// CleanupInterval is the minimum time between two cleanups run by Open.
	CleanupInterval time.Duration

	// Once the total size exceeds CleanupThreshold, cleanup evicts the least
	// recently accessed entries until the total is at most MaxSize.
	CleanupThreshold int64
	MaxSize          int64

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *Config) validate() error {
	var err error

	if config.Dir == "" {
		err = multierror.Append(err, fmt.Errorf("cache directory not provided"))
	}

	if config.Clock == nil {
		config.Clock = clock.WallClock
	}

	if config.TTL == 0 {
		config.TTL = DefaultTTL
	} else if config.TTL < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for TTL, must be > 0"))
	}

	if config.CleanupInterval == 0 {
		config.CleanupInterval = DefaultCleanupInterval
	} else if config.CleanupInterval < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for cleanup interval, must be > 0"))
	}

	if config.CleanupThreshold == 0 {
		config.CleanupThreshold = DefaultCleanupThreshold
	}
	if config.MaxSize == 0 {
		config.MaxSize = DefaultMaxSize
	}
	if config.CleanupThreshold < 0 || config.MaxSize < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for cache size limits, must be > 0"))
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}
