package jupiterrepo

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Preferences provides the units a full sync is scoped to. An empty set
// selects every unit.
type Preferences interface {
	SelectedUnits() map[string]struct{}
}

// UnitSet is a static Preferences.
type UnitSet map[string]struct{}

func NewUnitSet(names ...string) UnitSet {
	set := make(UnitSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func (s UnitSet) SelectedUnits() map[string]struct{} { return s }

type EventKind int

const (
	Progress EventKind = iota
	Done
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Progress:
		return "progress"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event reports the state of a running sync. Percentage is in [0, 1].
type Event struct {
	Kind       EventKind
	Percentage float64
	Message    string
	Err        error
}

type SyncerConfig struct {
	Repository  *Repository
	Preferences Preferences

	// IncludeLectures also refreshes every lecture referenced by the
	// synchronized curricula.
	IncludeLectures bool

	// The logger to use. If not defined an output-discarding logger will
	// be used instead.
	Logger *logrus.Entry
}

func (config *SyncerConfig) validate() error {
	var err error

	if config.Repository == nil {
		err = multierror.Append(err, fmt.Errorf("repository not provided"))
	}

	if config.Preferences == nil {
		config.Preferences = UnitSet{}
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

// Syncer refreshes the stored units, courses and optionally lectures.
type Syncer struct {
	config SyncerConfig
}

func NewSyncer(config SyncerConfig) (*Syncer, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("syncer: config validation failed: %w", err)
	}
	return &Syncer{config: config}, nil
}

// Sync starts a full synchronization. The returned channel carries progress
// events followed by exactly one Done or Failed event and is then closed.
// Callers must drain the channel.
func (s *Syncer) Sync(ctx context.Context) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		s.run(ctx, events)
	}()
	return events
}

func (s *Syncer) run(ctx context.Context, events chan<- Event) {
	send := func(ev Event) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(message string, err error) {
		s.config.Logger.WithField("err", err).Error(message)
		// Deliver the final event even when ctx is done.
		events <- Event{Kind: Failed, Message: message, Err: err}
	}

	if !send(Event{Kind: Progress, Message: "fetching units"}) {
		fail("sync cancelled", ctx.Err())
		return
	}
	units, err := s.config.Repository.RefreshUnits(ctx)
	if err != nil {
		fail("failed to fetch units", err)
		return
	}

	scope := units.Select(s.config.Preferences.SelectedUnits())
	if scope.Len() == 0 {
		fail("none of the selected units exist", fmt.Errorf("sync: %w", ErrNotFound))
		return
	}

	// Courses take the whole bar unless lectures follow, then half of it.
	share := 1.0
	if s.config.IncludeLectures {
		share = 0.5
	}

	lectureCodes := make(map[string]struct{})
	courseCount, failedUnits := 0, 0
	var unitErrs *multierror.Error
	for i, unit := range scope.Units() {
		if ctx.Err() != nil {
			fail("sync cancelled", ctx.Err())
			return
		}
		courses, err := s.config.Repository.RefreshCoursesForUnit(ctx, unit.Code)
		if err != nil {
			failedUnits++
			unitErrs = multierror.Append(unitErrs, err)
			s.config.Logger.WithFields(logrus.Fields{
				"unit": unit.Code,
				"err":  err,
			}).Warn("skipping unit")
		}
		courseCount += len(courses)
		for _, course := range courses {
			for _, lectures := range course.Periods {
				for _, info := range lectures {
					lectureCodes[info.Code] = struct{}{}
				}
			}
		}
		if !send(Event{
			Kind:       Progress,
			Percentage: share * float64(i+1) / float64(scope.Len()),
			Message:    fmt.Sprintf("synchronized courses of %s", unit.Name),
		}) {
			fail("sync cancelled", ctx.Err())
			return
		}
	}

	if failedUnits == scope.Len() {
		fail("no unit could be synchronized", fmt.Errorf("sync: %w", unitErrs.ErrorOrNil()))
		return
	}

	lectureCount := 0
	if s.config.IncludeLectures {
		codes := make([]string, 0, len(lectureCodes))
		for code := range lectureCodes {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for i, code := range codes {
			if ctx.Err() != nil {
				fail("sync cancelled", ctx.Err())
				return
			}
			if _, err := s.config.Repository.RefreshLecture(ctx, code); err != nil {
				s.config.Logger.WithFields(logrus.Fields{
					"lecture": code,
					"err":     err,
				}).Warn("skipping lecture")
			} else {
				lectureCount++
			}
			if !send(Event{
				Kind:       Progress,
				Percentage: share + share*float64(i+1)/float64(len(codes)),
				Message:    fmt.Sprintf("synchronized lecture %s", code),
			}) {
				fail("sync cancelled", ctx.Err())
				return
			}
		}
	}

	message := fmt.Sprintf("synchronized %d units, %d courses, %d lectures", scope.Len()-failedUnits, courseCount, lectureCount)
	s.config.Logger.WithFields(logrus.Fields{
		"units":        scope.Len() - failedUnits,
		"failed_units": failedUnits,
		"courses":      courseCount,
		"lectures":     lectureCount,
	}).Info("sync finished")
	events <- Event{Kind: Done, Percentage: 1, Message: message}
}

var _ Preferences = UnitSet{}
