// Package jupiterindex exports lectures into a Meilisearch index.
package jupiterindex

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/meilisearch/meilisearch-go"
	"github.com/sirupsen/logrus"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

//go:generate mockgen -destination=mocks/mock_index.go -package=mock_jupiterindex . Index

const DefaultBatchSize = 128

// Index is the subset of a search index the exporter needs.
type Index interface {
	// Reset removes every document and applies the attribute settings.
	Reset(settings Settings) error
	AddDocuments(docs []LectureDocument) (int64, error)
	WaitForTask(taskUID int64) error
}

type Settings struct {
	Searchable   []string
	Filterable   []string
	RankingRules []string
}

func DefaultSettings() Settings {
	return Settings{
		Searchable: []string{"code", "name", "teachers", "department", "unit", "summary", "objectives"},
		Filterable: []string{"campus", "unit", "days", "classroomTypes", "credits", "available"},
		RankingRules: []string{
			"words",
			"attribute",
			"typo",
			"proximity",
			"sort",
			"exactness",
		},
	}
}

// LectureDocument is the indexed form of a lecture.
type LectureDocument struct {
	ID             string   `json:"id"`
	Code           string   `json:"code"`
	Name           string   `json:"name"`
	Unit           string   `json:"unit,omitempty"`
	Department     string   `json:"department,omitempty"`
	Campus         string   `json:"campus,omitempty"`
	Objectives     string   `json:"objectives,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	Credits        int      `json:"credits"`
	Teachers       []string `json:"teachers"`
	Days           []string `json:"days"`
	ClassroomTypes []string `json:"classroomTypes"`
	Available      bool     `json:"available"`
}

func NewLectureDocument(lecture jupiterscrape.Lecture, now time.Time) LectureDocument {
	doc := LectureDocument{
		ID:         lecture.Code,
		Code:       lecture.Code,
		Name:       lecture.Name,
		Unit:       lecture.Unit,
		Department: lecture.Department,
		Campus:     lecture.Campus,
		Objectives: lecture.Objectives,
		Summary:    lecture.Summary,
		Credits:    lecture.TotalCredits(),
	}

	teachers := make(map[string]struct{})
	days := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, c := range lecture.Classrooms {
		for _, t := range c.Teachers {
			teachers[t] = struct{}{}
		}
		for _, s := range c.Schedules {
			if s.Day != "" {
				days[s.Day] = struct{}{}
			}
		}
		if c.Type != jupiterscrape.ClassroomStandard {
			types[string(c.Type)] = struct{}{}
		}
		if c.IsAvailable(now) {
			doc.Available = true
		}
	}
	doc.Teachers = sortedKeys(teachers)
	doc.Days = sortedKeys(days)
	doc.ClassroomTypes = sortedKeys(types)
	return doc
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MeiliIndex is an Index backed by a Meilisearch index.
type MeiliIndex struct {
	index *meilisearch.Index
}

func NewMeiliIndex(client *meilisearch.Client, name string) *MeiliIndex {
	return &MeiliIndex{index: client.Index(name)}
}

func (m *MeiliIndex) Reset(settings Settings) error {
	// Deleting fails when the index does not exist yet, it is created by
	// the first settings update.
	if task, err := m.index.DeleteAllDocuments(); err == nil {
		if err := m.WaitForTask(task.TaskUID); err != nil {
			return err
		}
	}

	task, err := m.index.UpdateSearchableAttributes(&settings.Searchable)
	if err != nil {
		return fmt.Errorf("updating searchable attributes: %w", err)
	}
	if err := m.WaitForTask(task.TaskUID); err != nil {
		return err
	}

	task, err = m.index.UpdateFilterableAttributes(&settings.Filterable)
	if err != nil {
		return fmt.Errorf("updating filterable attributes: %w", err)
	}
	if err := m.WaitForTask(task.TaskUID); err != nil {
		return err
	}

	task, err = m.index.UpdateRankingRules(&settings.RankingRules)
	if err != nil {
		return fmt.Errorf("updating ranking rules: %w", err)
	}
	return m.WaitForTask(task.TaskUID)
}

func (m *MeiliIndex) AddDocuments(docs []LectureDocument) (int64, error) {
	task, err := m.index.AddDocuments(docs, "id")
	if err != nil {
		return 0, err
	}
	return task.TaskUID, nil
}

func (m *MeiliIndex) WaitForTask(taskUID int64) error {
	task, err := m.index.WaitForTask(taskUID)
	if err != nil {
		return fmt.Errorf("waiting for task %d: %w", taskUID, err)
	}
	if task.Status == meilisearch.TaskStatusFailed {
		return fmt.Errorf("task %d failed", taskUID)
	}
	return nil
}

type ExporterConfig struct {
	Index     Index
	Settings  Settings
	BatchSize int
	Logger    *logrus.Entry
}

type Exporter struct {
	config ExporterConfig
}

func (config *ExporterConfig) validate() error {
	var err error

	if config.Index == nil {
		err = multierror.Append(err, fmt.Errorf("index not provided"))
	}

	if config.BatchSize == 0 {
		config.BatchSize = DefaultBatchSize
	} else if config.BatchSize < 0 {
		err = multierror.Append(err, fmt.Errorf("invalid value for batch size, must be > 0"))
	}

	if config.Settings.Searchable == nil {
		config.Settings = DefaultSettings()
	}

	if config.Logger == nil {
		config.Logger = logrus.NewEntry(&logrus.Logger{Out: io.Discard})
	}

	return err
}

func NewExporter(config ExporterConfig) (*Exporter, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("exporter: config validation failed: %w", err)
	}
	return &Exporter{config: config}, nil
}

// Export replaces the index contents with lectures, sent in batches. It
// returns the number of documents added.
func (e *Exporter) Export(ctx context.Context, lectures []jupiterscrape.Lecture, now time.Time) (int, error) {
	if err := e.config.Index.Reset(e.config.Settings); err != nil {
		return 0, fmt.Errorf("resetting index: %w", err)
	}

	tasks := make([]int64, 0)
	batch := make([]LectureDocument, 0, e.config.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		uid, err := e.config.Index.AddDocuments(batch)
		if err != nil {
			return fmt.Errorf("adding documents: %w", err)
		}
		e.config.Logger.WithFields(logrus.Fields{"task": uid, "documents": len(batch)}).Debug("queued batch")
		tasks = append(tasks, uid)
		batch = make([]LectureDocument, 0, e.config.BatchSize)
		return nil
	}

	for _, lecture := range lectures {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		batch = append(batch, NewLectureDocument(lecture, now))
		if len(batch) >= e.config.BatchSize {
			if err := flush(); err != nil {
				return 0, err
			}
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}

	for _, uid := range tasks {
		if err := e.config.Index.WaitForTask(uid); err != nil {
			return 0, err
		}
	}
	e.config.Logger.WithField("documents", len(lectures)).Info("export finished")
	return len(lectures), nil
}
