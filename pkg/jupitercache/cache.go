// Package jupitercache stores scraped entities as JSON files below a root
// directory. Entries expire after a TTL and a cleanup pass keeps the total
// size below a budget by evicting the least recently accessed entries.
//
// The cache is an optimization only: IO failures are logged and turn into
// misses or dropped writes.
package jupitercache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lukasmoellerch/jupiter-go/pkg/jupiterscrape"
)

const (
	lecturesDir = "lectures"
	coursesDir  = "courses"
	searchesDir = "searches"
	unitsFile   = "units.json"
)

var searchNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://uspdigital.usp.br/jupiterweb/search"))

// Cache is safe for concurrent use. Writes, metadata updates, cleanup and
// clear are serialized by a single mutex.
type Cache struct {
	config Config

	mu   sync.Mutex
	meta metadata
	// dirty is set when access statistics changed since the last save.
	dirty bool
	// saves counts metadata writes.
	saves int
}

type CleanupStats struct {
	Expired    int
	Evicted    int
	FreedBytes int64
}

type Stats struct {
	Entries     int
	TotalSize   int64
	ByType      map[EntryType]int
	LastCleanup time.Time
}

// Open creates the cache layout below config.Dir and loads the metadata
// index. A cleanup runs if the last one is older than the cleanup interval.
func Open(config Config) (*Cache, error) {
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("cache: config validation failed: %w", err)
	}

	c := &Cache{config: config}
	if err := c.makeLayout(); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	meta, err := loadMetadata(config.Dir)
	if err != nil {
		config.Logger.WithField("err", err).Warn("discarding unreadable cache metadata")
	}
	c.meta = meta

	if c.config.Clock.Now().Sub(c.meta.LastCleanup) >= c.config.CleanupInterval {
		stats := c.Cleanup()
		config.Logger.WithFields(logrus.Fields{
			"expired": stats.Expired,
			"evicted": stats.Evicted,
			"freed":   stats.FreedBytes,
		}).Debug("startup cleanup finished")
	}
	return c, nil
}

func (c *Cache) makeLayout() error {
	for _, dir := range []string{lecturesDir, coursesDir, searchesDir} {
		if err := os.MkdirAll(filepath.Join(c.config.Dir, dir), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// saveMetadata must be called with mu held.
func (c *Cache) saveMetadata() {
	data, err := json.Marshal(c.meta)
	if err == nil {
		err = writeFileAtomic(filepath.Join(c.config.Dir, metadataFile), data)
	}
	if err != nil {
		c.config.Logger.WithField("err", err).Warn("failed to write cache metadata")
		return
	}
	c.dirty = false
	c.saves++
}

func (c *Cache) put(kind EntryType, key, rel string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		c.config.Logger.WithFields(logrus.Fields{"key": key, "err": err}).Warn("dropping cache write")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeFileAtomic(filepath.Join(c.config.Dir, rel), data); err != nil {
		c.config.Logger.WithFields(logrus.Fields{"key": key, "err": err}).Warn("dropping cache write")
		return
	}

	now := c.config.Clock.Now()
	entry := EntryMetadata{
		Key:        key,
		Type:       kind,
		CreatedAt:  now,
		Size:       int64(len(data)),
		LastAccess: now,
	}
	if prev, ok := c.meta.Entries[rel]; ok {
		entry.AccessCount = prev.AccessCount
	}
	c.meta.Entries[rel] = entry
	c.saveMetadata()
}

func (c *Cache) fresh(entry EntryMetadata, now time.Time) bool {
	return now.Sub(entry.CreatedAt) <= c.config.TTL
}

// get decodes the entry at rel into value and records the access. Stale and
// missing entries are misses.
func (c *Cache) get(rel string, value interface{}) bool {
	if !c.read(rel, value) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch(rel)
	c.saveMetadata()
	return true
}

// read decodes the entry at rel into value without recording the access.
func (c *Cache) read(rel string, value interface{}) bool {
	c.mu.Lock()
	entry, ok := c.meta.Entries[rel]
	c.mu.Unlock()
	if !ok || !c.fresh(entry, c.config.Clock.Now()) {
		return false
	}

	data, err := os.ReadFile(filepath.Join(c.config.Dir, rel))
	if err != nil {
		c.config.Logger.WithFields(logrus.Fields{"key": entry.Key, "err": err}).Warn("cache read failed")
		return false
	}
	if err := json.Unmarshal(data, value); err != nil {
		c.config.Logger.WithFields(logrus.Fields{"key": entry.Key, "err": err}).Warn("cache entry is corrupt")
		return false
	}
	return true
}

// touch updates the access statistics of rel in memory. It must be called
// with mu held.
func (c *Cache) touch(rel string) {
	entry, ok := c.meta.Entries[rel]
	if !ok {
		return
	}
	entry.AccessCount++
	entry.LastAccess = c.config.Clock.Now()
	c.meta.Entries[rel] = entry
	c.dirty = true
}

// fileName maps a natural key to a file name.
func fileName(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
}

func lecturePath(code string) string {
	return filepath.Join(lecturesDir, fileName(strings.ToUpper(code))+".json")
}

func coursesPath(unitCode int) string {
	return filepath.Join(coursesDir, strconv.Itoa(unitCode)+".json")
}

func curriculumPath(code string) string {
	return "curriculum-" + fileName(code) + ".json"
}

// SearchKey identifies a search by its query and unit scope, independent of
// query case and unit order.
func SearchKey(query string, units []string) string {
	scope := append([]string(nil), units...)
	sort.Strings(scope)
	name := strings.ToUpper(strings.TrimSpace(query)) + "\x00" + strings.Join(scope, "\x00")
	return uuid.NewSHA1(searchNamespace, []byte(name)).String()
}

func searchPath(key string) string {
	return filepath.Join(searchesDir, key+".json")
}

func (c *Cache) PutLecture(lecture jupiterscrape.Lecture) {
	c.put(TypeLecture, lecture.Code, lecturePath(lecture.Code), lecture)
}

func (c *Cache) Lecture(code string) (jupiterscrape.Lecture, bool) {
	var lecture jupiterscrape.Lecture
	ok := c.get(lecturePath(code), &lecture)
	return lecture, ok
}

func (c *Cache) PutCourses(unitCode int, courses []jupiterscrape.Course) {
	c.put(TypeCourses, strconv.Itoa(unitCode), coursesPath(unitCode), courses)
}

func (c *Cache) Courses(unitCode int) ([]jupiterscrape.Course, bool) {
	var courses []jupiterscrape.Course
	ok := c.get(coursesPath(unitCode), &courses)
	return courses, ok
}

func (c *Cache) PutSearch(query string, units []string, lectures []jupiterscrape.Lecture) {
	key := SearchKey(query, units)
	c.put(TypeSearch, key, searchPath(key), lectures)
}

func (c *Cache) Search(query string, units []string) ([]jupiterscrape.Lecture, bool) {
	var lectures []jupiterscrape.Lecture
	ok := c.get(searchPath(SearchKey(query, units)), &lectures)
	return lectures, ok
}

func (c *Cache) PutUnits(units jupiterscrape.UnitTable) {
	c.put(TypeUnits, "units", unitsFile, units.Units())
}

func (c *Cache) Units() (jupiterscrape.UnitTable, bool) {
	var units []jupiterscrape.Unit
	if !c.get(unitsFile, &units) {
		return jupiterscrape.UnitTable{}, false
	}
	return jupiterscrape.NewUnitTable(units), true
}

func (c *Cache) PutCurriculum(course jupiterscrape.Course) {
	c.put(TypeCurriculum, course.Code, curriculumPath(course.Code), course)
}

func (c *Cache) Curriculum(code string) (jupiterscrape.Course, bool) {
	var course jupiterscrape.Course
	ok := c.get(curriculumPath(code), &course)
	return course, ok
}

// Lectures returns every fresh cached lecture ordered by code. The accesses
// are recorded and the metadata is written once at the end.
func (c *Cache) Lectures(ctx context.Context) ([]jupiterscrape.Lecture, error) {
	now := c.config.Clock.Now()
	c.mu.Lock()
	paths := make([]string, 0)
	for rel, entry := range c.meta.Entries {
		if entry.Type == TypeLecture && c.fresh(entry, now) {
			paths = append(paths, rel)
		}
	}
	c.mu.Unlock()
	sort.Strings(paths)

	lectures := make([]jupiterscrape.Lecture, 0, len(paths))
	read := make([]string, 0, len(paths))
	defer func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, rel := range read {
			c.touch(rel)
		}
		if c.dirty {
			c.saveMetadata()
		}
	}()

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var lecture jupiterscrape.Lecture
		if c.read(rel, &lecture) {
			lectures = append(lectures, lecture)
			read = append(read, rel)
		}
	}
	return lectures, nil
}

// Cleanup removes expired entries and, if the total size exceeds the
// cleanup threshold, evicts entries by ascending last access until the
// total is at most the maximum size.
func (c *Cache) Cleanup() CleanupStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats CleanupStats
	now := c.config.Clock.Now()
	for rel, entry := range c.meta.Entries {
		if c.fresh(entry, now) {
			continue
		}
		c.remove(rel)
		stats.Expired++
		stats.FreedBytes += entry.Size
	}

	total := c.meta.totalSize()
	if total > c.config.CleanupThreshold {
		paths := make([]string, 0, len(c.meta.Entries))
		for rel := range c.meta.Entries {
			paths = append(paths, rel)
		}
		sort.Slice(paths, func(i, j int) bool {
			a, b := c.meta.Entries[paths[i]], c.meta.Entries[paths[j]]
			if !a.LastAccess.Equal(b.LastAccess) {
				return a.LastAccess.Before(b.LastAccess)
			}
			return paths[i] < paths[j]
		})
		for _, rel := range paths {
			if total <= c.config.MaxSize {
				break
			}
			size := c.meta.Entries[rel].Size
			c.remove(rel)
			total -= size
			stats.Evicted++
			stats.FreedBytes += size
		}
	}

	c.meta.LastCleanup = now
	c.saveMetadata()
	return stats
}

// remove must be called with mu held.
func (c *Cache) remove(rel string) {
	err := os.Remove(filepath.Join(c.config.Dir, rel))
	if err != nil && !os.IsNotExist(err) {
		c.config.Logger.WithFields(logrus.Fields{"file": rel, "err": err}).Warn("failed to remove cache entry")
	}
	delete(c.meta.Entries, rel)
}

// ClearAll deletes the whole cache directory and starts over empty.
func (c *Cache) ClearAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(c.config.Dir); err != nil {
		return fmt.Errorf("cache: clearing %s: %w", c.config.Dir, err)
	}
	if err := c.makeLayout(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	c.meta = newMetadata()
	c.meta.LastCleanup = c.config.Clock.Now()
	c.saveMetadata()
	return nil
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		Entries:     len(c.meta.Entries),
		TotalSize:   c.meta.totalSize(),
		ByType:      make(map[EntryType]int),
		LastCleanup: c.meta.LastCleanup,
	}
	for _, entry := range c.meta.Entries {
		stats.ByType[entry.Type]++
	}
	return stats
}

// LectureEntry returns the metadata of a cached lecture.
func (c *Cache) LectureEntry(code string) (EntryMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.meta.Entries[lecturePath(code)]
	return entry, ok
}
