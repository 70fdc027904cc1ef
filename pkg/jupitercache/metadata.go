package jupitercache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

type EntryType string

const (
	TypeLecture    EntryType = "lecture"
	TypeCourses    EntryType = "courses"
	TypeSearch     EntryType = "search"
	TypeUnits      EntryType = "units"
	TypeCurriculum EntryType = "curriculum"
)

const metadataFile = "metadata.json"

// EntryMetadata describes one cached file.
type EntryMetadata struct {
	Key         string    `json:"key"`
	Type        EntryType `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
	Size        int64     `json:"size"`
	AccessCount int       `json:"access_count"`
	LastAccess  time.Time `json:"last_access"`
}

// metadata is the index file. Entries are keyed by the file path relative
// to the cache root.
type metadata struct {
	Entries     map[string]EntryMetadata `json:"entries"`
	LastCleanup time.Time                `json:"last_cleanup"`
}

func newMetadata() metadata {
	return metadata{Entries: make(map[string]EntryMetadata)}
}

func loadMetadata(dir string) (metadata, error) {
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return newMetadata(), nil
	}
	if err != nil {
		return newMetadata(), err
	}

	m := newMetadata()
	if err := json.Unmarshal(data, &m); err != nil {
		return newMetadata(), err
	}
	if m.Entries == nil {
		m.Entries = make(map[string]EntryMetadata)
	}
	return m, nil
}

func (m metadata) totalSize() int64 {
	var total int64
	for _, e := range m.Entries {
		total += e.Size
	}
	return total
}

// writeFileAtomic writes data to a temporary file next to path and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
