// Package storage persists automaton definitions to a directory.
//
// Each definition lives in its own <id>.yaml file, written atomically
// through a tmp/ subdirectory and carrying a SHA-256 checksum of the
// definition. Open clears leftovers from interrupted writes; LoadAll skips
// files that fail to parse or verify and reports them.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"GoNFA/internal/definition"
)

const (
	recordExt  = ".yaml"
	tmpDirName = "tmp"
)

var ErrInvalidID = errors.New("storage: invalid record id")

// Record is one persisted definition.
type Record struct {
	ID         string                `yaml:"id"`
	CreatedAt  time.Time             `yaml:"created_at"`
	Checksum   Checksum              `yaml:"checksum"`
	Definition definition.Definition `yaml:"definition"`
}

// Store reads and writes records under one directory.
type Store struct {
	dir    string
	tmpDir string
	logger *slog.Logger
}

// Open prepares dir for use, creating it if needed, and removes temp files
// left by interrupted writes.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		dir:    dir,
		tmpDir: filepath.Join(dir, tmpDirName),
		logger: logger,
	}
	if err := EnsureDir(s.tmpDir); err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}

	removed, err := RemoveDirContents(s.tmpDir)
	if err != nil {
		return nil, fmt.Errorf("clean temp dir: %w", err)
	}
	for _, p := range removed {
		s.logger.Info("removed leftover temp file", "path", p)
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes rec, replacing any record with the same ID.
func (s *Store) Save(rec Record) error {
	if _, err := uuid.Parse(rec.ID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, rec.ID)
	}

	def, err := yaml.Marshal(rec.Definition)
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}
	rec.Checksum = ComputeChecksum(def)

	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := AtomicWriteFile(s.path(rec.ID), data, s.tmpDir); err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}

	s.logger.Debug("record saved", "id", rec.ID, "checksum", rec.Checksum)
	return nil
}

// Delete removes the record for id. Deleting a missing record is not an
// error.
func (s *Store) Delete(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return FsyncDir(s.dir)
}

// LoadAll reads every record, oldest first. Files that cannot be read,
// parsed or verified are skipped and returned as errors.
func (s *Store) LoadAll() ([]Record, []error) {
	names, err := ListFiles(s.dir, recordExt)
	if err != nil {
		return nil, []error{err}
	}

	var records []Record
	var errs []error
	for _, name := range names {
		rec, err := s.load(name)
		if err != nil {
			s.logger.Warn("skipping unreadable record", "file", name, "error", err)
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}

	slices.SortFunc(records, func(a, b Record) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return records, errs
}

func (s *Store) load(name string) (Record, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", name, err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if want := strings.TrimSuffix(name, recordExt); rec.ID != want {
		return Record{}, fmt.Errorf("%w: %s holds id %q", ErrInvalidID, name, rec.ID)
	}

	def, err := yaml.Marshal(rec.Definition)
	if err != nil {
		return Record{}, fmt.Errorf("marshal definition %s: %w", name, err)
	}
	if err := VerifyChecksum(def, rec.Checksum); err != nil {
		return Record{}, fmt.Errorf("verify %s: %w", name, err)
	}
	return rec, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+recordExt)
}
