// Package store implements the durable session log: one append-only
// line-delimited JSON file per session plus a bounded index of session
// summaries, both scoped to a project directory derived from the workspace
// path. It contains no business logic; reads favor availability, so corrupt
// records and a corrupt index degrade to empty rather than failing callers.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// Store persists message logs and the session index for a single project.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// ProjectID derives a collision-free directory name from an absolute
// workspace path by replacing path separators and drive colons.
func ProjectID(workDir string) string {
	id := strings.ReplaceAll(workDir, string(os.PathSeparator), "-")
	id = strings.ReplaceAll(id, "/", "-")
	id = strings.ReplaceAll(id, ":", "-")
	return strings.Trim(id, "-")
}

// New creates a store rooted at dir, creating the directory if needed.
func New(fs afero.Fs, dir string, logger *slog.Logger) (*Store, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{fs: fs, dir: dir, logger: logger}, nil
}

// Dir returns the store's project directory.
func (s *Store) Dir() string {
	return s.dir
}

// Now returns the store's canonical timestamp representation.
func Now() string {
	return time.Now().Format(time.RFC3339Nano)
}

func (s *Store) logPath(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".jsonl")
}

func (s *Store) indexPath() string {
	return filepath.Join(s.dir, "index.json")
}

// AppendMessage durably appends one message record to the session's log.
// Prior records are never reordered or rewritten.
func (s *Store) AppendMessage(sessionID string, msg *Message) error {
	line, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	f, err := s.fs.OpenFile(s.logPath(sessionID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open session log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// ListMessages returns the session's messages in append order. Individual
// malformed records are skipped, not fatal; a missing log yields an empty
// slice.
func (s *Store) ListMessages(sessionID string) []*Message {
	f, err := s.fs.Open(s.logPath(sessionID))
	if err != nil {
		return nil
	}
	defer f.Close()

	var messages []*Message
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			s.logger.Warn("skipping malformed message record", "session_id", sessionID, "error", err)
			continue
		}
		messages = append(messages, &msg)
	}
	return messages
}

// LoadIndex reads the session index. A missing or corrupt index returns an
// empty slice rather than an error.
func (s *Store) LoadIndex() []*Session {
	data, err := afero.ReadFile(s.fs, s.indexPath())
	if err != nil {
		return nil
	}
	var sessions []*Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		s.logger.Warn("session index corrupt, treating as empty", "error", err)
		return nil
	}
	return sessions
}

// SaveIndex writes the full session index.
func (s *Store) SaveIndex(sessions []*Session) error {
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session index: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf("failed to write session index: %w", err)
	}
	return nil
}

// UpsertSession replaces or inserts the session's index entry and saves.
func (s *Store) UpsertSession(session *Session) error {
	sessions := s.LoadIndex()
	replaced := false
	for i, existing := range sessions {
		if existing.ID == session.ID {
			sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, session)
	}
	return s.SaveIndex(sessions)
}

// FindSession returns the index entry with the given ID, or nil.
func (s *Store) FindSession(sessionID string) *Session {
	for _, session := range s.LoadIndex() {
		if session.ID == sessionID {
			return session
		}
	}
	return nil
}

// PruneAndDeleteExcess sorts the index most-recently-updated first, keeps the
// newest maxEntries, and deletes both the index entries and the backing
// message logs of the rest. This caps on-disk growth for a long-lived tool.
func (s *Store) PruneAndDeleteExcess(maxEntries int) error {
	sessions := s.LoadIndex()
	if len(sessions) <= maxEntries {
		return nil
	}
	SortByUpdatedAt(sessions)
	keep := sessions[:maxEntries]
	for _, evicted := range sessions[maxEntries:] {
		if err := s.fs.Remove(s.logPath(evicted.ID)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to delete evicted session log", "session_id", evicted.ID, "error", err)
		}
	}
	return s.SaveIndex(keep)
}

// SortByUpdatedAt orders sessions most-recently-updated first. Ties and
// unparseable timestamps fall back to comparing the raw timestamp strings.
func SortByUpdatedAt(sessions []*Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		ti, erri := time.Parse(time.RFC3339Nano, sessions[i].UpdatedAt)
		tj, errj := time.Parse(time.RFC3339Nano, sessions[j].UpdatedAt)
		if erri != nil || errj != nil {
			return sessions[i].UpdatedAt > sessions[j].UpdatedAt
		}
		if ti.Equal(tj) {
			return sessions[i].UpdatedAt > sessions[j].UpdatedAt
		}
		return ti.After(tj)
	})
}
