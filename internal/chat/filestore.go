package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/suPer8Hu/ai-assistant/internal/logx"
)

// FileStore keeps all transcripts in memory and writes them as one JSON
// document mapping user id to message list.
type FileStore struct {
	path string

	mu    sync.Mutex
	data  map[string][]Message
	dirty bool
}

// OpenFileStore loads path if it exists. A missing file starts an empty
// history. Records that cannot be decoded are dropped and the file as read is
// kept next to it as <path>.corrupt-<unix> before anything overwrites it.
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}

	fs := &FileStore{path: path, data: map[string][]Message{}}

	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read transcript: %w", err)
		}
		return fs, nil
	}

	data, bad := decodeHistory(b)
	if bad > 0 {
		backup := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		if err := os.WriteFile(backup, b, 0o644); err != nil {
			return nil, fmt.Errorf("back up unreadable transcript: %w", err)
		}
		logx.Module("transcript").Warn("transcript had unreadable records; original kept",
			"path", path, "backup", backup, "bad_records", bad)
	}
	fs.data = data
	return fs, nil
}

// fileMessage is the on-disk record. Timestamps are RFC 3339 or zone-less
// ISO-8601 ("2024-05-01T10:00:00.123456", read as local time).
type fileMessage struct {
	ID        string  `json:"id"`
	Role      Role    `json:"role"`
	Text      *string `json:"text"`
	FileURL   *string `json:"file_url"`
	Timestamp string  `json:"timestamp"`
}

// decodeHistory returns the readable records and how many were not. A
// document that is not a user->records object counts as one bad record.
func decodeHistory(b []byte) (map[string][]Message, int) {
	out := map[string][]Message{}

	var raw map[string][]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return out, 1
	}

	bad := 0
	for uid, recs := range raw {
		msgs := make([]Message, 0, len(recs))
		for _, rec := range recs {
			var fm fileMessage
			if err := json.Unmarshal(rec, &fm); err != nil {
				bad++
				continue
			}
			ts, err := parseTimestamp(fm.Timestamp)
			if err != nil {
				bad++
			}
			msgs = append(msgs, Message{
				ID:        fm.ID,
				UserID:    uid,
				Role:      fm.Role,
				Text:      fm.Text,
				FileURL:   fm.FileURL,
				Timestamp: ts,
			})
		}
		out[uid] = msgs
	}
	return out, bad
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func (f *FileStore) Append(ctx context.Context, userID string, m Message) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()

	msgs := f.data[userID]
	if n := len(msgs); n > 0 {
		m.Timestamp = notBefore(m.Timestamp, msgs[n-1].Timestamp)
	}
	m.UserID = userID
	f.data[userID] = append(msgs, m)
	f.dirty = true
	return nil
}

func (f *FileStore) GetAll(ctx context.Context, userID string) ([]Message, error) {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.data[userID]...), nil
}

// Flush writes the whole history through a temp file and rename.
func (f *FileStore) Flush(ctx context.Context) error {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return nil
	}

	b, err := json.MarshalIndent(f.data, "", "    ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".chat_history-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	f.dirty = false
	return nil
}
