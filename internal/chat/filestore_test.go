package chat

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileStore_FlushAndReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat_history.json")

	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	_ = fs.Append(ctx, "alice", Message{ID: "1", Role: RoleUser, Text: strPtr("hi"), Timestamp: now})
	_ = fs.Append(ctx, "alice", Message{ID: "2", Role: RoleBot, Text: strPtr("hello"), Timestamp: now.Add(time.Second)})
	_ = fs.Append(ctx, "bob", Message{ID: "3", Role: RoleUser, FileURL: strPtr("/uploads/a.pdf"), Timestamp: now})
	if err := fs.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	msgs, _ := reopened.GetAll(ctx, "alice")
	if len(msgs) != 2 || msgs[0].ID != "1" || msgs[1].ID != "2" {
		t.Fatalf("unexpected alice history: %+v", msgs)
	}
	if msgs[0].UserID != "alice" || *msgs[1].Text != "hello" {
		t.Fatalf("unexpected reloaded message: %+v", msgs[1])
	}
	bob, _ := reopened.GetAll(ctx, "bob")
	if len(bob) != 1 || bob[0].Text != nil || *bob[0].FileURL != "/uploads/a.pdf" {
		t.Fatalf("unexpected bob history: %+v", bob)
	}
}

func TestFileStore_CorruptFileStartsEmptyAndKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat_history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	msgs, _ := fs.GetAll(context.Background(), "anyone")
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %d", len(msgs))
	}

	backups, _ := filepath.Glob(path + ".corrupt-*")
	if len(backups) != 1 {
		t.Fatalf("expected one backup file, got %v", backups)
	}
	b, err := os.ReadFile(backups[0])
	if err != nil || string(b) != "{not json" {
		t.Fatalf("backup does not hold the original bytes: %q err=%v", b, err)
	}
}

// Histories written by the earlier service use zone-less ISO-8601 timestamps.
const legacyHistory = `{
    "alice": [
        {
            "id": "7f1c",
            "role": "user",
            "text": "hello",
            "file_url": null,
            "timestamp": "2024-05-01T10:00:00.123456"
        },
        {
            "id": "7f1d",
            "role": "bot",
            "text": "Hello! How can I help you today?",
            "file_url": null,
            "timestamp": "2024-05-01T10:00:01"
        }
    ]
}`

func TestFileStore_LoadsZonelessTimestampsAndKeepsThem(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "chat_history.json")
	if err := os.WriteFile(path, []byte(legacyHistory), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	alice, _ := fs.GetAll(ctx, "alice")
	if len(alice) != 2 {
		t.Fatalf("expected 2 messages for alice, got %d", len(alice))
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.Local)
	if !alice[0].Timestamp.Equal(want) {
		t.Fatalf("unexpected timestamp %s, want %s", alice[0].Timestamp, want)
	}
	if alice[1].Role != RoleBot || alice[0].FileURL != nil {
		t.Fatalf("unexpected records: %+v", alice)
	}
	if backups, _ := filepath.Glob(path + ".corrupt-*"); len(backups) != 0 {
		t.Fatalf("readable history must not be backed up: %v", backups)
	}

	_ = fs.Append(ctx, "bob", Message{ID: "b1", Role: RoleUser, Text: strPtr("hi"), Timestamp: time.Now()})
	if err := fs.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reopened, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	alice, _ = reopened.GetAll(ctx, "alice")
	bob, _ := reopened.GetAll(ctx, "bob")
	if len(alice) != 2 || len(bob) != 1 {
		t.Fatalf("history lost after flush: alice=%d bob=%d", len(alice), len(bob))
	}
	if !alice[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp changed across flush: %s", alice[0].Timestamp)
	}
}

func TestFileStore_BadRecordDoesNotDropOthers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	body := `{"alice":[{"id":"1","role":"user","text":"ok","timestamp":"2024-05-01T10:00:00Z"},{"id":2}],
"bob":[{"id":"3","role":"user","text":"still here","timestamp":"2024-05-01T10:00:00"}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	alice, _ := fs.GetAll(context.Background(), "alice")
	bob, _ := fs.GetAll(context.Background(), "bob")
	if len(alice) != 1 || alice[0].ID != "1" || len(bob) != 1 {
		t.Fatalf("unexpected load: alice=%+v bob=%+v", alice, bob)
	}
	if backups, _ := filepath.Glob(path + ".corrupt-*"); len(backups) != 1 {
		t.Fatalf("expected a backup for the bad record, got %v", backups)
	}
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{
		"2024-05-01T10:00:00Z",
		"2024-05-01T10:00:00.5+02:00",
		"2024-05-01T10:00:00.123456",
		"2024-05-01 10:00:00",
	} {
		if _, err := parseTimestamp(s); err != nil {
			t.Fatalf("%q: %v", s, err)
		}
	}
	if _, err := parseTimestamp("yesterday"); err == nil {
		t.Fatalf("expected error for unparsable timestamp")
	}
}

func TestFileStore_TimestampsNeverGoBackwards(t *testing.T) {
	ctx := context.Background()
	fs := newFileStore(t)
	now := time.Now()
	_ = fs.Append(ctx, "u", Message{ID: "1", Role: RoleUser, Timestamp: now})
	_ = fs.Append(ctx, "u", Message{ID: "2", Role: RoleBot, Timestamp: now.Add(-time.Hour)})

	msgs, _ := fs.GetAll(ctx, "u")
	if msgs[1].Timestamp.Before(msgs[0].Timestamp) {
		t.Fatalf("timestamp was not clamped")
	}
}

func TestFileStore_GetAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	fs := newFileStore(t)
	_ = fs.Append(ctx, "u", Message{ID: "1", Role: RoleUser, Timestamp: time.Now()})

	msgs, _ := fs.GetAll(ctx, "u")
	msgs[0].ID = "changed"
	again, _ := fs.GetAll(ctx, "u")
	if again[0].ID != "1" {
		t.Fatalf("stored history was mutated through GetAll")
	}
}

func TestRepo_AppendClampsAndOrders(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))
	now := time.Now()
	_ = repo.Append(ctx, "u", Message{ID: NewMessageID(), Role: RoleUser, Timestamp: now})
	if err := repo.Append(ctx, "u", Message{ID: NewMessageID(), Role: RoleBot, Timestamp: now.Add(-time.Minute)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	msgs, err := repo.GetAll(ctx, "u")
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleBot {
		t.Fatalf("unexpected order: %+v", msgs)
	}
	if msgs[1].Timestamp.Before(msgs[0].Timestamp) {
		t.Fatalf("timestamp was not clamped")
	}
}

func TestRepo_JobLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRepo(openTestDB(t))
	id, err := NewJobID()
	if err != nil {
		t.Fatalf("job id: %v", err)
	}
	if err := repo.CreateJob(ctx, &Job{ID: id, UserID: "u", Prompt: "hi", Status: JobQueued}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := repo.UpdateJobStatusRunning(ctx, id); err != nil {
		t.Fatalf("running: %v", err)
	}
	if err := repo.MarkJobSucceeded(ctx, id, "msg-1"); err != nil {
		t.Fatalf("succeeded: %v", err)
	}
	j, err := repo.GetJobByID(ctx, id)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if j.Status != JobSucceeded || j.ResultMessageID == nil || *j.ResultMessageID != "msg-1" {
		t.Fatalf("unexpected job: %+v", j)
	}
}

func TestUserLocks_ReleasesEntries(t *testing.T) {
	var l userLocks
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("u")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
	if len(l.locks) != 0 {
		t.Fatalf("expected lock table to be empty, got %d", len(l.locks))
	}
}
