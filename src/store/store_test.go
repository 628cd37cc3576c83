package store

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := New(afero.NewMemMapFs(), "/state/projects/test", logger)
	require.NoError(t, err)
	return st
}

func strPtr(s string) *string { return &s }

func TestProjectID(t *testing.T) {
	tests := []struct {
		workDir  string
		expected string
	}{
		{"/home/alice/proj", "home-alice-proj"},
		{"/", ""},
		{"C:/Users/bob", "C--Users-bob"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ProjectID(tt.workDir), tt.workDir)
	}
}

func TestAppendAndListMessages(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 5; i++ {
		msg := &Message{
			ID:        fmt.Sprintf("msg-%d", i),
			SessionID: "s1",
			Role:      RoleUser,
			Content:   strPtr(fmt.Sprintf("message %d", i)),
			Visible:   true,
		}
		require.NoError(t, st.AppendMessage("s1", msg))
	}

	messages := st.ListMessages("s1")
	require.Len(t, messages, 5)
	for i, msg := range messages {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), msg.ID)
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Text())
	}
}

func TestListMessagesMissingLog(t *testing.T) {
	st := newTestStore(t)
	assert.Empty(t, st.ListMessages("nope"))
}

func TestListMessagesSkipsMalformedRecords(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.AppendMessage("s1", &Message{ID: "good-1", Role: RoleUser, Content: strPtr("hi")}))

	// Corrupt line injected directly into the log.
	f, err := st.fs.OpenFile(st.logPath("s1"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("{not json\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, st.AppendMessage("s1", &Message{ID: "good-2", Role: RoleAssistant, Content: strPtr("ok")}))

	messages := st.ListMessages("s1")
	require.Len(t, messages, 2)
	assert.Equal(t, "good-1", messages[0].ID)
	assert.Equal(t, "good-2", messages[1].ID)
}

func TestNullContentRoundTrip(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.AppendMessage("s1", &Message{ID: "m1", Role: RoleAssistant, Content: nil}))

	messages := st.ListMessages("s1")
	require.Len(t, messages, 1)
	assert.Nil(t, messages[0].Content)
	assert.Equal(t, "", messages[0].Text())
}

func TestUpsertSession(t *testing.T) {
	st := newTestStore(t)

	session := &Session{ID: "s1", Status: StatusPending, UpdatedAt: Now()}
	require.NoError(t, st.UpsertSession(session))

	session.Status = StatusCompleted
	require.NoError(t, st.UpsertSession(session))

	sessions := st.LoadIndex()
	require.Len(t, sessions, 1)
	assert.Equal(t, StatusCompleted, sessions[0].Status)
}

func TestFindSession(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.UpsertSession(&Session{ID: "s1", Status: StatusPending}))

	assert.NotNil(t, st.FindSession("s1"))
	assert.Nil(t, st.FindSession("s2"))
}

func TestLoadIndexCorruptReturnsEmpty(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, afero.WriteFile(st.fs, st.indexPath(), []byte("{{{"), 0o644))
	assert.Empty(t, st.LoadIndex())
}

func TestPruneAndDeleteExcess(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("s%02d", i)
		require.NoError(t, st.UpsertSession(&Session{
			ID: id,
			// Lexically increasing timestamps so s59 is newest.
			UpdatedAt: fmt.Sprintf("2026-01-01T00:00:%02dZ", i),
		}))
		require.NoError(t, st.AppendMessage(id, &Message{ID: "m", Role: RoleUser, Content: strPtr("x")}))
	}

	require.NoError(t, st.PruneAndDeleteExcess(50))

	sessions := st.LoadIndex()
	require.Len(t, sessions, 50)
	for _, s := range sessions {
		assert.GreaterOrEqual(t, s.ID, "s10")
	}

	// Evicted sessions lose their message logs too.
	assert.Empty(t, st.ListMessages("s00"))
	assert.NotEmpty(t, st.ListMessages("s59"))
}

func TestPruneNoopUnderCap(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.UpsertSession(&Session{ID: "s1", UpdatedAt: Now()}))
	require.NoError(t, st.PruneAndDeleteExcess(50))
	assert.Len(t, st.LoadIndex(), 1)
}

func TestSortByUpdatedAtFallsBackToRawCompare(t *testing.T) {
	sessions := []*Session{
		{ID: "a", UpdatedAt: "not-a-timestamp-1"},
		{ID: "b", UpdatedAt: "not-a-timestamp-2"},
	}
	SortByUpdatedAt(sessions)
	assert.Equal(t, "b", sessions[0].ID)
}
