package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()

	path := writeFile(t, "dataset.json", []byte(sampleDataset))
	w, err := NewWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := w.Close(); err != nil {
			t.Logf("Close() failed: %v", err)
		}
	})
	return w, path
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case event := <-w.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watcher event")
	}
	return Event{}
}

func TestWatcher_Reload(t *testing.T) {
	w, path := newTestWatcher(t)

	updated := `{"customers": [{"id": 9, "lines": []}], "events": []}`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))

	event := waitEvent(t, w)
	require.Equal(t, EventReloaded, event.Type, "unexpected error: %v", event.Error)
	require.NotNil(t, event.Dataset)
	require.Len(t, event.Dataset.Customers, 1)
	assert.Equal(t, 9, event.Dataset.Customers[0].ID)
}

func TestWatcher_ReloadError(t *testing.T) {
	w, path := newTestWatcher(t)

	require.NoError(t, os.WriteFile(path, []byte(`{"customers": [`), 0o600))

	event := waitEvent(t, w)
	assert.Equal(t, EventError, event.Type)
	assert.ErrorIs(t, event.Error, ErrMalformed)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	w, path := newTestWatcher(t)

	other := filepath.Join(filepath.Dir(path), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("hello"), 0o600))

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected event %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CloseTwice(t *testing.T) {
	path := writeFile(t, "dataset.json", []byte(sampleDataset))
	w, err := NewWatcher(path)
	require.NoError(t, err)

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "dataset.json"))
	assert.Error(t, err)
}

func TestSendEvent_Full(t *testing.T) {
	w, _ := newTestWatcher(t)

	for i := 0; i < cap(w.eventChan)+5; i++ {
		w.sendEvent(Event{Type: EventError})
	}
	assert.Len(t, w.eventChan, cap(w.eventChan))
}
