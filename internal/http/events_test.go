package http

import (
	"bufio"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/readinglists/internal/readinglists"
)

type fakeEventSource struct {
	mu          sync.Mutex
	subscribers []func(readinglists.Event)
}

func (f *fakeEventSource) Subscribe(fn func(readinglists.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribers = append(f.subscribers, fn)
	return func() {}
}

func (f *fakeEventSource) post(e readinglists.Event) {
	f.mu.Lock()
	subscribers := append([]func(readinglists.Event){}, f.subscribers...)
	f.mu.Unlock()
	for _, fn := range subscribers {
		fn(e)
	}
}

func TestEventsController_Stream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	source := &fakeEventSource{}
	router := gin.New()
	router.GET("/api/events", NewEventsController(source).Stream)
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	source.post(readinglists.SyncDidFinish{Err: errors.New("offline"), SyncedLists: 2})

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < 2 {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "stream closed early")
			if line != "" {
				got = append(got, line)
			}
		case <-timeout:
			t.Fatal("timed out waiting for event")
		}
	}

	assert.Equal(t, "event:sync_did_finish", got[0])
	assert.True(t, strings.HasPrefix(got[1], "data:"))
	assert.Contains(t, got[1], `"error":"offline"`)
	assert.Contains(t, got[1], `"synced_lists":2`)
}

func TestEventPayload(t *testing.T) {
	assert.Equal(t, gin.H{"entry_limit": 1000}, eventPayload(readinglists.ListsWereSplit{EntryLimit: 1000}))
	assert.Equal(t, gin.H{"synced_lists": 1, "synced_entries": 4}, eventPayload(readinglists.SyncDidFinish{SyncedLists: 1, SyncedEntries: 4}))
	assert.Equal(t, gin.H{}, eventPayload(readinglists.SyncDidStart{}))

	payload := eventPayload(readinglists.ServerDidConfirmSyncWasEnabled{ForAccount: true, EnabledOnDevice: true})
	assert.Equal(t, true, payload["for_account"])
	assert.Equal(t, false, payload["disabled_on_device"])
}
