package http

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/readinglists/internal/readinglists"
)

// eventBuffer is the number of events held per client. Events are dropped
// for clients that fall further behind.
const eventBuffer = 64

// EventsController streams controller events as server-sent events.
type EventsController struct {
	source EventSource
}

func NewEventsController(source EventSource) *EventsController {
	return &EventsController{source: source}
}

// Stream handles GET /api/events
func (ec *EventsController) Stream(c *gin.Context) {
	events := make(chan readinglists.Event, eventBuffer)
	unsubscribe := ec.source.Subscribe(func(e readinglists.Event) {
		// Event handlers run on the posting goroutine and must not block
		select {
		case events <- e:
		default:
			log.Printf("Events: dropped %s for a slow client", e.Name())
		}
	})
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case e := <-events:
			c.SSEvent(e.Name(), eventPayload(e))
			return true
		case <-ctx.Done():
			return false
		}
	})
}

func eventPayload(e readinglists.Event) gin.H {
	switch ev := e.(type) {
	case readinglists.SyncDidFinish:
		payload := gin.H{"synced_lists": ev.SyncedLists, "synced_entries": ev.SyncedEntries}
		if ev.Err != nil {
			payload["error"] = ev.Err.Error()
		}
		return payload
	case readinglists.ServerDidConfirmSyncWasEnabled:
		return gin.H{
			"for_account":        ev.ForAccount,
			"enabled_on_device":  ev.EnabledOnDevice,
			"disabled_on_device": ev.DisabledOnDevice,
		}
	case readinglists.UserDidSaveOrUnsaveArticle:
		return gin.H{"article": ev.Article, "saved": ev.Saved}
	case readinglists.ListsWereSplit:
		return gin.H{"entry_limit": ev.EntryLimit}
	default:
		return gin.H{}
	}
}
