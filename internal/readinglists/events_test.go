package readinglists

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_DeliversInRegistrationOrder(t *testing.T) {
	bus := newEventBus()
	var got []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		bus.subscribe(func(e Event) { got = append(got, name+":"+e.Name()) })
	}

	bus.post(SyncDidStart{})

	assert.Equal(t, []string{"a:sync_did_start", "b:sync_did_start", "c:sync_did_start"}, got)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := newEventBus()
	count := 0
	unsubscribe := bus.subscribe(func(Event) { count++ })

	bus.post(SyncDidStart{})
	unsubscribe()
	bus.post(SyncDidStart{})

	assert.Equal(t, 1, count)
}

func TestEventBus_NestedPostsDeliveredAfterCurrent(t *testing.T) {
	bus := newEventBus()
	var got []string
	bus.subscribe(func(e Event) {
		got = append(got, "a:"+e.Name())
		if _, ok := e.(SyncDidStart); ok {
			bus.post(SyncDidFinish{})
		}
	})
	bus.subscribe(func(e Event) { got = append(got, "b:"+e.Name()) })

	bus.post(SyncDidStart{})

	assert.Equal(t, []string{
		"a:sync_did_start",
		"b:sync_did_start",
		"a:sync_did_finish",
		"b:sync_did_finish",
	}, got)
}

func TestEventBus_RecoversAfterPanickingHandler(t *testing.T) {
	bus := newEventBus()
	count := 0
	unsubscribe := bus.subscribe(func(Event) { panic("boom") })

	assert.Panics(t, func() { bus.post(SyncDidStart{}) })
	unsubscribe()
	bus.subscribe(func(Event) { count++ })
	bus.post(SyncDidStart{})

	assert.Equal(t, 1, count)
}
