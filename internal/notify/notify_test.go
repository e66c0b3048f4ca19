package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	bus := NewInProcess()

	var got []Event
	bus.Subscribe(RepoCommitted, func(evt Event) { got = append(got, evt) })

	bus.Publish(Event{Name: RepoCommitted, RepoID: "r1"})
	bus.Publish(Event{Name: RepoDeleted, RepoID: "r2"})

	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].RepoID)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewInProcess()

	count := 0
	unsubscribe := bus.Subscribe(RepoCommitted, func(evt Event) { count++ })

	bus.Publish(Event{Name: RepoCommitted})
	unsubscribe()
	bus.Publish(Event{Name: RepoCommitted})

	assert.Equal(t, 1, count)
}

func TestMultipleSubscribersAllReceiveInOrder(t *testing.T) {
	bus := NewInProcess()

	var order []int
	bus.Subscribe(RepoCommitted, func(evt Event) { order = append(order, 1) })
	bus.Subscribe(RepoCommitted, func(evt Event) { order = append(order, 2) })

	bus.Publish(Event{Name: RepoCommitted})
	assert.Equal(t, []int{1, 2}, order)
}
