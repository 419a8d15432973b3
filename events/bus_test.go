package events

import (
	"sync"
	"testing"

	"github.com/milk9111/fieldroutes/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversByKind(t *testing.T) {
	b := NewBus()

	var placed, removed []Event
	b.Subscribe(KindBlocksPlaced, func(e Event) { placed = append(placed, e) })
	b.Subscribe(KindBlockRemoved, func(e Event) { removed = append(removed, e) })

	b.Publish(Event{Type: KindBlocksPlaced, Data: TerrainEdit{Cells: []common.Point{{X: 1, Y: 1}}}})
	b.Publish(Event{Type: KindFieldReady})

	require.Len(t, placed, 1)
	assert.Empty(t, removed)
	edit, ok := placed[0].Data.(TerrainEdit)
	require.True(t, ok)
	assert.Equal(t, []common.Point{{X: 1, Y: 1}}, edit.Cells)
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	cancel := b.Subscribe(KindRepathEnemy, func(Event) { calls++ })
	other := b.Subscribe(KindRepathEnemy, func(Event) {})
	assert.Equal(t, 2, b.Subscribers(KindRepathEnemy))

	cancel()
	cancel()
	b.Publish(Event{Type: KindRepathEnemy})
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, b.Subscribers(KindRepathEnemy))
	other()
	assert.Equal(t, 0, b.Subscribers(KindRepathEnemy))
}

func TestBusReentrantPublish(t *testing.T) {
	b := NewBus()
	got := 0
	b.Subscribe(KindFieldReady, func(Event) { got++ })
	b.Subscribe(KindBlocksPlaced, func(Event) { b.Publish(Event{Type: KindFieldReady}) })

	b.Publish(Event{Type: KindBlocksPlaced})
	assert.Equal(t, 1, got)
}

func TestNilBusIsInert(t *testing.T) {
	var b *Bus
	assert.NotPanics(t, func() {
		b.Subscribe(KindPathChanged, func(Event) {})()
		b.Publish(Event{Type: KindPathChanged})
	})
}

func TestQueueConcurrentPush(t *testing.T) {
	var q Queue
	b := NewBus()
	b.Subscribe(KindBlockRemoved, q.Push)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				b.Publish(Event{Type: KindBlockRemoved})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, q.Len())
	assert.Len(t, q.Drain(), 200)
	assert.Nil(t, q.Drain())
}
