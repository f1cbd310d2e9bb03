package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newHubServer exposes the hub over a test server that subscribes every
// connection to the given estimate
func newHubServer(t *testing.T, hub *Hub, estimateID string, target time.Time) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := hub.Subscribe(w, r, estimateID, target)
		require.NoError(t, err)
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readTick(t *testing.T, conn *websocket.Conn) TickMessage {
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var tick TickMessage
	require.NoError(t, json.Unmarshal(payload, &tick))
	return tick
}

func TestHub_SubscribeSendsInitialSnapshot(t *testing.T) {
	hub := NewHub()
	target := time.Now().Add(48 * time.Hour)
	server := newHubServer(t, hub, "estimate-1", target)

	conn := dial(t, server)
	defer conn.Close()

	tick := readTick(t, conn)
	assert.Equal(t, "estimate-1", tick.EstimateID)
	assert.Equal(t, int64(1), tick.Remaining.Days)
	assert.Equal(t, 1, hub.SubscriberCount("estimate-1"))
}

func TestHub_TicksEverySecond(t *testing.T) {
	hub := NewHub()
	target := time.Now().Add(time.Hour)
	server := newHubServer(t, hub, "estimate-1", target)

	conn := dial(t, server)
	defer conn.Close()

	// Initial snapshot plus at least one real tick
	first := readTick(t, conn)
	second := readTick(t, conn)

	assert.Equal(t, first.EstimateID, second.EstimateID)
	assert.LessOrEqual(t, second.Remaining.Minutes, first.Remaining.Minutes+1)
}

func TestHub_FansOutToAllSubscribers(t *testing.T) {
	hub := NewHub()
	target := time.Now().Add(time.Hour)
	server := newHubServer(t, hub, "estimate-1", target)

	conn1 := dial(t, server)
	defer conn1.Close()
	conn2 := dial(t, server)
	defer conn2.Close()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount("estimate-1") == 2
	}, time.Second, 10*time.Millisecond)

	tick1 := readTick(t, conn1)
	tick2 := readTick(t, conn2)
	assert.Equal(t, "estimate-1", tick1.EstimateID)
	assert.Equal(t, "estimate-1", tick2.EstimateID)
}

func TestHub_LastSubscriberStopsClock(t *testing.T) {
	hub := NewHub()
	target := time.Now().Add(time.Hour)
	server := newHubServer(t, hub, "estimate-1", target)

	conn := dial(t, server)
	readTick(t, conn)
	conn.Close()

	require.Eventually(t, func() bool {
		return hub.SubscriberCount("estimate-1") == 0
	}, 3*time.Second, 20*time.Millisecond)

	hub.mu.RLock()
	_, clockAlive := hub.clocks["estimate-1"]
	hub.mu.RUnlock()
	assert.False(t, clockAlive)
}

func TestHub_StopEstimateClosesSubscribers(t *testing.T) {
	hub := NewHub()
	target := time.Now().Add(time.Hour)
	server := newHubServer(t, hub, "estimate-1", target)

	conn := dial(t, server)
	defer conn.Close()
	readTick(t, conn)

	hub.StopEstimate("estimate-1")

	assert.Equal(t, 0, hub.SubscriberCount("estimate-1"))

	// The server sends a close frame; reads fail from then on
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestHub_ResetRacingSubscribe(t *testing.T) {
	hub := NewHub()
	target := time.Now().Add(time.Hour)
	server := newHubServer(t, hub, "estimate-1", target)

	// A retake may land between a subscriber registering and its initial
	// snapshot going out; the hub must tear the stream down without
	// sending on a closed channel
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				hub.StopEstimate("estimate-1")
			}
		}
	}()

	for i := 0; i < 25; i++ {
		conn := dial(t, server)
		conn.Close()
	}

	close(stop)
	wg.Wait()
}

func TestHub_StopEstimateUnknownIDIsNoOp(t *testing.T) {
	hub := NewHub()
	hub.StopEstimate("never-subscribed")
	assert.Equal(t, 0, hub.SubscriberCount("never-subscribed"))
}

func TestHub_IndependentEstimates(t *testing.T) {
	hub := NewHub()
	target := time.Now().Add(time.Hour)

	serverA := newHubServer(t, hub, "estimate-a", target)
	serverB := newHubServer(t, hub, "estimate-b", target)

	connA := dial(t, serverA)
	defer connA.Close()
	connB := dial(t, serverB)
	defer connB.Close()

	assert.Equal(t, "estimate-a", readTick(t, connA).EstimateID)
	assert.Equal(t, "estimate-b", readTick(t, connB).EstimateID)

	hub.StopEstimate("estimate-a")

	// estimate-b keeps ticking
	assert.Equal(t, "estimate-b", readTick(t, connB).EstimateID)
	assert.Equal(t, 1, hub.SubscriberCount("estimate-b"))
}
