package test

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// TestClient is a bare websocket game client: it records every server
// event and lets tests wait for specific event types in order.
type TestClient struct {
	conn   *websocket.Conn
	done   chan struct{}
	events chan Envelope
	name   string
}

type Envelope struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func NewTestClient(t *testing.T, u url.URL, name string) (*TestClient, error) {
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %v", err)
	}
	client := &TestClient{
		conn:   c,
		done:   make(chan struct{}),
		events: make(chan Envelope, 1024),
		name:   name,
	}
	go client.listen(t)
	return client, nil
}

func (tc *TestClient) listen(t *testing.T) {
	defer close(tc.done)
	for {
		_, message, err := tc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err) || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				t.Logf("%s: connection closed: %v", tc.name, err)
				return
			}
			t.Logf("%s: read: %v", tc.name, err)
			return
		}
		var envelope Envelope
		if err := json.Unmarshal(message, &envelope); err != nil {
			t.Logf("%s: unmarshal: %v", tc.name, err)
			continue
		}
		select {
		case tc.events <- envelope:
		default:
			// Inbox full; ticks outpace the test. Drop the oldest.
			<-tc.events
			tc.events <- envelope
		}
	}
}

// Send submits a client intent under the standard envelope.
func (tc *TestClient) Send(eventType string, data any) error {
	payload, err := json.Marshal(map[string]any{"type": eventType, "data": data})
	if err != nil {
		return err
	}
	return tc.conn.WriteMessage(websocket.TextMessage, payload)
}

// WaitFor discards events until one of the wanted type arrives. Tick
// broadcasts interleave with everything, so skipping is the norm.
func (tc *TestClient) WaitFor(eventType string, timeout time.Duration) (Envelope, error) {
	deadline := time.After(timeout)
	for {
		select {
		case envelope := <-tc.events:
			if envelope.Type == eventType {
				return envelope, nil
			}
		case <-tc.done:
			return Envelope{}, fmt.Errorf("%s: connection closed while waiting for %s", tc.name, eventType)
		case <-deadline:
			return Envelope{}, fmt.Errorf("%s: timeout waiting for %s", tc.name, eventType)
		}
	}
}

func (tc *TestClient) Close() {
	tc.conn.Close()
}
