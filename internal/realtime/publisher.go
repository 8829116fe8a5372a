package realtime

import (
	"encoding/json"

	"github.com/kinetiq-id/kinetiq/internal/verify"
)

// ResultPublisher adapts the hub to the verification engine's Publisher
// interface. Results are flattened to generic maps so subscription
// filters can inspect them uniformly.
type ResultPublisher struct {
	hub *Hub
}

// Compile-time check.
var _ verify.Publisher = (*ResultPublisher)(nil)

// NewResultPublisher creates a publisher over the given hub.
func NewResultPublisher(hub *Hub) *ResultPublisher {
	return &ResultPublisher{hub: hub}
}

// PublishResult broadcasts a verification outcome. Non-blocking; events
// are dropped when the broadcast buffer is full.
func (p *ResultPublisher) PublishResult(r *verify.Result) {
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	p.hub.BroadcastVerification(data)
}
