package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
)

// NATSBridge subscribes to NATS subjects and pushes messages into the Hub.
type NATSBridge struct {
	conn     *nats.Conn
	hub      *Hub
	tenantID string
}

func NewNATSBridge(natsURL, tenantID string, hub *Hub) (*NATSBridge, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBridge{conn: nc, hub: hub, tenantID: tenantID}, nil
}

// Subscribe listens for commit events on tenant.<tenantID>.flowchart.*.updated
func (b *NATSBridge) Subscribe() error {
	subject := fmt.Sprintf("tenant.%s.flowchart.*.updated", b.tenantID)
	_, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		flowchartID, err := parseFlowchartIDFromSubject(msg.Subject)
		if err != nil {
			log.Printf("nats: bad subject %q: %v", msg.Subject, err)
			return
		}

		// Wrap the raw commit payload in the outgoing envelope
		envelope := outgoingMsg{
			Type:        "flowchart.updated",
			FlowchartID: flowchartID,
			Payload:     json.RawMessage(msg.Data),
		}
		data, err := json.Marshal(envelope)
		if err != nil {
			log.Printf("nats: marshal envelope: %v", err)
			return
		}

		b.hub.broadcast <- broadcastMsg{flowchartID: flowchartID, payload: data}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subject, err)
	}

	log.Printf("NATS bridge subscribed to: %s", subject)
	return nil
}

// Close drains the NATS connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		log.Printf("nats drain: %v", err)
	}
}

// parseFlowchartIDFromSubject extracts the id from "tenant.<tid>.flowchart.<id>.updated"
func parseFlowchartIDFromSubject(subject string) (uint, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 5 {
		return 0, fmt.Errorf("expected 5 parts, got %d", len(parts))
	}
	id, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid flowchart id %q: %w", parts[3], err)
	}
	return uint(id), nil
}
