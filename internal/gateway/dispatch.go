package gateway

import (
	"github.com/wombocombo/game-server/internal/game"
	"github.com/wombocombo/game-server/internal/metrics"
	"github.com/wombocombo/game-server/internal/protocol"
)

// handleMessage decodes and dispatches one inbound frame. Protocol errors are
// answered with an error frame; the connection always stays open.
func (h *Hub) handleMessage(cn *conn, data []byte) {
	in, err := protocol.Decode(data)
	if err != nil {
		switch err {
		case protocol.ErrMissingType:
			metrics.InboundFrames.WithLabelValues("unknown", "missing_type").Inc()
			cn.enqueue(mustMarshal(protocol.NewError(400, "Missing or invalid 'type' field")))
		default:
			metrics.InboundFrames.WithLabelValues("unknown", "invalid_json").Inc()
			cn.enqueue(mustMarshal(protocol.NewError(400, "Invalid JSON")))
		}
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.registry.Get(cn.roomID)
	if !ok {
		metrics.InboundFrames.WithLabelValues(frameTypeLabel(in.Type), "room_gone").Inc()
		cn.enqueue(mustMarshal(protocol.NewError(404, "Room not found")))
		return
	}

	status := "ok"
	switch in.Type {
	case protocol.TypePing:
		cn.enqueue(mustMarshal(protocol.NewPong()))

	case protocol.TypePlayerReady:
		room.SetReady(cn.playerID, in.Ready)
		if room.State() == game.StatePlaying {
			h.refreshGauges()
		}

	case protocol.TypeChatInbound:
		if in.Message == "" {
			status = "empty_chat"
			cn.enqueue(mustMarshal(protocol.NewError(400, "Empty chat message")))
			break
		}
		room.HandleChat(cn.playerID, in.Message)

	case protocol.TypePlayerInput:
		room.QueueInput(cn.playerID, in.Tick, in.Actions)

	case protocol.TypePlayerAction, protocol.TypeBuyItem:
		// Reserved for future phases; accepted and ignored.

	default:
		status = "unknown_type"
		cn.enqueue(mustMarshal(protocol.NewError(400, "Unknown message type: "+in.Type)))
	}

	metrics.InboundFrames.WithLabelValues(frameTypeLabel(in.Type), status).Inc()
}

// frameTypeLabel clamps the metric label to the enumerated inbound types.
// The raw type string is client-controlled and must not drive label
// cardinality.
func frameTypeLabel(frameType string) string {
	switch frameType {
	case protocol.TypePing, protocol.TypePlayerReady, protocol.TypeChatInbound,
		protocol.TypePlayerInput, protocol.TypePlayerAction, protocol.TypeBuyItem:
		return frameType
	}
	return "unknown"
}
