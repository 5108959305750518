package handlers

import (
	"github.com/gofiber/websocket/v2"
)

type streamMessage struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

type streamChunkResult struct {
	Type    string            `json:"type"`
	Results []detectResultDTO `json:"results,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Stream implements the incremental detection websocket: the client
// sends {"text": "..."} messages as more bytes become available, and
// receives a result set after every message that leaves the buffer
// with enough text to detect confidently, or immediately on a
// {"final": true} message regardless of buffer size.
func Stream(deps *Deps) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		d, err := deps.NewDetector()
		if err != nil {
			deps.Logger.WithError(err).Error("failed to construct detector for stream")
			_ = conn.WriteJSON(streamChunkResult{Type: "error", Error: "detector unavailable"})
			return
		}

		for {
			var msg streamMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}

			d.AddText(msg.Text)

			if !msg.Final && !d.HasEnoughText() {
				continue
			}

			results := d.DetectAll()
			dto := make([]detectResultDTO, len(results))
			for i, r := range results {
				dto[i] = detectResultDTO{
					Label:           r.Label,
					Band:            r.Band.String(),
					RawProb:         r.RawProb,
					ConfidenceScore: r.ConfidenceScore,
				}
			}
			if err := conn.WriteJSON(streamChunkResult{Type: "result", Results: dto}); err != nil {
				return
			}
			if msg.Final {
				return
			}
		}
	}
}
