package timeline

import (
	"encoding/json"
	"fmt"
	"io"
)

// Payload is the cue document exchanged with callers.
type Payload struct {
	EpisodeID int64         `json:"episodeId"`
	Lang      string        `json:"lang"`
	Items     []PayloadItem `json:"items"`
	TotalMs   int64         `json:"totalMs"`
}

// PayloadItem is a single cue entry inside a Payload.
type PayloadItem struct {
	Idx        int    `json:"idx"`
	StartMs    int64  `json:"startMs"`
	EndMs      int64  `json:"endMs"`
	SentenceID *int64 `json:"sentenceId,omitempty"`
}

// DecodePayload reads a JSON cue document.
func DecodePayload(r io.Reader) (Payload, error) {
	var payload Payload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return Payload{}, fmt.Errorf("decode cue payload: %w", err)
	}
	return payload, nil
}

// Cues converts the payload items into cues, preserving order.
func (p Payload) Cues() []Cue {
	cues := make([]Cue, len(p.Items))
	for i, item := range p.Items {
		cues[i] = Cue{Index: item.Idx, StartMs: item.StartMs, EndMs: item.EndMs}
	}
	return cues
}

// Timeline builds a validated timeline from the payload and its lines.
func (p Payload) Timeline(lines []string) (Timeline, error) {
	return New(p.Cues(), lines, p.TotalMs)
}
