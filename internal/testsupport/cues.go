package testsupport

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"cuecast/internal/timeline"
)

// WriteCuePayload writes a cue document with the given [start, end] pairs and
// returns its path.
func WriteCuePayload(t testing.TB, dir string, totalMs int64, spans ...[2]int64) string {
	t.Helper()
	payload := timeline.Payload{EpisodeID: 1, Lang: "en", TotalMs: totalMs}
	for i, s := range spans {
		payload.Items = append(payload.Items, timeline.PayloadItem{Idx: i, StartMs: s[0], EndMs: s[1]})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal cues: %v", err)
	}
	path := filepath.Join(dir, "cues.json")
	WriteBytes(t, path, data)
	return path
}
