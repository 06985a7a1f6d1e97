package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/resq112/core/model"
)

func sampleEntries() []model.DispatchLogEntry {
	return []model.DispatchLogEntry{
		{
			SourceCounty: "Brasov",
			SourceCity:   "Brasov",
			TargetCounty: "Cluj",
			TargetCity:   "Cluj-Napoca",
			Type:         model.ResourceMedical,
			Quantity:     3,
			Timestamp:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			SourceCounty: "Ilfov",
			SourceCity:   "Bucuresti",
			TargetCounty: "Brasov",
			TargetCity:   "Brasov",
			Type:         model.ResourceFire,
			Quantity:     1,
			Timestamp:    time.Date(2024, 5, 1, 12, 5, 0, 0, time.UTC),
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleEntries()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var decoded []model.DispatchLogEntry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(decoded))
	}
	if decoded[0].Type != model.ResourceMedical || decoded[0].Quantity != 3 {
		t.Fatalf("unexpected first entry: %+v", decoded[0])
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleEntries()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "timestamp,type,source_county,source_city,target_county,target_city,quantity" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "Medical") || !strings.HasSuffix(lines[1], ",3") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
