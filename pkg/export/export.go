// Package export serializes dispatch audit records for external consumers.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/kilianp07/resq112/core/model"
)

// WriteJSON writes the audit entries to w as a JSON array.
func WriteJSON(w io.Writer, entries []model.DispatchLogEntry) error {
	enc := json.NewEncoder(w)
	return enc.Encode(entries)
}

// WriteCSV writes the audit entries to w in CSV format.
func WriteCSV(w io.Writer, entries []model.DispatchLogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "type", "source_county", "source_city", "target_county", "target_city", "quantity"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.Timestamp.Format(time.RFC3339),
			e.Type.String(),
			e.SourceCounty,
			e.SourceCity,
			e.TargetCounty,
			e.TargetCity,
			strconv.Itoa(e.Quantity),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
