package absa

import (
	"encoding/json"
	"fmt"

	"github.com/theimaginaryfoundation/dimabsa/absa/fileutils"
)

// WriteRecordsJSONL writes records one per line. A record loaded from a file is written exactly as it
// was read; a record built in memory is encoded in ID, Text, Quadruplet order with non-ASCII text left
// literal.
func WriteRecordsJSONL(path string, records []Record) error {
	lines := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		if len(rec.raw) > 0 {
			lines = append(lines, rec.raw)
			continue
		}
		b, err := fileutils.MarshalJSONLine(rec)
		if err != nil {
			return fmt.Errorf("WriteRecordsJSONL: marshal %s: %w", rec.ID, err)
		}
		lines = append(lines, b)
	}
	if err := fileutils.WriteJSONLinesAtomic(path, lines); err != nil {
		return fmt.Errorf("WriteRecordsJSONL: %w", err)
	}
	return nil
}

// WritePredictionsJSONL writes the prediction file, one {"ID","Quadruplet"} object per line.
func WritePredictionsJSONL(path string, preds []Prediction) error {
	for i := range preds {
		if preds[i].Quadruplet == nil {
			preds[i].Quadruplet = []PredictedQuad{}
		}
	}
	if err := fileutils.WriteJSONLinesAtomic(path, preds); err != nil {
		return fmt.Errorf("WritePredictionsJSONL: %w", err)
	}
	return nil
}
