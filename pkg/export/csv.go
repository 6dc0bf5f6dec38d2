// Package export serializes the final record sequence as CSV with a fixed
// column schema.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kokkai-tools/speech-export/pkg/record"
)

// Columns is the fixed output column order. Consumers depend on this ordering;
// do not reorder.
var Columns = []string{
	"comment-id",
	"meeting-id",
	"session",
	"name_of_house",
	"name_of_meeting",
	"issue",
	"date",
	"speech_order",
	"speaker",
	"speaker_group",
	"speaker_position",
	"speaker_role",
	"comment-body",
	"speech_url",
}

// Write emits the record sequence as CSV: a header row followed by one row
// per record in sequence order. Records arrive already ordered and
// deduplicated; no sorting or filtering happens here.
func Write(w io.Writer, records []record.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.CommentID),
			rec.MeetingID,
			rec.Session,
			rec.NameOfHouse,
			rec.NameOfMeeting,
			rec.Issue,
			rec.Date,
			rec.SpeechOrder,
			rec.Speaker,
			rec.SpeakerGroup,
			rec.SpeakerPosition,
			rec.SpeakerRole,
			rec.Body,
			rec.SpeechURL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %d: %w", rec.CommentID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the record sequence to a CSV file, creating or truncating
// it. Nothing is written until the full record sequence is available, so an
// aborted run never leaves a partial table behind.
func WriteFile(path string, records []record.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
