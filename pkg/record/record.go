// Package record defines the canonical speech record and its normalization
// from raw decoded field groups.
package record

import (
	"fmt"

	"github.com/kokkai-tools/speech-export/pkg/api"
)

// speechURLTemplate is the permalink format of the proceedings viewer. The
// template is fixed; changing it would break cross-run compatibility of the
// speech_url column.
const speechURLTemplate = "https://kokkai.ndl.go.jp/txt/%s/%s"

// Record is the canonical, flat representation of one speech. Every field is
// always populated with some string; absent upstream data normalizes to "".
// Records are immutable once constructed.
type Record struct {
	// CommentID is the 1-based sequential identifier assigned in fetch order
	// across all pages of a run.
	CommentID int

	MeetingID       string
	Session         string
	NameOfHouse     string
	NameOfMeeting   string
	Issue           string
	Date            string
	SpeechOrder     string
	Speaker         string
	SpeakerGroup    string
	SpeakerPosition string
	SpeakerRole     string
	Body            string
	SpeechURL       string
}

// Normalize maps one raw field group into a Record with the given sequential
// id. The mapping is 1:1 and never fails; missing fields degrade to empty
// strings.
func Normalize(id int, g api.SpeechGroup) Record {
	return Record{
		CommentID:       id,
		MeetingID:       g.IssueID,
		Session:         g.Session,
		NameOfHouse:     g.NameOfHouse,
		NameOfMeeting:   g.NameOfMeeting,
		Issue:           g.Issue,
		Date:            g.Date,
		SpeechOrder:     g.SpeechOrder,
		Speaker:         g.Speaker,
		SpeakerGroup:    g.SpeakerGroup,
		SpeakerPosition: g.SpeakerPosition,
		SpeakerRole:     g.SpeakerRole,
		Body:            g.Speech,
		SpeechURL:       permalink(g),
	}
}

// permalink prefers the upstream-provided URL and otherwise derives it from
// meeting id and speech order. Without a meeting id there is nothing to link.
func permalink(g api.SpeechGroup) string {
	if g.SpeechURL != "" {
		return g.SpeechURL
	}
	if g.IssueID == "" {
		return ""
	}
	return SpeechURL(g.IssueID, g.SpeechOrder)
}

// SpeechURL builds the permalink for a speech from its meeting id and
// in-meeting speech order.
func SpeechURL(issueID, speechOrder string) string {
	return fmt.Sprintf(speechURLTemplate, issueID, speechOrder)
}
