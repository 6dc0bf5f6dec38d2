package api

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// SpeechGroup is the raw field group of one speech record as extracted from
// a response page. Both encodings expose the same logical fields; the decoder
// flattens them into this single shape. Missing fields stay empty strings.
type SpeechGroup struct {
	SpeechID        string
	IssueID         string
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
	Speech          string
	SpeechURL       string
}

// Page is the decoded form of one API response page.
type Page struct {
	// Total is the total-match count the API reports for the whole query.
	Total int

	// Returned is the number of records the API reports for this page.
	Returned int

	// StartRecord is the 1-based position of the first record in this page.
	StartRecord int

	// NextPosition is the 1-based position of the next page's first record,
	// or 0 when the API reports no further position.
	NextPosition int

	// Speeches are the raw field groups in the API's own order.
	Speeches []SpeechGroup
}

// DecodeError indicates that a response body could not be parsed as the
// declared encoding.
type DecodeError struct {
	Encoding Encoding
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses one raw response body in the declared encoding into a Page,
// preserving the API's record order. It is a pure structural translation.
func Decode(body []byte, enc Encoding) (*Page, error) {
	switch enc {
	case EncodingXML:
		return decodeXML(body)
	case EncodingJSON, "":
		return decodeJSON(body)
	default:
		return nil, &DecodeError{Encoding: enc, Err: fmt.Errorf("unsupported encoding %q", enc)}
	}
}

// flexString tolerates the API's mixed typing: session and speechOrder come
// back as JSON numbers, absent fields as null.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type jsonSpeech struct {
	SpeechID        flexString `json:"speechID"`
	IssueID         flexString `json:"issueID"`
	Session         flexString `json:"session"`
	NameOfHouse     flexString `json:"nameOfHouse"`
	NameOfMeeting   flexString `json:"nameOfMeeting"`
	Issue           flexString `json:"issue"`
	Date            flexString `json:"date"`
	SpeechOrder     flexString `json:"speechOrder"`
	Speaker         flexString `json:"speaker"`
	SpeakerGroup    flexString `json:"speakerGroup"`
	SpeakerPosition flexString `json:"speakerPosition"`
	SpeakerRole     flexString `json:"speakerRole"`
	Speech          flexString `json:"speech"`
	SpeechURL       flexString `json:"speechURL"`
}

type jsonPage struct {
	NumberOfRecords    json.Number     `json:"numberOfRecords"`
	NumberOfReturn     json.Number     `json:"numberOfReturn"`
	StartRecord        json.Number     `json:"startRecord"`
	NextRecordPosition json.Number     `json:"nextRecordPosition"`
	SpeechRecord       json.RawMessage `json:"speechRecord"`
}

func decodeJSON(body []byte) (*Page, error) {
	var raw jsonPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Encoding: EncodingJSON, Err: err}
	}

	var speeches []jsonSpeech
	if len(raw.SpeechRecord) > 0 && !bytes.Equal(raw.SpeechRecord, []byte("null")) {
		// The API returns a bare object instead of a one-element array when
		// a page holds a single record.
		if err := json.Unmarshal(raw.SpeechRecord, &speeches); err != nil {
			var single jsonSpeech
			if err := json.Unmarshal(raw.SpeechRecord, &single); err != nil {
				return nil, &DecodeError{Encoding: EncodingJSON, Err: err}
			}
			speeches = []jsonSpeech{single}
		}
	}

	page := &Page{
		Total:        jsonInt(raw.NumberOfRecords),
		Returned:     jsonInt(raw.NumberOfReturn),
		StartRecord:  jsonInt(raw.StartRecord),
		NextPosition: jsonInt(raw.NextRecordPosition),
		Speeches:     make([]SpeechGroup, 0, len(speeches)),
	}
	for _, s := range speeches {
		page.Speeches = append(page.Speeches, SpeechGroup{
			SpeechID:        string(s.SpeechID),
			IssueID:         string(s.IssueID),
			Session:         string(s.Session),
			NameOfHouse:     string(s.NameOfHouse),
			NameOfMeeting:   string(s.NameOfMeeting),
			Issue:           string(s.Issue),
			Date:            string(s.Date),
			SpeechOrder:     string(s.SpeechOrder),
			Speaker:         string(s.Speaker),
			SpeakerGroup:    string(s.SpeakerGroup),
			SpeakerPosition: string(s.SpeakerPosition),
			SpeakerRole:     string(s.SpeakerRole),
			Speech:          string(s.Speech),
			SpeechURL:       string(s.SpeechURL),
		})
	}
	if page.Returned == 0 {
		page.Returned = len(page.Speeches)
	}
	return page, nil
}

func jsonInt(n json.Number) int {
	v, err := n.Int64()
	if err != nil {
		return 0
	}
	return int(v)
}

type xmlSpeech struct {
	SpeechID        string `xml:"speechID"`
	IssueID         string `xml:"issueID"`
	Session         string `xml:"session"`
	NameOfHouse     string `xml:"nameOfHouse"`
	NameOfMeeting   string `xml:"nameOfMeeting"`
	Issue           string `xml:"issue"`
	Date            string `xml:"date"`
	SpeechOrder     string `xml:"speechOrder"`
	Speaker         string `xml:"speaker"`
	SpeakerGroup    string `xml:"speakerGroup"`
	SpeakerPosition string `xml:"speakerPosition"`
	SpeakerRole     string `xml:"speakerRole"`
	Speech          string `xml:"speech"`
	SpeechURL       string `xml:"speechURL"`
}

// xmlPage mirrors the tree encoding: each record wraps its speech data in a
// records/record/recordData nesting.
type xmlPage struct {
	XMLName            xml.Name    `xml:"data"`
	NumberOfRecords    int         `xml:"numberOfRecords"`
	NumberOfReturn     int         `xml:"numberOfReturn"`
	StartRecord        int         `xml:"startRecord"`
	NextRecordPosition int         `xml:"nextRecordPosition"`
	Speeches           []xmlSpeech `xml:"records>record>recordData>speechRecord"`
}

func decodeXML(body []byte) (*Page, error) {
	var raw xmlPage
	if err := xml.Unmarshal(body, &raw); err != nil {
		return nil, &DecodeError{Encoding: EncodingXML, Err: err}
	}

	page := &Page{
		Total:        raw.NumberOfRecords,
		Returned:     raw.NumberOfReturn,
		StartRecord:  raw.StartRecord,
		NextPosition: raw.NextRecordPosition,
		Speeches:     make([]SpeechGroup, 0, len(raw.Speeches)),
	}
	for _, s := range raw.Speeches {
		page.Speeches = append(page.Speeches, SpeechGroup(s))
	}
	if page.Returned == 0 {
		page.Returned = len(page.Speeches)
	}
	return page, nil
}
