// Package testutil provides testing utilities for the speech exporter.
package testutil

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// Speech is one synthetic speech record served by the mock API.
type Speech struct {
	SpeechID        string
	IssueID         string
	Session         int
	NameOfHouse     string
	NameOfMeeting   string
	Issue           string
	Date            string
	SpeechOrder     int
	Speaker         string
	SpeakerGroup    string
	SpeakerPosition string
	SpeakerRole     string
	Speech          string
	SpeechURL       string
}

// MockKokkai is a configurable mock proceedings-search server. It serves a
// synthetic speech dataset paged by startRecord/maximumRecords in either the
// JSON or XML encoding, selected per request via recordPacking.
type MockKokkai struct {
	server *httptest.Server
	mu     sync.Mutex

	speeches []Speech
	handler  http.HandlerFunc

	// failures maps a startRecord to the number of times requests for that
	// page should still fail with failStatus before succeeding.
	failures   map[int]int
	failStatus int

	// Tracking
	RequestCount int
	StartRecords []int
}

// NewMockKokkai creates a mock server holding total synthetic speeches,
// 25 per meeting.
func NewMockKokkai(total int) *MockKokkai {
	mock := &MockKokkai{
		speeches: GenerateSpeeches(total),
		failures: make(map[int]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.serve))
	return mock
}

// GenerateSpeeches builds a deterministic synthetic dataset.
func GenerateSpeeches(total int) []Speech {
	speeches := make([]Speech, 0, total)
	for i := 0; i < total; i++ {
		meeting := i / 25
		order := i % 25
		house := "衆議院"
		if meeting%2 == 1 {
			house = "参議院"
		}
		issueID := fmt.Sprintf("12105254X%03d20230315", meeting+1)
		speech := Speech{
			SpeechID:      fmt.Sprintf("%s_%03d", issueID, order),
			IssueID:       issueID,
			Session:       211,
			NameOfHouse:   house,
			NameOfMeeting: "予算委員会",
			Issue:         fmt.Sprintf("第%d号", meeting+1),
			Date:          "2023-03-15",
			SpeechOrder:   order,
			Speaker:       fmt.Sprintf("議員%d", i+1),
			SpeakerRole:   "",
			Speech:        fmt.Sprintf("○議員%d君 所得控除に関する発言その%d。", i+1, i+1),
			SpeechURL:     fmt.Sprintf("https://kokkai.ndl.go.jp/txt/%s/%d", issueID, order),
		}
		// leave group/position empty on some records to exercise fallbacks
		if i%3 != 0 {
			speech.SpeakerGroup = "無所属"
		}
		if order == 0 {
			speech.SpeakerPosition = "委員長"
		}
		speeches = append(speeches, speech)
	}
	return speeches
}

// URL returns the mock server URL.
func (m *MockKokkai) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockKokkai) Close() {
	m.server.Close()
}

// Reset clears all tracking counters and failure injections.
func (m *MockKokkai) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.StartRecords = nil
	m.failures = make(map[int]int)
	m.handler = nil
}

// FailAt makes requests for the page at the given startRecord fail with
// status, times in a row, before serving normally again.
func (m *MockKokkai) FailAt(startRecord, times, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[startRecord] = times
	m.failStatus = status
}

// SetHandler replaces the paging behavior entirely (for malformed-body and
// protocol-edge tests).
func (m *MockKokkai) SetHandler(handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockKokkai) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RequestCount
}

// GetStartRecords returns the startRecord value of every request, in order.
func (m *MockKokkai) GetStartRecords() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.StartRecords...)
}

func (m *MockKokkai) serve(w http.ResponseWriter, r *http.Request) {
	start, _ := strconv.Atoi(r.URL.Query().Get("startRecord"))
	if start < 1 {
		start = 1
	}
	max, _ := strconv.Atoi(r.URL.Query().Get("maximumRecords"))
	if max < 1 {
		max = 30
	}
	packing := r.URL.Query().Get("recordPacking")

	m.mu.Lock()
	m.RequestCount++
	m.StartRecords = append(m.StartRecords, start)
	handler := m.handler
	fail := false
	if remaining, ok := m.failures[start]; ok && remaining > 0 {
		m.failures[start] = remaining - 1
		fail = true
	}
	failStatus := m.failStatus
	m.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}

	if fail {
		w.WriteHeader(failStatus)
		fmt.Fprintf(w, `{"message": "induced failure"}`)
		return
	}

	total := len(m.speeches)
	end := start - 1 + max
	if end > total {
		end = total
	}
	var window []Speech
	if start-1 < total {
		window = m.speeches[start-1 : end]
	}
	next := start + len(window)
	if next > total {
		next = 0
	}

	if packing == "xml" {
		m.writeXML(w, total, start, next, window)
		return
	}
	m.writeJSON(w, total, start, next, window)
}

func (m *MockKokkai) writeJSON(w http.ResponseWriter, total, start, next int, window []Speech) {
	records := make([]map[string]any, 0, len(window))
	for _, s := range window {
		var group any
		if s.SpeakerGroup != "" {
			group = s.SpeakerGroup
		}
		records = append(records, map[string]any{
			"speechID":        s.SpeechID,
			"issueID":         s.IssueID,
			"session":         s.Session,
			"nameOfHouse":     s.NameOfHouse,
			"nameOfMeeting":   s.NameOfMeeting,
			"issue":           s.Issue,
			"date":            s.Date,
			"speechOrder":     s.SpeechOrder,
			"speaker":         s.Speaker,
			"speakerGroup":    group,
			"speakerPosition": s.SpeakerPosition,
			"speakerRole":     s.SpeakerRole,
			"speech":          s.Speech,
			"speechURL":       s.SpeechURL,
		})
	}

	body := map[string]any{
		"numberOfRecords": total,
		"numberOfReturn":  len(window),
		"startRecord":     start,
		"speechRecord":    records,
	}
	if next > 0 {
		body["nextRecordPosition"] = next
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

type xmlMockSpeech struct {
	SpeechID        string `xml:"speechID"`
	IssueID         string `xml:"issueID"`
	Session         int    `xml:"session"`
	NameOfHouse     string `xml:"nameOfHouse"`
	NameOfMeeting   string `xml:"nameOfMeeting"`
	Issue           string `xml:"issue"`
	Date            string `xml:"date"`
	SpeechOrder     int    `xml:"speechOrder"`
	Speaker         string `xml:"speaker"`
	SpeakerGroup    string `xml:"speakerGroup"`
	SpeakerPosition string `xml:"speakerPosition"`
	SpeakerRole     string `xml:"speakerRole"`
	Speech          string `xml:"speech"`
	SpeechURL       string `xml:"speechURL"`
}

type xmlMockRecord struct {
	Speech xmlMockSpeech `xml:"recordData>speechRecord"`
}

type xmlMockPage struct {
	XMLName            xml.Name        `xml:"data"`
	NumberOfRecords    int             `xml:"numberOfRecords"`
	NumberOfReturn     int             `xml:"numberOfReturn"`
	StartRecord        int             `xml:"startRecord"`
	NextRecordPosition int             `xml:"nextRecordPosition,omitempty"`
	Records            []xmlMockRecord `xml:"records>record"`
}

func (m *MockKokkai) writeXML(w http.ResponseWriter, total, start, next int, window []Speech) {
	page := xmlMockPage{
		NumberOfRecords:    total,
		NumberOfReturn:     len(window),
		StartRecord:        start,
		NextRecordPosition: next,
	}
	for _, s := range window {
		page.Records = append(page.Records, xmlMockRecord{Speech: xmlMockSpeech{
			SpeechID:        s.SpeechID,
			IssueID:         s.IssueID,
			Session:         s.Session,
			NameOfHouse:     s.NameOfHouse,
			NameOfMeeting:   s.NameOfMeeting,
			Issue:           s.Issue,
			Date:            s.Date,
			SpeechOrder:     s.SpeechOrder,
			Speaker:         s.Speaker,
			SpeakerGroup:    s.SpeakerGroup,
			SpeakerPosition: s.SpeakerPosition,
			SpeakerRole:     s.SpeakerRole,
			Speech:          s.Speech,
			SpeechURL:       s.SpeechURL,
		}})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, xml.Header)
	xml.NewEncoder(w).Encode(page)
}
