package api

import (
	"errors"
	"testing"
)

const jsonPageBody = `{
	"numberOfRecords": 250,
	"numberOfReturn": 2,
	"startRecord": 1,
	"nextRecordPosition": 3,
	"speechRecord": [
		{
			"speechID": "121505261X00920230315_000",
			"issueID": "121505261X00920230315",
			"session": 211,
			"nameOfHouse": "参議院",
			"nameOfMeeting": "予算委員会",
			"issue": "第9号",
			"date": "2023-03-15",
			"speechOrder": 0,
			"speaker": "末松信介",
			"speakerGroup": null,
			"speakerPosition": "委員長",
			"speakerRole": "",
			"speech": "○委員長（末松信介君） ただいまから予算委員会を開会いたします。",
			"speechURL": "https://kokkai.ndl.go.jp/txt/121505261X00920230315/0"
		},
		{
			"speechID": "121505261X00920230315_001",
			"issueID": "121505261X00920230315",
			"session": 211,
			"nameOfHouse": "参議院",
			"nameOfMeeting": "予算委員会",
			"issue": "第9号",
			"date": "2023-03-15",
			"speechOrder": 1,
			"speaker": "山田太郎",
			"speakerGroup": "自由民主党",
			"speakerPosition": "",
			"speakerRole": "",
			"speech": "所得控除についてお尋ねします。",
			"speechURL": "https://kokkai.ndl.go.jp/txt/121505261X00920230315/1"
		}
	]
}`

const xmlPageBody = `<?xml version="1.0" encoding="UTF-8"?>
<data>
	<numberOfRecords>250</numberOfRecords>
	<numberOfReturn>2</numberOfReturn>
	<startRecord>1</startRecord>
	<nextRecordPosition>3</nextRecordPosition>
	<records>
		<record>
			<recordData>
				<speechRecord>
					<speechID>121505261X00920230315_000</speechID>
					<issueID>121505261X00920230315</issueID>
					<session>211</session>
					<nameOfHouse>参議院</nameOfHouse>
					<nameOfMeeting>予算委員会</nameOfMeeting>
					<issue>第9号</issue>
					<date>2023-03-15</date>
					<speechOrder>0</speechOrder>
					<speaker>末松信介</speaker>
					<speakerGroup></speakerGroup>
					<speakerPosition>委員長</speakerPosition>
					<speakerRole></speakerRole>
					<speech>○委員長（末松信介君） ただいまから予算委員会を開会いたします。</speech>
					<speechURL>https://kokkai.ndl.go.jp/txt/121505261X00920230315/0</speechURL>
				</speechRecord>
			</recordData>
		</record>
		<record>
			<recordData>
				<speechRecord>
					<speechID>121505261X00920230315_001</speechID>
					<issueID>121505261X00920230315</issueID>
					<session>211</session>
					<nameOfHouse>参議院</nameOfHouse>
					<nameOfMeeting>予算委員会</nameOfMeeting>
					<issue>第9号</issue>
					<date>2023-03-15</date>
					<speechOrder>1</speechOrder>
					<speaker>山田太郎</speaker>
					<speakerGroup>自由民主党</speakerGroup>
					<speakerPosition></speakerPosition>
					<speakerRole></speakerRole>
					<speech>所得控除についてお尋ねします。</speech>
					<speechURL>https://kokkai.ndl.go.jp/txt/121505261X00920230315/1</speechURL>
				</speechRecord>
			</recordData>
		</record>
	</records>
</data>`

func TestDecode_JSON(t *testing.T) {
	page, err := Decode([]byte(jsonPageBody), EncodingJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if page.Total != 250 {
		t.Errorf("Total = %d, want 250", page.Total)
	}
	if page.Returned != 2 {
		t.Errorf("Returned = %d, want 2", page.Returned)
	}
	if page.StartRecord != 1 {
		t.Errorf("StartRecord = %d, want 1", page.StartRecord)
	}
	if page.NextPosition != 3 {
		t.Errorf("NextPosition = %d, want 3", page.NextPosition)
	}
	if len(page.Speeches) != 2 {
		t.Fatalf("len(Speeches) = %d, want 2", len(page.Speeches))
	}

	first := page.Speeches[0]
	if first.Session != "211" {
		t.Errorf("Session = %q, want numeric session rendered as string", first.Session)
	}
	if first.SpeechOrder != "0" {
		t.Errorf("SpeechOrder = %q, want \"0\"", first.SpeechOrder)
	}
	if first.SpeakerGroup != "" {
		t.Errorf("SpeakerGroup = %q, want empty string for null", first.SpeakerGroup)
	}
	if first.Speaker != "末松信介" {
		t.Errorf("Speaker = %q, want 末松信介", first.Speaker)
	}
	if page.Speeches[1].SpeakerGroup != "自由民主党" {
		t.Errorf("SpeakerGroup = %q, want 自由民主党", page.Speeches[1].SpeakerGroup)
	}
}

func TestDecode_JSONSingleRecordObject(t *testing.T) {
	// one-record pages come back as a bare object, not a one-element array
	body := `{
		"numberOfRecords": 1,
		"numberOfReturn": 1,
		"startRecord": 1,
		"speechRecord": {"speechID": "A_000", "issueID": "A", "speechOrder": 5, "speaker": "議員"}
	}`

	page, err := Decode([]byte(body), EncodingJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(page.Speeches) != 1 {
		t.Fatalf("len(Speeches) = %d, want 1", len(page.Speeches))
	}
	if page.NextPosition != 0 {
		t.Errorf("NextPosition = %d, want 0 when absent", page.NextPosition)
	}
	if page.Speeches[0].SpeechOrder != "5" {
		t.Errorf("SpeechOrder = %q, want \"5\"", page.Speeches[0].SpeechOrder)
	}
}

func TestDecode_JSONEmptyResult(t *testing.T) {
	body := `{"numberOfRecords": 0, "numberOfReturn": 0, "startRecord": 1}`

	page, err := Decode([]byte(body), EncodingJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if page.Total != 0 {
		t.Errorf("Total = %d, want 0", page.Total)
	}
	if len(page.Speeches) != 0 {
		t.Errorf("len(Speeches) = %d, want 0", len(page.Speeches))
	}
}

func TestDecode_XML(t *testing.T) {
	page, err := Decode([]byte(xmlPageBody), EncodingXML)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if page.Total != 250 {
		t.Errorf("Total = %d, want 250", page.Total)
	}
	if page.NextPosition != 3 {
		t.Errorf("NextPosition = %d, want 3", page.NextPosition)
	}
	if len(page.Speeches) != 2 {
		t.Fatalf("len(Speeches) = %d, want 2", len(page.Speeches))
	}
	if page.Speeches[1].Speaker != "山田太郎" {
		t.Errorf("Speaker = %q, want 山田太郎", page.Speeches[1].Speaker)
	}
}

func TestDecode_EncodingInvariance(t *testing.T) {
	// the same logical page must decode to field-for-field identical groups
	// regardless of wire encoding
	jsonPage, err := Decode([]byte(jsonPageBody), EncodingJSON)
	if err != nil {
		t.Fatalf("Decode(json) error = %v", err)
	}
	xmlPage, err := Decode([]byte(xmlPageBody), EncodingXML)
	if err != nil {
		t.Fatalf("Decode(xml) error = %v", err)
	}

	if len(jsonPage.Speeches) != len(xmlPage.Speeches) {
		t.Fatalf("speech counts differ: json %d, xml %d", len(jsonPage.Speeches), len(xmlPage.Speeches))
	}
	for i := range jsonPage.Speeches {
		if jsonPage.Speeches[i] != xmlPage.Speeches[i] {
			t.Errorf("speech %d differs:\njson: %+v\nxml:  %+v", i, jsonPage.Speeches[i], xmlPage.Speeches[i])
		}
	}
	if jsonPage.Total != xmlPage.Total || jsonPage.NextPosition != xmlPage.NextPosition {
		t.Errorf("page metadata differs: json %+v, xml %+v", jsonPage, xmlPage)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		encoding Encoding
	}{
		{
			name:     "truncated json",
			body:     `{"numberOfRecords": 250, "speechRecord": [{"speechID": "A`,
			encoding: EncodingJSON,
		},
		{
			name:     "html error page as json",
			body:     `<html><body>Service Unavailable</body></html>`,
			encoding: EncodingJSON,
		},
		{
			name:     "truncated xml",
			body:     `<?xml version="1.0"?><data><numberOfRecords>250`,
			encoding: EncodingXML,
		},
		{
			name:     "json body declared as xml",
			body:     `{"numberOfRecords": 0}`,
			encoding: EncodingXML,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.body), tt.encoding)
			if err == nil {
				t.Fatal("Decode() = nil, want DecodeError")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("Decode() error = %T, want *DecodeError", err)
			}
			if decodeErr.Encoding != tt.encoding {
				t.Errorf("DecodeError.Encoding = %q, want %q", decodeErr.Encoding, tt.encoding)
			}
			if decodeErr.Unwrap() == nil {
				t.Error("DecodeError.Unwrap() = nil, want cause")
			}
		})
	}
}

func TestDecode_UnsupportedEncoding(t *testing.T) {
	_, err := Decode([]byte(`{}`), "csv")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Decode() error = %v, want *DecodeError", err)
	}
}

func TestDecode_ReturnedFallsBackToSpeechCount(t *testing.T) {
	body := `{
		"numberOfRecords": 1,
		"startRecord": 1,
		"speechRecord": [{"speechID": "A_000"}]
	}`

	page, err := Decode([]byte(body), EncodingJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if page.Returned != 1 {
		t.Errorf("Returned = %d, want fallback to len(Speeches)", page.Returned)
	}
}
