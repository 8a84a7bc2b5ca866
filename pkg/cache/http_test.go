package cache

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"
)

func TestResponseToEntry(t *testing.T) {
	tests := []struct {
		name    string
		resp    *http.Response
		wantErr bool
	}{
		{
			name: "page with validators",
			resp: &http.Response{
				StatusCode: 200,
				Header: http.Header{
					"Expires":       []string{time.Now().Add(1 * time.Hour).Format(http.TimeFormat)},
					"Last-Modified": []string{time.Now().Add(-1 * time.Hour).Format(http.TimeFormat)},
					"Etag":          []string{`"page-1"`},
					"Content-Type":  []string{"application/json"},
				},
				Body: io.NopCloser(bytes.NewReader([]byte(`{"results": [], "count": 0}`))),
			},
		},
		{
			name: "page without expiry",
			resp: &http.Response{
				StatusCode: 200,
				Header:     http.Header{"Content-Type": []string{"application/json"}},
				Body:       io.NopCloser(bytes.NewReader([]byte(`{"results": [], "count": 0}`))),
			},
		},
		{
			name:    "nil response",
			resp:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ResponseToEntry(tt.resp)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResponseToEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			body, _ := io.ReadAll(tt.resp.Body)
			if len(body) == 0 {
				t.Error("Response body was not restored")
			}
			if entry.StatusCode != tt.resp.StatusCode {
				t.Errorf("StatusCode = %d, want %d", entry.StatusCode, tt.resp.StatusCode)
			}
			if entry.ETag != tt.resp.Header.Get("ETag") {
				t.Errorf("ETag = %q, want %q", entry.ETag, tt.resp.Header.Get("ETag"))
			}
			if entry.Expires.IsZero() {
				t.Error("Expires was not set")
			}
		})
	}
}

func TestParseExpires(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		headers http.Header
		want    time.Duration
	}{
		{
			name:    "expires header",
			headers: http.Header{"Expires": []string{now.Add(1 * time.Hour).Format(http.TimeFormat)}},
			want:    1 * time.Hour,
		},
		{
			name:    "no headers uses default",
			headers: http.Header{},
			want:    DefaultTTL,
		},
		{
			name:    "invalid expires uses default",
			headers: http.Header{"Expires": []string{"not a date"}},
			want:    DefaultTTL,
		},
		{
			name:    "past expires",
			headers: http.Header{"Expires": []string{now.Add(-1 * time.Hour).Format(http.TimeFormat)}},
			want:    0,
		},
		{
			name:    "max-age wins over expires",
			headers: http.Header{"Cache-Control": []string{"public, max-age=30"}, "Expires": []string{now.Add(1 * time.Hour).Format(http.TimeFormat)}},
			want:    30 * time.Second,
		},
		{
			name:    "no-store",
			headers: http.Header{"Cache-Control": []string{"no-store"}},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := time.Until(ParseExpires(tt.headers))
			diff := got - tt.want
			if diff < 0 {
				diff = -diff
			}
			if diff > 2*time.Second {
				t.Errorf("ParseExpires() TTL = %v, want about %v", got, tt.want)
			}
		})
	}
}

func TestEntryToResponse(t *testing.T) {
	entry := &Entry{
		Data:       []byte(`{"results": [{"id": 1}], "count": 1}`),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
	}

	resp := EntryToResponse(entry)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", resp.Header.Get("Content-Type"))
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(entry.Data) {
		t.Errorf("Body = %s, want %s", body, entry.Data)
	}

	resp.Header.Set("X-Test", "1")
	if entry.Headers.Get("X-Test") != "" {
		t.Error("EntryToResponse must not share headers with the entry")
	}
}

func TestConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name          string
		entry         *Entry
		wantCondition bool
		wantHeader    string
		wantValue     string
	}{
		{
			name:          "etag preferred",
			entry:         &Entry{ETag: `"abc"`, LastModified: lastMod},
			wantCondition: true,
			wantHeader:    "If-None-Match",
			wantValue:     `"abc"`,
		},
		{
			name:          "last modified only",
			entry:         &Entry{LastModified: lastMod},
			wantCondition: true,
			wantHeader:    "If-Modified-Since",
			wantValue:     lastMod.Format(http.TimeFormat),
		},
		{
			name:          "no validators",
			entry:         &Entry{},
			wantCondition: false,
		},
		{
			name:          "nil entry",
			entry:         nil,
			wantCondition: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.wantCondition {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.wantCondition)
			}

			req, _ := http.NewRequest(http.MethodGet, "http://example.com/v1/admissions/cohort", nil)
			AddConditionalHeaders(req, tt.entry)
			if tt.wantHeader != "" && req.Header.Get(tt.wantHeader) != tt.wantValue {
				t.Errorf("%s = %q, want %q", tt.wantHeader, req.Header.Get(tt.wantHeader), tt.wantValue)
			}
		})
	}
}
