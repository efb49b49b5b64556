package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/munin/internal/journal"
	"github.com/starford/munin/internal/models"
	"github.com/starford/munin/internal/testutil"
)

func captureBody(t *testing.T, payload, kind string) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(CaptureRequest{Payload: payload, Kind: kind})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(b)
}

func TestCaptureEndpoint(t *testing.T) {
	jrnl := testutil.TestJournal(t)
	_, pipe := testutil.TestPipeline(t, jrnl)
	router := NewRouter(pipe, jrnl, false, "")

	req := httptest.NewRequest(http.MethodPost, "/capture", captureBody(t, "Идея: проверить API", ""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res models.WriteResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(res.NotePath, "/Ideas/") {
		t.Errorf("note path = %q", res.NotePath)
	}
}

func TestCaptureBadRequests(t *testing.T) {
	jrnl := testutil.TestJournal(t)
	_, pipe := testutil.TestPipeline(t, jrnl)
	router := NewRouter(pipe, jrnl, false, "")

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "{nope"},
		{"empty payload", `{"payload": ""}`},
		{"unknown kind", `{"payload": "x", "kind": "carrier-pigeon"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/capture", strings.NewReader(c.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCaptureRequiresAuthWhenEnabled(t *testing.T) {
	jrnl := testutil.TestJournal(t)
	_, pipe := testutil.TestPipeline(t, jrnl)
	router := NewRouter(pipe, jrnl, true, "secret")

	req := httptest.NewRequest(http.MethodPost, "/capture", captureBody(t, "x", ""))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/capture", captureBody(t, "x", ""))
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/capture", captureBody(t, "x", ""))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("valid token: status = %d, want 201", rec.Code)
	}
}

func TestJournalEndpoint(t *testing.T) {
	jrnl := testutil.TestJournal(t)
	_, pipe := testutil.TestPipeline(t, jrnl)
	router := NewRouter(pipe, jrnl, false, "")

	for _, payload := range []string{"first note", "second note"} {
		req := httptest.NewRequest(http.MethodPost, "/capture", captureBody(t, payload, ""))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("capture status = %d", rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/journal?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Captures []journal.Record `json:"captures"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Captures) != 2 {
		t.Errorf("captures = %d, want 2", len(body.Captures))
	}
}

func TestJournalEndpointWithoutJournal(t *testing.T) {
	_, pipe := testutil.TestPipeline(t, nil)
	router := NewRouter(pipe, nil, false, "")

	req := httptest.NewRequest(http.MethodGet, "/journal", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"captures":[]`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
