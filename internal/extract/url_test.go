package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/starford/munin/internal/models"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Page Title</title></head>
<body>
<nav>Home | About | Contact</nav>
<article>
<h1>Understanding Channels</h1>
<p>Channels are typed conduits through which goroutines communicate. They
carry values between concurrent parts of a program and synchronize them
at the same time, which keeps shared state to a minimum.</p>
<p>Unbuffered channels block the sender until a receiver is ready.</p>
</article>
<footer>Copyright 2026</footer>
</body></html>`

func TestFromURLExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	e := testExtractor()
	ec := e.Extract(context.Background(), models.RawItem{Kind: models.KindURL, Payload: srv.URL + "/post"})

	if ec.Origin != srv.URL+"/post" {
		t.Errorf("origin = %q", ec.Origin)
	}
	if !strings.Contains(ec.Text, "Understanding Channels") {
		t.Errorf("heading missing from text:\n%s", ec.Text)
	}
	if !strings.Contains(ec.Text, "typed conduits") {
		t.Errorf("paragraph missing from text:\n%s", ec.Text)
	}
	if strings.Contains(ec.Text, "Home | About") || strings.Contains(ec.Text, "Copyright") {
		t.Errorf("chrome not removed:\n%s", ec.Text)
	}
	if len(ec.Warnings) != 0 {
		t.Errorf("warnings = %v", ec.Warnings)
	}
}

func TestFromURLTitleFallbackOnThinPage(t *testing.T) {
	thin := `<html><head><meta property="og:title" content="OG Wins"><title>Plain Title</title></head>
<body><p>hi</p></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(thin))
	}))
	defer srv.Close()

	e := testExtractor()
	ec := e.Extract(context.Background(), models.RawItem{Kind: models.KindURL, Payload: srv.URL})

	if ec.Text != "OG Wins" {
		t.Errorf("text = %q, want og:title fallback", ec.Text)
	}
}

func TestFromURLFetchFailure(t *testing.T) {
	e := testExtractor()
	dead := "http://127.0.0.1:1/article"
	ec := e.Extract(context.Background(), models.RawItem{Kind: models.KindURL, Payload: dead})

	if ec.Text != "" {
		t.Errorf("text = %q, want empty", ec.Text)
	}
	if ec.Origin != dead {
		t.Errorf("origin = %q", ec.Origin)
	}
	if len(ec.Warnings) == 0 {
		t.Error("expected a fetch warning")
	}
}

func TestFromURLNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	e := testExtractor()
	ec := e.Extract(context.Background(), models.RawItem{Kind: models.KindURL, Payload: srv.URL})

	if ec.Text != "" || len(ec.Warnings) == 0 {
		t.Errorf("text = %q, warnings = %v", ec.Text, ec.Warnings)
	}
}

func TestFromURLNonHTMLBecomesAttachment(t *testing.T) {
	payload := []byte("\x89PNG\r\n\x1a\n image bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	e := testExtractor()
	ec := e.Extract(context.Background(), models.RawItem{Kind: models.KindURL, Payload: srv.URL + "/diagram.png"})

	if ec.Attachment == nil {
		t.Fatal("expected attachment")
	}
	if ec.Attachment.Ext != ".png" {
		t.Errorf("ext = %q", ec.Attachment.Ext)
	}
	if string(ec.Attachment.Data) != string(payload) {
		t.Error("attachment bytes altered")
	}
}
