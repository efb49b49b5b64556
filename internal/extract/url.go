package extract

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/starford/munin/internal/models"
)

const (
	maxFetchBytes = 20 << 20 // 20 MB cap on fetched resources
	// Article text shorter than this is treated as low-confidence and the
	// readability-style title fallback kicks in.
	lowConfidenceChars = 140
)

// fromURL fetches the resource and extracts article text. Network failures
// become a single warning: the item is still filed, as a link, with the
// origin reference intact.
func (e *Extractor) fromURL(ctx context.Context, rawURL string) models.ExtractedContent {
	ec := models.ExtractedContent{SourceKind: models.KindURL, Origin: rawURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		warnf(&ec, "url: invalid request for %s: %v", rawURL, err)
		return ec
	}
	req.Header.Set("User-Agent", "Munin/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		warnf(&ec, "url: fetch %s: %v", rawURL, err)
		return ec
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		warnf(&ec, "url: fetch %s: %s", rawURL, resp.Status)
		return ec
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		warnf(&ec, "url: read body of %s: %v", rawURL, err)
		return ec
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType, body) {
		// Non-HTML resource (e.g. a PDF served over HTTP): keep the bytes
		// as an attachment and proceed as the file case.
		att := attachmentFor(nameFromURL(rawURL), body)
		ec.Attachment = att
		if att.Ext == ".pdf" {
			text, pdfErr := pdfText(body)
			if pdfErr != nil {
				warnf(&ec, "url: pdf text from %s: %v", rawURL, pdfErr)
			}
			ec.Text = text
		}
		return ec
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		warnf(&ec, "url: parse html from %s: %v", rawURL, err)
		return ec
	}

	text := articleText(doc)
	if len(text) < lowConfidenceChars {
		// Readability-style fallback: og:title, then <title>.
		if title := pageTitle(doc); title != "" && len(title) > len(text) {
			text = title
		}
	}
	if text == "" {
		warnf(&ec, "url: no article text extracted from %s", rawURL)
	} else {
		e.log.Debug("url extracted", slog.String("url", rawURL), slog.Int("chars", len(text)))
	}
	ec.Text = text
	return ec
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "text/html") || strings.Contains(contentType, "application/xhtml") {
		return true
	}
	if contentType != "" {
		return false
	}
	return strings.Contains(http.DetectContentType(body), "text/html")
}

// articleText performs boilerplate removal: chrome elements are dropped,
// then the first semantic container that yields substantial text wins,
// else the whole body is flattened.
func articleText(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside, noscript, form, iframe").Remove()

	for _, sel := range []string{"article", "main", "[role=main]", "#content", ".post-content"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if t := flattenText(s); len(t) >= lowConfidenceChars {
				return t
			}
		}
	}
	return flattenText(doc.Find("body"))
}

// flattenText collects heading, paragraph, and list-item text in document
// order, one block per line.
func flattenText(s *goquery.Selection) string {
	var blocks []string
	s.Find("h1, h2, h3, p, li, blockquote, pre").Each(func(_ int, node *goquery.Selection) {
		if t := collapseSpace(node.Text()); t != "" {
			blocks = append(blocks, t)
		}
	})
	if len(blocks) == 0 {
		if t := collapseSpace(s.Text()); t != "" {
			blocks = append(blocks, t)
		}
	}
	return strings.Join(blocks, "\n\n")
}

func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := collapseSpace(og); t != "" {
			return t
		}
	}
	return collapseSpace(doc.Find("title").First().Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}
