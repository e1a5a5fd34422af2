package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"ieltsreader/internal/models"
)

const maxArticleBytes = 10 * 1024 * 1024

// minParagraphWords drops captions, bylines and other short fragments
// that readability keeps as separate lines.
const minParagraphWords = 6

// FetchArticle downloads rawURL and extracts its main article as an
// imported passage. The passage has no id yet.
func FetchArticle(ctx context.Context, client *http.Client, rawURL string) (models.Passage, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return models.Passage{}, fmt.Errorf("invalid article url %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.Passage{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ieltsreader-importer/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return models.Passage{}, fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Passage{}, fmt.Errorf("fetch article: unexpected status %d", resp.StatusCode)
	}
	if resp.ContentLength > maxArticleBytes {
		return models.Passage{}, fmt.Errorf("fetch article: body of %d bytes exceeds %d", resp.ContentLength, maxArticleBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArticleBytes+1))
	if err != nil {
		return models.Passage{}, fmt.Errorf("read article: %w", err)
	}
	if len(body) > maxArticleBytes {
		return models.Passage{}, fmt.Errorf("fetch article: body exceeds %d bytes", maxArticleBytes)
	}

	return ArticleFromHTML(bytes.NewReader(body), parsed)
}

// ArticleFromHTML runs readability over an HTML document and turns the
// extracted text into passage paragraphs
func ArticleFromHTML(r io.Reader, pageURL *url.URL) (models.Passage, error) {
	article, err := readability.FromReader(r, pageURL)
	if err != nil {
		return models.Passage{}, fmt.Errorf("extract article: %w", err)
	}

	paragraphs := SplitParagraphs(article.TextContent)
	if len(paragraphs) == 0 {
		return models.Passage{}, fmt.Errorf("extract article: no readable paragraphs")
	}

	p := models.Passage{
		Title:      strings.TrimSpace(article.Title),
		Paragraphs: paragraphs,
		Source:     models.PassageSourceImported,
	}
	if pageURL != nil {
		p.SourceURL = pageURL.String()
	}
	return p, nil
}

// SplitParagraphs breaks extracted article text on line boundaries,
// collapses inner whitespace and drops fragments too short to read as
// prose
func SplitParagraphs(text string) []string {
	var paragraphs []string
	for _, line := range strings.Split(text, "\n") {
		words := strings.Fields(line)
		if len(words) < minParagraphWords {
			continue
		}
		paragraphs = append(paragraphs, strings.Join(words, " "))
	}
	return paragraphs
}
