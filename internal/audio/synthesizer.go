package audio

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"ieltsreader/internal/config"
)

const (
	ttsRequestTimeout = 10 * time.Second
	maxAudioBytes     = 2 << 20

	translateTTSURL = "https://translate.google.com/translate_tts"
	cloudTTSURL     = "https://texttospeech.googleapis.com/v1/text:synthesize"
	cloudScope      = "https://www.googleapis.com/auth/cloud-platform"
)

// NewSynthesizer picks Google Cloud TTS with application default
// credentials when cfg.CloudTTS is set, else the keyless translate endpoint
func NewSynthesizer(ctx context.Context, cfg config.AudioConfig) (Synthesizer, error) {
	if !cfg.CloudTTS {
		return NewTranslateTTS(&http.Client{Timeout: ttsRequestTimeout}), nil
	}

	ts, err := google.DefaultTokenSource(ctx, cloudScope)
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}
	return NewCloudTTS(ts), nil
}

// TranslateTTS uses Google Translate's text-to-speech endpoint.
// It needs no credentials.
type TranslateTTS struct {
	client  *http.Client
	baseURL string
}

func NewTranslateTTS(client *http.Client) *TranslateTTS {
	return &TranslateTTS{client: client, baseURL: translateTTSURL}
}

func (t *TranslateTTS) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", languageOf(voice))
	params.Set("client", "tw-ob")
	params.Set("textlen", fmt.Sprintf("%d", len(text)))

	ctx, cancel := context.WithTimeout(ctx, ttsRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// required by the endpoint
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
}

// CloudTTS calls the Cloud Text-to-Speech REST API with OAuth2 bearer tokens
type CloudTTS struct {
	client   *http.Client
	endpoint string
}

func NewCloudTTS(ts oauth2.TokenSource) *CloudTTS {
	client := oauth2.NewClient(context.Background(), ts)
	client.Timeout = ttsRequestTimeout
	return &CloudTTS{client: client, endpoint: cloudTTSURL}
}

type cloudTTSRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

func (c *CloudTTS) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	var reqBody cloudTTSRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = voice
	reqBody.AudioConfig.AudioEncoding = "MP3"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("TTS API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return base64.StdEncoding.DecodeString(result.AudioContent)
}

// languageOf maps a voice like "en-GB" to the translate endpoint's "en"
func languageOf(voice string) string {
	lang, _, _ := strings.Cut(voice, "-")
	if lang == "" {
		return "en"
	}
	return strings.ToLower(lang)
}
