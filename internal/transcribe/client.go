// Package transcribe produces transcripts of recorded sessions via a
// hosted speech-to-text API. Failures are soft: a recording without a
// transcript is still a recording.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/harborhealth/harbor-backend/internal/config"
)

const modelID = "scribe_v2"

// minimum plausible audio size; smaller bodies are almost certainly an
// error page rather than audio.
const minAudioBytes = 1000

// Client calls the speech-to-text API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	log     *logrus.Logger
}

// New creates a transcription client. A missing API key disables
// transcription rather than failing.
func New(cfg config.TranscribeConfig, log *logrus.Logger) *Client {
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
		log:     log,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Transcribe downloads the audio at audioURL and submits it for
// transcription. An unconfigured client returns an empty transcript with
// no error.
func (c *Client) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if !c.Configured() {
		c.log.Warn("transcription api key not configured, skipping transcription")
		return "", nil
	}

	audio, contentType, err := c.fetchAudio(ctx, audioURL)
	if err != nil {
		return "", err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("model_id", modelID); err != nil {
		return "", err
	}
	part, err := writer.CreateFormFile("file", guessFilename(audioURL, contentType))
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/speech-to-text", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech-to-text request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("speech-to-text failed (%d): %s", resp.StatusCode, string(msg))
	}

	var result sttResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode speech-to-text response: %w", err)
	}

	transcript := extractTranscript(&result)
	if transcript == "" {
		c.log.Warn("speech-to-text returned no usable transcript")
	}
	return transcript, nil
}

func (c *Client) fetchAudio(ctx context.Context, audioURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return nil, "", err
	}
	// Some hosts return an HTML interstitial to non-browser agents.
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch audio: unexpected status %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") {
		return nil, "", fmt.Errorf("audio url returned HTML (content-type %s); host likely requires auth", contentType)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read audio body: %w", err)
	}
	if len(audio) < minAudioBytes {
		return nil, "", fmt.Errorf("audio body is suspiciously small (%d bytes)", len(audio))
	}
	return audio, contentType, nil
}

type sttResponse struct {
	Text        string `json:"text"`
	Transcripts []struct {
		Text string `json:"text"`
	} `json:"transcripts"`
	Words []struct {
		Text string `json:"text"`
	} `json:"words"`
}

var punctSpacing = regexp.MustCompile(`\s+([,.!?;:])`)

// extractTranscript pulls the best transcript out of an API response:
// the text field when present, then multichannel transcripts joined, then
// the word stream joined with punctuation spacing fixed up.
func extractTranscript(resp *sttResponse) string {
	if text := strings.TrimSpace(resp.Text); text != "" {
		return text
	}

	if len(resp.Transcripts) > 0 {
		parts := make([]string, 0, len(resp.Transcripts))
		for _, tr := range resp.Transcripts {
			if tr.Text != "" {
				parts = append(parts, tr.Text)
			}
		}
		if combined := strings.TrimSpace(strings.Join(parts, "\n")); combined != "" {
			return combined
		}
	}

	if len(resp.Words) > 0 {
		words := make([]string, 0, len(resp.Words))
		for _, w := range resp.Words {
			if w.Text != "" {
				words = append(words, w.Text)
			}
		}
		joined := strings.Join(words, " ")
		return strings.TrimSpace(punctSpacing.ReplaceAllString(joined, "$1"))
	}

	return ""
}

// guessFilename derives an upload filename from the source URL and
// content type.
func guessFilename(rawURL, contentType string) string {
	base := rawURL
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if base == "" {
		base = "audio"
	}
	if strings.Contains(base, ".") {
		return base
	}

	switch {
	case strings.Contains(contentType, "wav"):
		return base + ".wav"
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return base + ".mp3"
	case strings.Contains(contentType, "mp4"):
		return base + ".mp4"
	case strings.Contains(contentType, "webm"):
		return base + ".webm"
	}
	return base + ".bin"
}
