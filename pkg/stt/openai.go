package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTranscriptionURL is the OpenAI audio transcription endpoint.
const DefaultTranscriptionURL = "https://api.openai.com/v1/audio/transcriptions"

// OpenAI sends audio to an OpenAI-compatible transcription endpoint and asks
// for verbose JSON so segment timings are preserved.
type OpenAI struct {
	url         string
	apiKey      string
	model       string
	maxFileSize int64
	httpClient  *http.Client
}

// NewOpenAI creates an OpenAI transcription backend. maxFileSize <= 0 disables
// the local size check.
func NewOpenAI(url, apiKey, model string, maxFileSize int64, timeout time.Duration) *OpenAI {
	if url == "" {
		url = DefaultTranscriptionURL
	}
	if model == "" {
		model = "whisper-1"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &OpenAI{
		url:         url,
		apiKey:      apiKey,
		model:       model,
		maxFileSize: maxFileSize,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type verboseResponse struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Transcribe implements Recognizer.
func (o *OpenAI) Transcribe(ctx context.Context, wavPath string) ([]Segment, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if o.maxFileSize > 0 {
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		if info.Size() > o.maxFileSize {
			return nil, fmt.Errorf("audio is %d bytes, transcription api accepts at most %d", info.Size(), o.maxFileSize)
		}
	}

	// Stream the multipart body so large files are never held in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(mw, f, o.model))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, pr)
	if err != nil {
		pr.Close()
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("transcription api %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var out verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding transcription response: %w", err)
	}
	if len(out.Segments) == 0 && strings.TrimSpace(out.Text) != "" {
		return []Segment{{Text: out.Text}}, nil
	}
	return out.Segments, nil
}

func writeForm(mw *multipart.Writer, f *os.File, model string) error {
	if err := mw.WriteField("model", model); err != nil {
		return err
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return err
	}
	fw, err := mw.CreateFormFile("file", filepath.Base(f.Name()))
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, f); err != nil {
		return err
	}
	return mw.Close()
}
