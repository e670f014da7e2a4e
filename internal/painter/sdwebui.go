// Package painter provides the image backends behind the drawing slot.
package painter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// txt2imgResponse is the part of the /sdapi/v1/txt2img response we use.
type txt2imgResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
	Error  string   `json:"error,omitempty"`
}

// SDWebUI talks to an AUTOMATIC1111 Stable Diffusion web UI.
type SDWebUI struct {
	baseURL  string
	username string
	password string
	client   *http.Client
}

// NewSDWebUI creates a client for the web UI at baseURL. A zero timeout
// waits indefinitely.
func NewSDWebUI(baseURL, username, password string, timeout time.Duration) *SDWebUI {
	return &SDWebUI{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

// SetOptions posts options to /sdapi/v1/options.
func (s *SDWebUI) SetOptions(ctx context.Context, options map[string]any) error {
	if options == nil {
		options = map[string]any{}
	}
	_, err := s.post(ctx, "/sdapi/v1/options", options)
	return err
}

// Txt2Img posts params to /sdapi/v1/txt2img and returns the first image.
func (s *SDWebUI) Txt2Img(ctx context.Context, params map[string]any) ([]byte, error) {
	body, err := s.post(ctx, "/sdapi/v1/txt2img", params)
	if err != nil {
		return nil, err
	}

	var resp txt2imgResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal txt2img response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("txt2img: %s", resp.Error)
	}
	if len(resp.Images) == 0 {
		return nil, fmt.Errorf("no images generated")
	}

	img := resp.Images[0]
	// Some builds return a data URL.
	if _, data, ok := strings.Cut(img, ";base64,"); ok {
		img = data
	}
	png, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return png, nil
}

func (s *SDWebUI) post(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.username != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("post %s: unexpected status %d: %s", path, resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
