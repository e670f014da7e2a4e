package painter

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"strconv"
	"sync"

	"github.com/opd-ai/horde"
	"golang.org/x/image/webp"
)

// Horde renders through the AI Horde. Its calls are not cancellable: the
// horde client has no context support.
type Horde struct {
	client *horde.Client

	mu    sync.RWMutex
	model string
}

func NewHorde(apiKey string) *Horde {
	return &Horde{
		client: horde.NewClient(apiKey),
		model:  horde.DefaultModel,
	}
}

// SetOptions picks the horde model from sd_model_checkpoint. Other web UI
// options have no horde equivalent and are ignored.
func (h *Horde) SetOptions(_ context.Context, options map[string]any) error {
	name, ok := options["sd_model_checkpoint"].(string)
	if !ok || name == "" {
		return nil
	}
	h.mu.Lock()
	h.model = name
	h.mu.Unlock()
	return nil
}

// Model returns the horde model used for the next generation.
func (h *Horde) Model() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.model
}

func (h *Horde) Txt2Img(ctx context.Context, params map[string]any) ([]byte, error) {
	req := hordeRequest(params, h.Model())
	slog.Debug("horde generation", "model", req.Params.ModelName, "steps", req.Params.Steps)

	resp, err := h.client.RequestGeneration(req)
	if err != nil {
		return nil, fmt.Errorf("requesting generation: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status, err := h.client.WaitForCompletion(resp.ID)
	if err != nil {
		return nil, fmt.Errorf("waiting for completion: %w", err)
	}
	if len(status.Generation) == 0 {
		return nil, fmt.Errorf("no images generated")
	}

	data, err := h.client.DownloadImage(status.Generation[0].Image)
	if err != nil {
		return nil, fmt.Errorf("downloading image: %w", err)
	}
	return toPNG(data)
}

// hordeRequest maps web UI txt2img params onto a horde request.
func hordeRequest(params map[string]any, model string) horde.GenerationRequest {
	prompt, _ := params["prompt"].(string)
	if neg, _ := params["negative_prompt"].(string); neg != "" {
		// Horde takes the negative prompt after a ### separator.
		prompt += " ### " + neg
	}
	return horde.GenerationRequest{
		Prompt: prompt,
		Params: horde.Params{
			Steps:     intParam(params, "steps", horde.DefaultSteps),
			Width:     intParam(params, "width", horde.DefaultWidth),
			Height:    intParam(params, "height", horde.DefaultHeight),
			ModelName: model,
		},
	}
}

// intParam reads an integer param decoded from JSON (float64), YAML (int)
// or a string.
func intParam(params map[string]any, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(math.Round(v))
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// toPNG re-encodes horde output (usually WebP) as PNG.
func toPNG(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, pngMagic) {
		return data, nil
	}

	var (
		img image.Image
		err error
	)
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		img, err = webp.Decode(bytes.NewReader(data))
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode horde image: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
