package drawing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leo-bot/leobot/internal/events"
)

var (
	ErrBusy         = errors.New("drawing slot is busy")
	ErrUnknownModel = errors.New("unknown model keyword")
	ErrPainter      = errors.New("painter failed")
	ErrTranslate    = errors.New("translation failed")
	ErrUnexpected   = errors.New("unexpected failure")
)

// Painter is the image backend.
type Painter interface {
	// SetOptions applies web UI options such as sd_model_checkpoint.
	SetOptions(ctx context.Context, options map[string]any) error
	// Txt2Img generates one image from params and returns PNG bytes.
	Txt2Img(ctx context.Context, params map[string]any) ([]byte, error)
}

// Translator turns a free-text topic into a one-sentence English SD prompt.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// ReplyKind classifies a controller reply.
type ReplyKind int

const (
	KindInfo ReplyKind = iota
	KindError
	KindImage
)

func (k ReplyKind) String() string {
	switch k {
	case KindError:
		return "error"
	case KindImage:
		return "image"
	default:
		return "info"
	}
}

// Reply is the single result of HandleCommand. Err carries the typed
// failure, if any, behind Text.
type Reply struct {
	Kind  ReplyKind
	Text  string
	Image []byte
	Path  string
	Err   error
}

func infoReply(text string) Reply { return Reply{Kind: KindInfo, Text: text} }

func errorReply(err error) Reply {
	return Reply{Kind: KindError, Text: "[leosd] " + err.Error(), Err: err}
}

// ControllerConfig wires a Controller.
type ControllerConfig struct {
	Rules      *RuleSet
	Store      StateStore
	Painter    Painter
	Translator Translator
	Images     *ImageStore
	Bus        *events.Bus      // optional
	Now        func() time.Time // defaults to time.Now
}

// Controller owns the drawing slot.
type Controller struct {
	rules      *RuleSet
	store      StateStore
	painter    Painter
	translator Translator
	images     *ImageStore
	bus        *events.Bus
	now        func() time.Time
}

// NewController validates cfg and returns a Controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	switch {
	case cfg.Rules == nil:
		return nil, fmt.Errorf("drawing controller: rules are required")
	case cfg.Store == nil:
		return nil, fmt.Errorf("drawing controller: state store is required")
	case cfg.Painter == nil:
		return nil, fmt.Errorf("drawing controller: painter is required")
	case cfg.Translator == nil:
		return nil, fmt.Errorf("drawing controller: translator is required")
	case cfg.Images == nil:
		return nil, fmt.Errorf("drawing controller: image store is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		rules:      cfg.Rules,
		store:      cfg.Store,
		painter:    cfg.Painter,
		translator: cfg.Translator,
		images:     cfg.Images,
		bus:        cfg.Bus,
		now:        now,
	}, nil
}

// HandleCommand classifies text and runs the command. Whatever the
// operation does, including returning an error or panicking, a slot it
// took is released back to StateFree before HandleCommand returns.
func (c *Controller) HandleCommand(ctx context.Context, text string) (reply Reply) {
	cmd := Classify(text)
	if cmd.Kind == CommandQueryModel {
		return c.handleQueryModel()
	}

	if st := c.State(); st.Busy() {
		slog.Info("draw slot busy", "state", st, "command", cmd.Kind)
		return Reply{Kind: KindInfo, Text: st.busyText(), Err: ErrBusy}
	}

	s := &slot{c: c}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("draw command panicked", "command", cmd.Kind, "arg", cmd.Arg, "panic", rec)
			reply = errorReply(fmt.Errorf("%w: %v", ErrUnexpected, rec))
		}
		s.release()
	}()

	switch cmd.Kind {
	case CommandSetModel:
		return c.handleSetModel(ctx, s, cmd.Arg)
	default:
		return c.handleDraw(ctx, s, cmd.Arg)
	}
}

// State returns the persisted slot state. A read failure counts as free.
func (c *Controller) State() State {
	st, err := c.store.ReadState()
	if err != nil {
		slog.Warn("read draw state failed, treating as free", "error", err)
		return StateFree
	}
	return st
}

// CurrentModel returns the persisted model keyword, or "" when unset.
func (c *Controller) CurrentModel() string {
	m, err := c.store.ReadModel()
	if err != nil {
		slog.Warn("read current model failed", "error", err)
		return ""
	}
	return m
}

// Reset forces the slot back to StateFree.
func (c *Controller) Reset() error {
	from := c.State()
	if err := c.store.WriteState(StateFree); err != nil {
		return fmt.Errorf("reset draw state: %w", err)
	}
	c.publishState(from, StateFree)
	return nil
}

func (c *Controller) handleQueryModel() Reply {
	return infoReply(fmt.Sprintf("当前模型是: [%s]\n\n%s", c.CurrentModel(), c.ModelsText()))
}

// ModelsText lists the keyword groups, one rule per line.
func (c *Controller) ModelsText() string { return c.rules.ModelsText() }

func (c *Controller) handleSetModel(ctx context.Context, s *slot, keyword string) Reply {
	options, matched := c.rules.ResolveOptions(keyword)
	if !matched {
		slog.Info("model keyword not matched", "keyword", keyword)
		return Reply{Kind: KindInfo, Text: "输入的模型不正确，请检查", Err: ErrUnknownModel}
	}

	if err := s.enter(StateModelChanging); err != nil {
		return errorReply(err)
	}

	slog.Info("set draw options", "keyword", keyword, "options", options)
	if err := c.painter.SetOptions(ctx, options); err != nil {
		slog.Error("set options failed", "keyword", keyword, "error", err)
		return errorReply(fmt.Errorf("%w: %w", ErrPainter, err))
	}
	if err := c.store.WriteModel(keyword); err != nil {
		return errorReply(fmt.Errorf("save current model: %w", err))
	}
	return infoReply(fmt.Sprintf("更换%s模型成功！", keyword))
}

func (c *Controller) handleDraw(ctx context.Context, s *slot, userPrompt string) Reply {
	if err := s.enter(StateDrawing); err != nil {
		return errorReply(err)
	}

	model := c.CurrentModel()
	params, matched := c.rules.ResolveParams(model)
	if !matched {
		slog.Info("current model not matched, using defaults", "model", model)
	}

	sdPrompt, err := c.translator.Translate(ctx, userPrompt)
	if err != nil {
		slog.Error("translate failed", "prompt", userPrompt, "error", err)
		return errorReply(fmt.Errorf("%w: %w", ErrTranslate, err))
	}
	params["prompt"] = promptOf(params) + ", " + sdPrompt

	slog.Info("txt2img", "model", model, "params", params)
	start := c.now()
	png, err := c.painter.Txt2Img(ctx, params)
	if err != nil {
		slog.Error("txt2img failed", "model", model, "prompt", userPrompt, "error", err)
		return errorReply(fmt.Errorf("%w: %w", ErrPainter, err))
	}

	path, err := c.images.Save(png, c.now())
	if err != nil {
		// The image still goes back to the user.
		slog.Error("save image failed", "dir", c.images.Dir(), "error", err)
	}
	slog.Info("draw done", "model", model, "path", path)
	c.publish(events.DrawImagePayload{
		Path:     path,
		Model:    model,
		Prompt:   params["prompt"].(string),
		Duration: c.now().Sub(start),
	})
	return Reply{Kind: KindImage, Image: png, Path: path}
}

// promptOf returns params["prompt"] as a string, "" when absent.
func promptOf(params map[string]any) string {
	switch v := params["prompt"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (c *Controller) publishState(from, to State) {
	c.publish(events.DrawStatePayload{From: string(from), To: string(to), Model: c.CurrentModel()})
}

func (c *Controller) publish(payload events.EventPayload) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.NewTypedEvent(events.SourcePlugin, payload))
}

// slot tracks whether the running command moved the state out of free.
type slot struct {
	c       *Controller
	entered State
}

func (s *slot) enter(st State) error {
	if err := s.c.store.WriteState(st); err != nil {
		return fmt.Errorf("write draw state: %w", err)
	}
	s.entered = st
	s.c.publishState(StateFree, st)
	return nil
}

// release returns a taken slot to free. It is the only place that does so.
func (s *slot) release() {
	if s.entered == "" {
		return
	}
	if err := s.c.store.WriteState(StateFree); err != nil {
		slog.Error("release draw state failed", "state", s.entered, "error", err)
		return
	}
	s.c.publishState(s.entered, StateFree)
}
