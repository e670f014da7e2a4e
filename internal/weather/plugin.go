package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/leo-bot/leobot/internal/plugins"
)

var (
	liveRe     = regexp.MustCompile(`^现在(?:(.{2,7}?)(?:市|县|区|镇)?|(\d{7,9}))(?:的)?天气$`)
	forecastRe = regexp.MustCompile(`^(?:(.{2,7}?)(?:市|县|区|镇)?|(\d{7,9}))(?:的)?天气$`)
)

const (
	msgNoKey     = "请先配置高德的key"
	msgAPIFailed = "获取失败，请查看服务器log"
	msgFailed    = "获取天气信息失败"
)

// ErrUnknownCity is returned when a place name is not in the city index.
var ErrUnknownCity = errors.New("unknown city")

// Match extracts the city from a weather question. forecast is false for
// "现在...天气" questions.
func Match(text string) (city string, forecast bool, ok bool) {
	if m := liveRe.FindStringSubmatch(text); m != nil {
		return firstNonEmpty(m[1], m[2]), false, true
	}
	if m := forecastRe.FindStringSubmatch(text); m != nil {
		return firstNonEmpty(m[1], m[2]), true, true
	}
	return "", false, false
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// Plugin answers weather questions in TEXT messages.
type Plugin struct {
	plugins.Manifest
	client *Client
	index  CityIndex
}

// NewPlugin creates the weather plugin. index may be nil, in which case only
// numeric city codes resolve.
func NewPlugin(client *Client, index CityIndex) *Plugin {
	return &Plugin{
		Manifest: plugins.Manifest{
			Name:        "Leoapi",
			Description: "A plugin to handle specific keywords",
			Version:     "0.1",
			Author:      "leo",
			Priority:    90,
		},
		client: client,
		index:  index,
	}
}

func (p *Plugin) Handle(ctx context.Context, ec *plugins.EventContext) {
	if ec.Context.Type != plugins.ContextText {
		return
	}
	content := strings.TrimSpace(ec.Context.Content)
	city, forecast, ok := Match(content)
	if !ok {
		return
	}

	slog.Debug("weather query", "plugin", p.Name, "city", city, "forecast", forecast)
	ec.Reply = plugins.TextReply(p.Answer(ctx, city, forecast))
	ec.Action = plugins.ActionBreakPass
}

// Answer returns the chat reply for a weather question about city.
func (p *Plugin) Answer(ctx context.Context, city string, forecast bool) string {
	if !p.client.HasKey() {
		slog.Error("天气请求失败", "error", ErrNoKey)
		return msgNoKey
	}
	text, err := p.Report(ctx, city, forecast)
	if errors.Is(err, ErrUnknownCity) {
		return "\n" + city + "不存在"
	}
	if err != nil {
		return "\n" + failureText(err)
	}
	return "\n" + text
}

// Report fetches and formats the weather for city, which is either a
// numeric city code or a place name.
func (p *Plugin) Report(ctx context.Context, city string, forecast bool) (string, error) {
	id, err := p.Resolve(ctx, city)
	if err != nil {
		return "", err
	}

	if forecast {
		f, err := p.client.Forecast(ctx, id)
		if err != nil {
			slog.Error(failureText(err), "city", city, "adcode", id, "error", err)
			return "", err
		}
		return FormatForecast(f), nil
	}

	l, err := p.client.Live(ctx, id)
	if err != nil {
		slog.Error(failureText(err), "city", city, "adcode", id, "error", err)
		return "", err
	}
	return FormatLive(l), nil
}

// Resolve turns city into an adcode.
func (p *Plugin) Resolve(ctx context.Context, city string) (string, error) {
	if isNumeric(city) {
		return city, nil
	}
	if p.index == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	adcode, ok, err := p.index.Lookup(ctx, city)
	if err != nil {
		slog.Error("city lookup failed", "city", city, "error", err)
		return "", fmt.Errorf("lookup %s: %w", city, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownCity, city)
	}
	return adcode, nil
}

func failureText(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return msgAPIFailed
	}
	return msgFailed
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func (p *Plugin) Help(verbose bool) string {
	if !verbose {
		return " 发送特定指令以获取天气信息"
	}
	var sb strings.Builder
	sb.WriteString("📚 发送关键词获取特定信息！\n")
	sb.WriteString("\n🔍 查询工具：\n")
	sb.WriteString("  🌦️ 当前天气: 发送“现在+城市+天气”查天气，如“现在潮阳区天气”。\n")
	sb.WriteString("  🌦️ 天气: 发送“城市+天气”查天气，如“潮阳区天气”。\n")
	return sb.String()
}
