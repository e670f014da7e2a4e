package drawing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leo-bot/leobot/internal/plugins"
)

// Plugin exposes the Controller to the chat host. It only handles
// IMAGE_CREATE messages.
type Plugin struct {
	plugins.Manifest
	ctrl     *Controller
	triggers []string
}

// NewPlugin wraps ctrl. imagePrefixes are the host's image-create triggers,
// used in the help text.
func NewPlugin(ctrl *Controller, imagePrefixes []string) *Plugin {
	return &Plugin{
		Manifest: plugins.Manifest{
			Name:        "leosd",
			Description: "leo: stable-diffusion webui画图",
			Version:     "0.1",
			Author:      "leo",
			Priority:    1,
		},
		ctrl:     ctrl,
		triggers: imagePrefixes,
	}
}

// Controller returns the wrapped controller.
func (p *Plugin) Controller() *Controller { return p.ctrl }

func (p *Plugin) Handle(ctx context.Context, ec *plugins.EventContext) {
	if ec.Context.Type != plugins.ContextImageCreate {
		return
	}
	if !ec.Context.Channel.Supports(plugins.ReplyImage) {
		return
	}

	slog.Info("image query", "plugin", p.Name, "content", ec.Context.Content)
	r := p.ctrl.HandleCommand(ctx, ec.Context.Content)
	ec.Reply = toPluginReply(r)
	if r.Kind == KindError {
		// Let the next plugin or the host default have a go.
		ec.Action = plugins.ActionContinue
		return
	}
	ec.Action = plugins.ActionBreakPass
}

func toPluginReply(r Reply) *plugins.Reply {
	switch r.Kind {
	case KindImage:
		return plugins.ImageReply(r.Image, r.Path)
	case KindError:
		return plugins.ErrorReply(r.Text)
	default:
		return plugins.InfoReply(r.Text)
	}
}

func (p *Plugin) Help(verbose bool) string {
	if len(p.triggers) == 0 {
		return "画图功能未启用"
	}
	trigger := p.triggers[0]

	var sb strings.Builder
	sb.WriteString("利用leo:stable-diffusion来画图。\n")
	if !verbose {
		return strings.TrimSpace(sb.String())
	}
	fmt.Fprintf(&sb, "一、触发方式\n1.画图: \"%[1]s 场景\"，例如\"%[1]s 一只猫\"\n2.更换画图模型: \"%[1]s 更换 模型名称\", 例如\"%[1]s 更换 二次元\"\n3.查看当前模型: \"%[1]s 查看\"\n", trigger)
	sb.WriteString(p.ctrl.ModelsText())
	sb.WriteString("\n\n注意！\n1. 网络非法外之地，不合适的词可能会导致微信被封掉。\n2. 生成一张图大概要2分钟\n3. 更换模型大概要1分钟")
	return sb.String()
}
