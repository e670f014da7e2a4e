package drawing

import "strings"

// Reserved leading tokens.
const (
	QueryPrefix = "查看"
	SetPrefix   = "更换"
)

// CommandKind is what a drawing message asks for.
type CommandKind int

const (
	CommandDraw CommandKind = iota
	CommandQueryModel
	CommandSetModel
)

func (k CommandKind) String() string {
	switch k {
	case CommandQueryModel:
		return "query_model"
	case CommandSetModel:
		return "set_model"
	default:
		return "draw"
	}
}

// Command is a classified drawing message. Arg is the model keyword for
// CommandSetModel and the user prompt for CommandDraw.
type Command struct {
	Kind CommandKind
	Arg  string
}

// Classify maps text to exactly one command. A leading 查看 queries the
// model, a leading 更换 sets it to the trimmed remainder (which may be
// empty), and anything else is a drawing prompt.
func Classify(text string) Command {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, QueryPrefix):
		return Command{Kind: CommandQueryModel}
	case strings.HasPrefix(trimmed, SetPrefix):
		return Command{Kind: CommandSetModel, Arg: strings.TrimSpace(strings.TrimPrefix(trimmed, SetPrefix))}
	default:
		return Command{Kind: CommandDraw, Arg: trimmed}
	}
}
