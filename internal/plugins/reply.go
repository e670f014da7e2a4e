package plugins

// ReplyType is the kind of reply a plugin produces.
type ReplyType string

const (
	ReplyText  ReplyType = "TEXT"
	ReplyInfo  ReplyType = "INFO"
	ReplyError ReplyType = "ERROR"
	ReplyImage ReplyType = "IMAGE"
)

// Reply is the single answer to a handled message. Image holds PNG bytes
// when Type is ReplyImage.
type Reply struct {
	Type    ReplyType `json:"type"`
	Content string    `json:"content,omitempty"`
	Image   []byte    `json:"image,omitempty"`
}

func TextReply(content string) *Reply  { return &Reply{Type: ReplyText, Content: content} }
func InfoReply(content string) *Reply  { return &Reply{Type: ReplyInfo, Content: content} }
func ErrorReply(content string) *Reply { return &Reply{Type: ReplyError, Content: content} }

// ImageReply wraps PNG bytes. Content carries the saved path, if any.
func ImageReply(png []byte, path string) *Reply {
	return &Reply{Type: ReplyImage, Content: path, Image: png}
}
