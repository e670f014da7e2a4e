// Package ws provides a WebSocket client for the leobot gateway.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/coder/websocket"

	wsprotocol "github.com/leo-bot/leobot/internal/gateway/ws"
)

// Client is a WebSocket client for the leobot gateway.
type Client struct {
	conn   *websocket.Conn
	reqSeq uint64
	ctx    context.Context
	cancel context.CancelFunc
}

// Dial connects to the gateway WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ws dial: %w", err)
	}
	// Image replies are base64 inside a JSON frame.
	conn.SetReadLimit(32 << 20)

	clientCtx, cancel := context.WithCancel(ctx)

	return &Client{
		conn:   conn,
		ctx:    clientCtx,
		cancel: cancel,
	}, nil
}

// SendMessage sends a user message to the gateway and returns the request id.
func (c *Client) SendMessage(content string) (string, error) {
	return c.request(wsprotocol.MethodSendMessage, wsprotocol.SendMessageParams{Content: content})
}

func (c *Client) request(method wsprotocol.Method, params any) (string, error) {
	seq := atomic.AddUint64(&c.reqSeq, 1)
	id := fmt.Sprintf("req-%d", seq)

	frame, err := wsprotocol.NewRequestFrame(id, method, params)
	if err != nil {
		return "", err
	}
	data, err := wsprotocol.MarshalFrame(frame)
	if err != nil {
		return "", err
	}
	return id, c.conn.Write(c.ctx, websocket.MessageText, data)
}

// Ask sends content and waits for its reply. Event frames read meanwhile
// are passed to onEvent when it is not nil.
func (c *Client) Ask(content string, onEvent func(wsprotocol.Frame)) (wsprotocol.MessageResult, error) {
	id, err := c.SendMessage(content)
	if err != nil {
		return wsprotocol.MessageResult{}, err
	}

	payload, err := c.await(id, onEvent)
	if err != nil {
		return wsprotocol.MessageResult{}, err
	}
	var res wsprotocol.MessageResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return wsprotocol.MessageResult{}, fmt.Errorf("decode reply: %w", err)
	}
	return res, nil
}

// Help asks the gateway for the plugin help text.
func (c *Client) Help(verbose bool) (string, error) {
	id, err := c.request(wsprotocol.MethodHelp, wsprotocol.HelpParams{Verbose: verbose})
	if err != nil {
		return "", err
	}
	payload, err := c.await(id, nil)
	if err != nil {
		return "", err
	}
	var body struct {
		Help string `json:"help"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return "", fmt.Errorf("decode help: %w", err)
	}
	return body.Help, nil
}

func (c *Client) await(id string, onEvent func(wsprotocol.Frame)) (json.RawMessage, error) {
	for {
		f, err := c.ReadFrame()
		if err != nil {
			return nil, err
		}
		switch {
		case f.Type == wsprotocol.FrameTypeResponse && f.ID == id:
			if f.OK == nil || !*f.OK {
				if f.Error == "" {
					return nil, errors.New("request failed")
				}
				return nil, errors.New(f.Error)
			}
			return f.Payload, nil
		case f.Type == wsprotocol.FrameTypeEvent && onEvent != nil:
			onEvent(f)
		}
	}
}

// ReadFrame reads the next frame from the connection.
func (c *Client) ReadFrame() (wsprotocol.Frame, error) {
	_, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return wsprotocol.Frame{}, err
	}
	return wsprotocol.UnmarshalFrame(data)
}

// Close gracefully closes the connection.
func (c *Client) Close() error {
	c.cancel()
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
