package sdk

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// PluginID names a loaded plugin. It is the configured library name unless
// the configuration renamed it.
type PluginID string

// Command is a directive for the plugin named by To. Commands are shared by
// pointer between queues and in-flight processing and must not be modified
// after construction.
type Command struct {
	ID      string   `json:"id"`
	From    PluginID `json:"from"`
	To      PluginID `json:"to"`
	Payload string   `json:"payload"`
}

// Response carries the reply to a Command back to its sender. To is the
// original requester and ID is the command's ID.
type Response struct {
	ID      string   `json:"id"`
	From    PluginID `json:"from"`
	To      PluginID `json:"to"`
	Payload string   `json:"payload"`
}

// NewCommand returns a command with a fresh correlation id.
func NewCommand(from, to PluginID, payload string) *Command {
	return &Command{
		ID:      uuid.NewString(),
		From:    from,
		To:      to,
		Payload: payload,
	}
}

// Reply builds the response to c: it comes from c.To and goes back to c.From.
func (c *Command) Reply(payload string) *Response {
	return &Response{
		ID:      c.ID,
		From:    c.To,
		To:      c.From,
		Payload: payload,
	}
}

// Forward returns a copy of r addressed to another plugin, keeping its
// payload and correlation id. Useful for relaying a reply down a chain.
func (r *Response) Forward(from, to PluginID) *Response {
	return &Response{
		ID:      r.ID,
		From:    from,
		To:      to,
		Payload: r.Payload,
	}
}

// PayloadText turns a JSON payload field into command text: a JSON string
// yields its contents, any other value its JSON encoding without
// surrounding whitespace. A missing field yields "".
func PayloadText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
