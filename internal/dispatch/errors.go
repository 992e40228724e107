package dispatch

import (
	"fmt"

	"github.com/EchoPBX/c2host/pkg/sdk"
	"github.com/agilira/go-errors"
)

const (
	ErrCodeUnknownPlugin = "C2_1004"
	ErrCodePluginFailed  = "C2_9999"
)

func NewUnknownPluginError(id sdk.PluginID, msgID string) *errors.Error {
	return errors.New(ErrCodeUnknownPlugin, "no plugin with id "+string(id)).
		WithUserMessage("The message names a plugin that is not loaded").
		WithContext("plugin", string(id)).
		WithContext("message_id", msgID).
		WithSeverity("error")
}

// NewPluginFailedError wraps an error returned by a plugin operation. The
// plugin's own sdk.Error, if any, stays reachable through the chain.
func NewPluginFailedError(id sdk.PluginID, op, msgID string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodePluginFailed, fmt.Sprintf("%s: %s failed: %v", id, op, cause)).
		WithContext("plugin", string(id)).
		WithContext("operation", op).
		WithContext("message_id", msgID).
		WithSeverity("error")
}
