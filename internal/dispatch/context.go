package dispatch

import "github.com/EchoPBX/c2host/pkg/sdk"

// pluginContext is the restricted view of State handed to plugins.
type pluginContext struct {
	st *State
}

// View returns the sdk.State plugins see: enqueue and sender only.
func (s *State) View() sdk.State { return pluginContext{st: s} }

func (c pluginContext) EnqueueCommand(cmd *sdk.Command) { c.st.EnqueueCommand(cmd) }
func (c pluginContext) Sender() sdk.Sender              { return c.st.Sender() }
