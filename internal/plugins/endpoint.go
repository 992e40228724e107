package plugins

import "github.com/EchoPBX/c2host/pkg/sdk"

// Endpoint returns the root module for a host-side endpoint such as the
// admin API or the uplink. Endpoints originate commands through the sender
// and need a live id so the replies have somewhere to go; they accept no
// commands themselves and pass replies through, so the dispatcher reports
// them as notifications.
func Endpoint(name string) *sdk.RootModule {
	return sdk.NewRootModule(name, func(_ sdk.Sender, id sdk.PluginID) (sdk.Plugin, error) {
		return &endpoint{id: id}, nil
	})
}

type endpoint struct {
	id sdk.PluginID
}

func (e *endpoint) SendCommand(string, sdk.State) (string, error) {
	return "", sdk.Errorf(sdk.Unsupported, "%s is a host endpoint and accepts no commands", e.id)
}

func (e *endpoint) PluginID() sdk.PluginID { return e.id }
func (e *endpoint) Close(sdk.State)        {}
