package sdk

//go:generate mockgen -destination=../../internal/mocks/mock_sdk.go -package=mocks github.com/EchoPBX/c2host/pkg/sdk Plugin,ResponseHandler,State,Sender

// Plugin is the capability set the host calls on every loaded plugin.
type Plugin interface {
	// SendCommand handles an opaque command payload and returns the reply.
	SendCommand(payload string, st State) (string, error)

	// PluginID returns the id the plugin was constructed with.
	PluginID() PluginID

	// Close releases the plugin. The host calls it once, on shutdown.
	Close(st State)
}

// ResponseHandler is implemented by plugins that want to see the replies to
// commands they enqueued. Returning a non-nil response hands it back to the
// host, which reports it as a final notification; returning nil consumes it.
//
// Plugins that don't implement it get pass-through behaviour.
type ResponseHandler interface {
	HandleResponse(resp *Response, st State) (*Response, error)
}

// Constructor builds a plugin instance. The sender is the plugin's only
// channel back into the host from its own goroutines.
type Constructor func(sender Sender, id PluginID) (Plugin, error)
