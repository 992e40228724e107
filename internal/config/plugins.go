package config

import (
	"encoding/json"
	"fmt"

	"github.com/EchoPBX/c2host/pkg/sdk"
	"gopkg.in/yaml.v3"
)

// PluginDescriptor names a plugin library to load. In YAML it is either a
// bare name or a mapping with name/rename (aliases named/renamed) and an
// optional blake3 digest pin.
type PluginDescriptor struct {
	Name   string
	Rename string
	Blake3 string
}

// EffectiveID is the id the plugin is registered and routed under.
func (d PluginDescriptor) EffectiveID() sdk.PluginID {
	if d.Rename != "" {
		return sdk.PluginID(d.Rename)
	}
	return sdk.PluginID(d.Name)
}

func (d *PluginDescriptor) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*d = PluginDescriptor{Name: n.Value}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Name    string `yaml:"name"`
			Named   string `yaml:"named"`
			Rename  string `yaml:"rename"`
			Renamed string `yaml:"renamed"`
			Blake3  string `yaml:"blake3"`
		}
		if err := n.Decode(&raw); err != nil {
			return err
		}
		*d = PluginDescriptor{
			Name:   firstNonEmpty(raw.Name, raw.Named),
			Rename: firstNonEmpty(raw.Rename, raw.Renamed),
			Blake3: raw.Blake3,
		}
		return nil
	default:
		return fmt.Errorf("line %d: plugin entry must be a name or a mapping", n.Line)
	}
}

// Seed is a startup command: Payload is sent to Plugin by direct dispatch.
type Seed struct {
	Plugin  sdk.PluginID
	Payload string
}

// Seeds keeps startup commands in document order. It accepts a sequence of
// {plugin, payload} mappings or a single mapping of plugin -> payload.
type Seeds []Seed

func (s *Seeds) UnmarshalYAML(n *yaml.Node) error {
	var out Seeds
	switch n.Kind {
	case yaml.SequenceNode:
		for _, item := range n.Content {
			var raw struct {
				Plugin  string    `yaml:"plugin"`
				Payload yaml.Node `yaml:"payload"`
			}
			if err := item.Decode(&raw); err != nil {
				return err
			}
			payload, err := payloadString(&raw.Payload)
			if err != nil {
				return err
			}
			out = append(out, Seed{Plugin: sdk.PluginID(raw.Plugin), Payload: payload})
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			payload, err := payloadString(n.Content[i+1])
			if err != nil {
				return err
			}
			out = append(out, Seed{Plugin: sdk.PluginID(n.Content[i].Value), Payload: payload})
		}
	default:
		return fmt.Errorf("line %d: commands must be a sequence or a mapping", n.Line)
	}
	*s = out
	return nil
}

// payloadString turns a YAML value into the opaque payload string: scalars
// verbatim, structured values as JSON.
func payloadString(n *yaml.Node) (string, error) {
	switch n.Kind {
	case 0:
		return "", nil
	case yaml.ScalarNode:
		return n.Value, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return "", err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("line %d: payload is not JSON-encodable: %w", n.Line, err)
	}
	return string(b), nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
