// Package plugins provides the leobot chat plugin host: the context a plugin
// receives, the reply it produces and the registry that dispatches messages.
package plugins

// Manifest describes a plugin's metadata. Plugins embed it to provide
// Name and Priority.
type Manifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Author      string `json:"author"`
	// Priority orders dispatch: higher runs first.
	Priority int  `json:"priority"`
	Hidden   bool `json:"hidden,omitempty"`
}

// PluginName returns the plugin's registered name.
func (m Manifest) PluginName() string { return m.Name }

// PluginPriority returns the plugin's dispatch priority.
func (m Manifest) PluginPriority() int { return m.Priority }

// Info returns the manifest itself. It lets the registry list plugins.
func (m Manifest) Info() Manifest { return m }
