// Package pluginstd is the boundary to the externally defined plugin
// discovery/instantiation library (§1's "plugin discovery/introspection
// library" collaborator). It binds a plugin URI from one of the supported
// formats (CLAP, LV2, VST3) to an rtplugin.PluginHandle; the binding itself
// is out of scope, the same way internal/pluginui's WindowHost leaves the
// native widget toolkit out of scope.
package pluginstd

import "github.com/patchmind/patchmind/internal/rtplugin"

// Format identifies which plugin standard a Descriptor was discovered
// through.
type Format string

const (
	FormatCLAP Format = "clap"
	FormatLV2  Format = "lv2"
	FormatVST3 Format = "vst3"
)

// Descriptor is one plugin the loader found during discovery, enough to
// display in a plugin picker and to pass back to Instantiate.
type Descriptor struct {
	URI    string
	Name   string
	Format Format
}

// Loader discovers installed plugins and instantiates them as
// rtplugin.PluginHandle values ready to be added to the arena. A failed
// Instantiate (missing plugin, incompatible port layout) is a recoverable
// error per §7: the caller reports it to the user and does not persist the
// instance, it never brings the server worker down.
type Loader interface {
	// Discover enumerates installed plugins across every supported format.
	Discover() ([]Descriptor, error)

	// Instantiate loads the plugin identified by uri and activates it at
	// budget's sample rate and block size, returning a handle ready for
	// rtplugin.Instance. Called off the RT thread.
	Instantiate(uri string, budget rtplugin.CPUBudget) (rtplugin.PluginHandle, error)
}
