package graph

import "strings"

// Classify derives a Node's Classification from its server-reported
// properties, in the decision order fixed by §4.1:
//
//	explicit plugin-filter tag > duplex > application stream > hardware/virtual sink/source
//
// Anything that matches none of those falls back to ClassBridgedExternal —
// a node the server exposes that this system does not otherwise understand
// (e.g. a raw JACK bridge client).
func Classify(p NodeProps) Classification {
	switch {
	case p.IsPluginFilter:
		return ClassPluginFilter
	case isDuplex(p.MediaClass):
		return ClassDuplex
	case isApplicationStream(p.MediaClass):
		if strings.Contains(p.MediaClass, "Output") {
			return ClassApplicationOut
		}
		return ClassApplicationIn
	case isSink(p.MediaClass):
		if p.Virtual {
			return ClassVirtualSink
		}
		return ClassHardwareSink
	case isSource(p.MediaClass):
		if p.Virtual {
			return ClassVirtualSource
		}
		return ClassHardwareSource
	default:
		return ClassBridgedExternal
	}
}

func isDuplex(mediaClass string) bool {
	return strings.Contains(mediaClass, "Duplex")
}

func isApplicationStream(mediaClass string) bool {
	return strings.HasPrefix(mediaClass, "Stream/")
}

func isSink(mediaClass string) bool {
	return strings.Contains(mediaClass, "Sink")
}

func isSource(mediaClass string) bool {
	return strings.Contains(mediaClass, "Source")
}

// DeriveMediaType maps a media class string to the coarse MediaType used
// throughout the mirror.
func DeriveMediaType(mediaClass string) MediaType {
	if strings.Contains(mediaClass, "Midi") || strings.Contains(mediaClass, "MIDI") {
		return MediaMIDI
	}
	return MediaAudio
}

// LayoutKey computes the deterministic, restart-stable key described in
// §4.1: "application_name | \"::\" | node_purpose | \"::\" | media_class"
// with whitespace normalization and lowercasing. Collision disambiguation
// (appending the server id suffix to the second-and-later colliding node) is
// the mirror's responsibility, not this function's — LayoutKey is a pure
// function of the node's properties alone.
func LayoutKey(p NodeProps) string {
	return normalizeKeyPart(p.ApplicationName) + "::" + normalizeKeyPart(p.NodePurpose) + "::" + normalizeKeyPart(p.MediaClass)
}
