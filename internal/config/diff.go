package config

import (
	"reflect"
	"slices"
)

// Diff describes what changed between two configs. Only a handful of fields
// can be applied to a running server; everything else is reported in Restart.
type Diff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	VoiceChanged bool

	// TopicsChanged is set when the topics file path changed. A watcher
	// cannot see edits inside the topics file itself.
	TopicsChanged bool

	// Restart lists the top-level sections whose changes only take effect
	// after a restart, in a stable order.
	Restart []string
}

// Changed reports whether d carries any difference at all.
func (d Diff) Changed() bool {
	return d.LogLevelChanged || d.VoiceChanged || d.TopicsChanged || len(d.Restart) > 0
}

// Compare returns the differences between old and new.
func Compare(old, new *Config) Diff {
	d := Diff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	d.VoiceChanged = !reflect.DeepEqual(old.Voice, new.Voice)
	d.TopicsChanged = old.Topics.File != new.Topics.File

	// Server fields other than the hot-reloadable ones.
	oldSrv, newSrv := old.Server, new.Server
	oldSrv.LogLevel, newSrv.LogLevel = "", ""
	sections := []struct {
		name     string
		old, new any
	}{
		{"server", oldSrv, newSrv},
		{"providers", old.Providers, new.Providers},
		{"dictionary", old.Dictionary, new.Dictionary},
		{"store", old.Store, new.Store},
		{"dialogue", old.Dialogue, new.Dialogue},
		{"intent", old.Intent, new.Intent},
		{"pattern", old.Pattern, new.Pattern},
		{"mcp", old.MCP, new.MCP},
	}
	for _, s := range sections {
		if !reflect.DeepEqual(s.old, s.new) {
			d.Restart = append(d.Restart, s.name)
		}
	}
	slices.Sort(d.Restart)
	return d
}
