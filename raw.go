package flatconf

import "github.com/goliatone/go-flatconf/layering"

// RawLayer is one entry of the input sequence as the caller writes it.
type RawLayer struct {
	// Name identifies the entry for extends references and diagnostics.
	Name string `json:"name,omitempty"`
	// Files lists include patterns. Empty means the layer applies to every
	// file that is not ignored.
	Files []string `json:"files,omitempty"`
	// Ignores lists exclude patterns; a leading "!" re-includes a path.
	Ignores []string `json:"ignores,omitempty"`
	// Settings maps namespaced keys ("plugin/rule") to opaque values.
	Settings map[string]any `json:"settings,omitempty"`
	// Extends names presets or named layers spliced in before this entry.
	Extends []string `json:"extends,omitempty"`
}

// hasContent reports whether the entry carries anything besides extends.
func (r RawLayer) hasContent() bool {
	return len(r.Files) > 0 || len(r.Ignores) > 0 || len(r.Settings) > 0
}

func (r RawLayer) clone() RawLayer {
	return RawLayer{
		Name:     r.Name,
		Files:    copyStrings(r.Files),
		Ignores:  copyStrings(r.Ignores),
		Settings: layering.Clone(r.Settings),
		Extends:  copyStrings(r.Extends),
	}
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
