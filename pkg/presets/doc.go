// Package presets stores named, shared layer sequences ("recommended",
// "strict", ...) that configuration entries pull in through extends.
//
// A Store only loads and saves whole presets by name. Source adapts any Store
// to flatconf.PresetSource so ingestion can splice presets in place:
//
//	Store -> Source -> flatconf.Ingest(..., flatconf.WithPresets(source))
//
// Meta.SnapshotID travels into the names of unnamed preset layers, which makes
// it visible in layer IDs, traces and error messages.
package presets
