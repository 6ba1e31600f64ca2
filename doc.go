// Package flatconf resolves layered, file-scoped configuration.
//
// A configuration is an ordered list of layers. Each layer may scope itself
// with file globs, exclude paths with ignore globs, pull in shared layers via
// extends and carry namespaced settings such as "plugin/rule". For a file path
// the effective settings are the shallow, last-write-wins merge of every layer
// that applies to it, in order:
//
//	resolver, err := flatconf.Load([]flatconf.RawLayer{
//		{Ignores: []string{"dist/**"}},
//		{Files: []string{"**/*.ts"}, Settings: map[string]any{"a/rule": "warn"}},
//		{Files: []string{"tests/**"}, Settings: map[string]any{"a/rule": "off"}},
//	})
//	cfg, ok := resolver.Resolve("tests/x.test.ts") // a/rule: off
//
// A layer with ignores and nothing else is a global ignore: paths it matches
// are not applicable regardless of where the layer sits. A path no scoped or
// universal layer applies to is not applicable either.
//
// Load runs three stages that are also exported on their own: Ingest
// flattens extends and compiles patterns, Compose validates settings and
// builds the immutable Composition, and NewResolver wraps it with base path
// handling and an optional cache. Resolvers are safe for concurrent use.
package flatconf
