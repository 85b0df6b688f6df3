// Package config holds the nine configuration keys defines,
// their defaults, and loaders layering an angelscript.toml file and LSP
// workspace/didChangeConfiguration payloads over those defaults.
// Grounded on helpers.GetDataDirPath/GetOrInitializeDataDir
// env-override-then-OS-default idiom.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Analyzer holds the six analyzer-facing configuration keys.
type Analyzer struct {
	SuppressAnalyzerErrors bool `toml:"suppressAnalyzerErrors"`
	BuiltinStringTypes []string `toml:"builtinStringTypes"`
	BuiltinArrayType string `toml:"builtinArrayType"`
	ImplicitMutualInclusion bool `toml:"implicitMutualInclusion"`
	HoistEnumParentScope bool `toml:"hoistEnumParentScope"`
	ExplicitPropertyAccessor bool `toml:"explicitPropertyAccessor"`
}

// Formatter holds the three formatter hint keys (the formatter itself is
// out of the core's scope; these are carried through so a client-side
// formatter can read them back via workspace/configuration).
type Formatter struct {
	MaxBlankLines int `toml:"maxBlankLines"`
	IndentSpaces int `toml:"indentSpaces"`
	UseTabIndent bool `toml:"useTabIndent"`
}

// Settings is the full configuration surface.
type Settings struct {
	Analyzer Analyzer `toml:"analyzer"`
	Formatter Formatter `toml:"formatter"`
}

// Default returns the documented default configuration.
func Default() Settings {
	return Settings{
		Analyzer: Analyzer{
			SuppressAnalyzerErrors: true,
			BuiltinStringTypes: []string{"string", "string_t", "String"},
			BuiltinArrayType: "array",
			ImplicitMutualInclusion: false,
			HoistEnumParentScope: false,
			ExplicitPropertyAccessor: true,
		},
		Formatter: Formatter{
			MaxBlankLines: 1,
			IndentSpaces: 4,
			UseTabIndent: false,
		},
	}
}

// LoadFile overlays an angelscript.toml file (if present) onto base.
// Missing file is not an error; a present-but-invalid file is.
func LoadFile(path string, base Settings) (Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return base, nil
	}
	merged := base
	if _, err := toml.DecodeFile(path, &merged); err != nil {
		return base, err
	}
	return merged, nil
}

// ApplyWorkspaceConfig overlays a partial settings payload shaped like an
// LSP workspace/didChangeConfiguration payload. A boolean key present in
// patch is applied, false included; an empty builtinArrayType and a
// builtinStringTypes list with no string entries are ignored.
func ApplyWorkspaceConfig(base Settings, patch map[string]any) Settings {
	merged := base
	if v, ok := patch["suppressAnalyzerErrors"].(bool); ok {
		merged.Analyzer.SuppressAnalyzerErrors = v
	}
	if v, ok := patch["builtinArrayType"].(string); ok && v != "" {
		merged.Analyzer.BuiltinArrayType = v
	}
	if v, ok := patch["implicitMutualInclusion"].(bool); ok {
		merged.Analyzer.ImplicitMutualInclusion = v
	}
	if v, ok := patch["hoistEnumParentScope"].(bool); ok {
		merged.Analyzer.HoistEnumParentScope = v
	}
	if v, ok := patch["explicitPropertyAccessor"].(bool); ok {
		merged.Analyzer.ExplicitPropertyAccessor = v
	}
	if rawList, ok := patch["builtinStringTypes"].([]any); ok {
		types := make([]string, 0, len(rawList))
		for _, raw := range rawList {
			if s, ok := raw.(string); ok {
				types = append(types, s)
			}
		}
		if len(types) > 0 {
			merged.Analyzer.BuiltinStringTypes = types
		}
	}
	return merged
}
