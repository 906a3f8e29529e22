package ciconfig

import (
	"sort"

	"github.com/pkg/errors"
)

const configVersion = "2"

// RustPreset returns the pipeline of a Rust crate: format, lint and test with the
// cargo registry and target directory cached under a single key.
func RustPreset() *Config {
	const cacheKey = "v1-target"

	return &Config{
		Version: configVersion,
		Jobs: map[string]*Job{
			BuildJob: {
				Docker: []Image{{Image: "circleci/rust:latest"}},
				Steps: []Step{
					CheckoutOf(),
					RunOf("Version information", "rustc --version; cargo --version; rustup --version"),
					RestoreCacheOf(cacheKey),
					RunOf("Check formatting", "cargo fmt -- --check"),
					RunOf("Lint", "cargo clippy"),
					RunOf("Test", "cargo test"),
					SaveCacheOf(cacheKey, "~/.cargo", "./target"),
				},
			},
		},
	}
}

// GoPreset returns the pipeline of a Go module: format, vet and test with the module
// and build caches saved under a single key.
func GoPreset() *Config {
	const cacheKey = "v1-gomod"

	return &Config{
		Version: configVersion,
		Jobs: map[string]*Job{
			BuildJob: {
				Docker: []Image{{Image: "cimg/go:1.24"}},
				Steps: []Step{
					CheckoutOf(),
					RunOf("Version information", "go version"),
					RestoreCacheOf(cacheKey),
					RunOf("Check formatting", `test -z "$(gofmt -l .)"`),
					RunOf("Lint", "go vet ./..."),
					RunOf("Test", "go test ./..."),
					SaveCacheOf(cacheKey, "~/go/pkg/mod", "~/.cache/go-build"),
				},
			},
		},
	}
}

var presets = map[string]func() *Config{
	"go":   GoPreset,
	"rust": RustPreset,
}

// Preset returns the preset registered under name.
func Preset(name string) (*Config, error) {
	preset, ok := presets[name]
	if !ok {
		return nil, errors.Errorf("unknown preset %q, expected one of %v", name, PresetNames())
	}

	return preset(), nil
}

// PresetNames returns the registered preset names in lexical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
