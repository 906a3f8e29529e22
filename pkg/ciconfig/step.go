package ciconfig

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// StepKind identifies the body of a Step.
type StepKind string

const (
	CheckoutStep     StepKind = "checkout"
	RunStep          StepKind = "run"
	RestoreCacheStep StepKind = "restore_cache"
	SaveCacheStep    StepKind = "save_cache"
)

// ErrUnknownStep is returned when a step kind is not supported.
var ErrUnknownStep = errors.New("unknown step kind")

// Step is one entry of a job. Only the body matching Kind is set.
type Step struct {
	Kind         StepKind
	Checkout     *Checkout
	Run          *Run
	RestoreCache *RestoreCache
	SaveCache    *SaveCache
}

// Checkout clones the repository. It is written as a bare "checkout" unless Path is set.
type Checkout struct {
	Path string `yaml:"path,omitempty"`
}

// Run executes a shell command. It is written as a bare command unless Name is set.
type Run struct {
	Name    string `yaml:"name,omitempty"`
	Command string `yaml:"command"`
}

// RestoreCache restores the first cache found among its keys.
type RestoreCache struct {
	Keys []string `yaml:"keys,omitempty"`
	Key  string   `yaml:"key,omitempty"`
}

// CacheKeys returns every key the step restores from.
func (r *RestoreCache) CacheKeys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.Keys)+1)
	if r.Key != "" {
		keys = append(keys, r.Key)
	}

	return append(keys, r.Keys...)
}

// SaveCache stores paths under key.
type SaveCache struct {
	Key   string   `yaml:"key"`
	Paths []string `yaml:"paths"`
}

// CheckoutOf returns a checkout step.
func CheckoutOf() Step {
	return Step{Kind: CheckoutStep}
}

// RunOf returns a run step. An empty name keeps the short form.
func RunOf(name, command string) Step {
	return Step{Kind: RunStep, Run: &Run{Name: name, Command: command}}
}

// RestoreCacheOf returns a restore_cache step.
func RestoreCacheOf(keys ...string) Step {
	return Step{Kind: RestoreCacheStep, RestoreCache: &RestoreCache{Keys: keys}}
}

// SaveCacheOf returns a save_cache step.
func SaveCacheOf(key string, paths ...string) Step {
	return Step{Kind: SaveCacheStep, SaveCache: &SaveCache{Key: key, Paths: paths}}
}

// Label returns a short human readable description of the step.
func (s Step) Label() string {
	switch s.Kind {
	case CheckoutStep:
		if s.Checkout != nil && s.Checkout.Path != "" {
			return "checkout: " + s.Checkout.Path
		}

		return string(CheckoutStep)
	case RunStep:
		if s.Run == nil {
			return string(RunStep)
		}
		if s.Run.Name != "" {
			return "run: " + s.Run.Name
		}

		return "run: " + firstLine(s.Run.Command)
	case RestoreCacheStep:
		return "restore_cache: " + strings.Join(s.RestoreCache.CacheKeys(), ", ")
	case SaveCacheStep:
		if s.SaveCache == nil {
			return string(SaveCacheStep)
		}

		return "save_cache: " + s.SaveCache.Key
	default:
		return string(s.Kind)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " ..."
	}

	return s
}

// UnmarshalYAML decodes either a bare step name or a single key mapping to the step body.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		kind := StepKind(node.Value)
		if kind != CheckoutStep {
			if isKnown(kind) {
				return errors.Errorf("line %d: step %q needs a body", node.Line, node.Value)
			}

			return errors.Wrapf(ErrUnknownStep, "line %d: %q", node.Line, node.Value)
		}
		*s = Step{Kind: CheckoutStep}

		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return errors.Errorf("line %d: a step must have exactly one key, got %d", node.Line, len(node.Content)/2)
		}

		return s.decodeBody(StepKind(node.Content[0].Value), node.Content[1])
	default:
		return errors.Errorf("line %d: a step must be a name or a mapping", node.Line)
	}
}

func (s *Step) decodeBody(kind StepKind, body *yaml.Node) error {
	step := Step{Kind: kind}

	var err error
	switch kind {
	case CheckoutStep:
		if body.Tag != "!!null" {
			step.Checkout = &Checkout{}
			err = decodeStrict(body, step.Checkout)
		}
	case RunStep:
		step.Run = &Run{}
		if body.Kind == yaml.ScalarNode {
			step.Run.Command = body.Value
		} else {
			err = decodeStrict(body, step.Run)
		}
	case RestoreCacheStep:
		step.RestoreCache = &RestoreCache{}
		err = decodeStrict(body, step.RestoreCache)
	case SaveCacheStep:
		step.SaveCache = &SaveCache{}
		err = decodeStrict(body, step.SaveCache)
	default:
		return errors.Wrapf(ErrUnknownStep, "line %d: %q", body.Line, kind)
	}
	if err != nil {
		return errors.Wrapf(err, "unable to decode %s step", kind)
	}
	*s = step

	return nil
}

// decodeStrict rejects unknown fields, which yaml.Node.Decode does not do on its own.
func decodeStrict(node *yaml.Node, out any) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("line %d: expected a mapping", node.Line)
	}

	known := knownFields(out)
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if _, ok := known[key.Value]; !ok {
			return errors.Errorf("line %d: field %s not found", key.Line, key.Value)
		}
	}

	return node.Decode(out)
}

func knownFields(out any) map[string]struct{} {
	switch out.(type) {
	case *Checkout:
		return map[string]struct{}{"path": {}}
	case *Run:
		return map[string]struct{}{"name": {}, "command": {}}
	case *RestoreCache:
		return map[string]struct{}{"keys": {}, "key": {}}
	case *SaveCache:
		return map[string]struct{}{"key": {}, "paths": {}}
	default:
		return nil
	}
}

// MarshalYAML writes the short forms whenever they carry the whole step.
func (s Step) MarshalYAML() (any, error) {
	switch s.Kind {
	case CheckoutStep:
		if s.Checkout == nil || s.Checkout.Path == "" {
			return string(CheckoutStep), nil
		}

		return map[string]any{string(CheckoutStep): s.Checkout}, nil
	case RunStep:
		if s.Run == nil {
			return nil, errors.New("run step without body")
		}
		if s.Run.Name == "" {
			return map[string]any{string(RunStep): s.Run.Command}, nil
		}

		return map[string]any{string(RunStep): s.Run}, nil
	case RestoreCacheStep:
		if s.RestoreCache == nil {
			return nil, errors.New("restore_cache step without body")
		}

		return map[string]any{string(RestoreCacheStep): s.RestoreCache}, nil
	case SaveCacheStep:
		if s.SaveCache == nil {
			return nil, errors.New("save_cache step without body")
		}

		return map[string]any{string(SaveCacheStep): s.SaveCache}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownStep, "%q", s.Kind)
	}
}

func isKnown(kind StepKind) bool {
	switch kind {
	case CheckoutStep, RunStep, RestoreCacheStep, SaveCacheStep:
		return true
	default:
		return false
	}
}
