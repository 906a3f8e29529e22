package ciconfig

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where CircleCI looks for the pipeline definition.
const DefaultPath = ".circleci/config.yml"

// Config is the root of a pipeline definition.
type Config struct {
	Version string          `yaml:"version" validate:"required"`
	Jobs    map[string]*Job `yaml:"jobs"    validate:"required,min=1"`
}

// Job is an ordered list of steps executed in a container image.
type Job struct {
	Docker []Image `yaml:"docker" validate:"required,min=1,dive"`
	Steps  []Step  `yaml:"steps"  validate:"required,min=1"`
}

// Image is a container image a job runs in.
type Image struct {
	Image string `yaml:"image" validate:"required"`
}

// Parse decodes a pipeline definition. Unknown fields and step kinds are rejected.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	cfg := &Config{}
	err := dec.Decode(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode pipeline definition")
	}

	return cfg, nil
}

// Load reads and decodes the pipeline definition at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", path)
	}

	return cfg, nil
}

// Marshal encodes the definition in YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	err := enc.Encode(c)
	if err != nil {
		return nil, errors.Wrap(err, "unable to encode pipeline definition")
	}
	err = enc.Close()
	if err != nil {
		return nil, errors.Wrap(err, "unable to flush pipeline definition")
	}

	return buf.Bytes(), nil
}
