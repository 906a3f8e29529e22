package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/askiada/go-grammarbot/pkg/ciconfig"
)

// CICmd groups the pipeline definition commands.
type CICmd struct {
	Validate CIValidateCmd `cmd:"" help:"Validate a pipeline definition"`
	Init     CIInitCmd     `cmd:"" help:"Write a preset pipeline definition"`
	Graph    CIGraphCmd    `cmd:"" help:"Draw the step graph of a pipeline definition (DOT)"`
}

// CIValidateCmd implements the 'ci validate' command.
type CIValidateCmd struct {
	File string `arg:"" optional:"" type:"path" default:".circleci/config.yml" help:"Pipeline definition"`
}

func (v *CIValidateCmd) Run(g *Global) error {
	cfg, err := ciconfig.Load(v.File)
	if err != nil {
		return err
	}

	err = cfg.Validate()
	var validationErr *ciconfig.ValidationError
	if errors.As(err, &validationErr) {
		for _, issue := range validationErr.Issues {
			_, _ = fmt.Fprintf(g.Out, "%s: %s\n", v.File, issue)
		}

		return errors.Wrapf(ciconfig.ErrInvalidConfig, "%s: %d issue(s)", v.File, len(validationErr.Issues))
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(g.Out, "%s is valid\n", v.File)

	return err
}

// CIInitCmd implements the 'ci init' command.
type CIInitCmd struct {
	Preset string `enum:"go,rust" default:"go" help:"Preset to write (go, rust)"`
	Output string `short:"o" default:".circleci/config.yml" help:"Output file, - for standard output"`
	Force  bool   `help:"Overwrite an existing pipeline definition"`
}

func (i *CIInitCmd) Run(g *Global) error {
	cfg, err := ciconfig.Preset(i.Preset)
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if i.Output == "-" {
		_, err = g.Out.Write(data)

		return err
	}

	_, err = os.Stat(i.Output)
	if err == nil && !i.Force {
		return errors.Errorf("%s already exists, use --force to overwrite it", i.Output)
	}

	err = os.MkdirAll(filepath.Dir(i.Output), 0o755)
	if err != nil {
		return errors.Wrap(err, "unable to create output directory")
	}
	err = os.WriteFile(i.Output, data, 0o644) //nolint:gosec // the definition is committed with the sources
	if err != nil {
		return errors.Wrapf(err, "unable to write %s", i.Output)
	}

	_, err = fmt.Fprintf(g.Out, "Wrote the %s pipeline to %s\n", i.Preset, i.Output)

	return err
}

// CIGraphCmd implements the 'ci graph' command.
type CIGraphCmd struct {
	File   string `arg:"" optional:"" type:"path" default:".circleci/config.yml" help:"Pipeline definition"`
	Output string `short:"o" type:"path" help:"Output file (default: standard output)"`
}

func (c *CIGraphCmd) Run(g *Global) error {
	cfg, err := ciconfig.Load(c.File)
	if err != nil {
		return err
	}

	if c.Output == "" {
		return cfg.WriteDOT(g.Out)
	}

	out, err := os.Create(c.Output)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", c.Output)
	}
	err = cfg.WriteDOT(out)
	if err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
