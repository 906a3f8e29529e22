package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/askiada/go-grammarbot/pkg/batch"
	"github.com/askiada/go-grammarbot/pkg/grammarbot"
	"github.com/askiada/go-grammarbot/pkg/pipeline/drawer"
	"github.com/askiada/go-grammarbot/pkg/pipeline/measure"
)

// ErrIssuesFound is returned by check --fail-on-issues when a text has issues.
var ErrIssuesFound = errors.New("grammar issues found")

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Text            []string `arg:"" optional:"" help:"Texts to check"`
	File            []string `short:"f" type:"existingfile" help:"Files to check"`
	Stdin           bool     `help:"Check the text read from standard input"`
	Format          string   `enum:"text,json" default:"text" help:"Output format (text, json)"`
	Fix             bool     `help:"Print the corrected texts"`
	FailOnIssues    bool     `name:"fail-on-issues" help:"Fail when at least one issue is found"`
	Concurrency     int      `help:"Number of texts checked at the same time (overrides the configuration)"`
	Graph           string   `type:"path" help:"Write the DOT graph of the check pipeline to this file (with --verbose, also log stage timings)"`
	MetricsTextfile string   `name:"metrics-textfile" type:"path" help:"Write the client metrics to this file in the Prometheus text format"`
}

func (c *CheckCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	docs, err := c.documents(g.In)
	if err != nil {
		return err
	}

	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return errors.Wrap(grammarbot.ErrEmptyAPIKey, "set api_key in the configuration or GRAMMARBOT_API_KEY")
	}

	reg := prometheus.NewRegistry()
	opts := append(cfg.ClientOptions(),
		grammarbot.WithRecorder(grammarbot.NewPrometheusRecorder(reg)),
		grammarbot.WithLogger(slog.Default()),
	)
	client, err := grammarbot.New(cfg.APIKey, opts...)
	if err != nil {
		return errors.Wrap(err, "unable to create client")
	}

	concurrency := cfg.Concurrency
	if c.Concurrency > 0 {
		concurrency = c.Concurrency
	}
	batchOpts := []batch.Option{batch.WithConcurrency(concurrency), batch.WithLogger(slog.Default())}

	var msr *measure.DefaultMeasure
	if c.Graph != "" {
		graphFile, err := os.Create(c.Graph)
		if err != nil {
			return errors.Wrap(err, "unable to create graph file")
		}
		defer func() {
			_ = graphFile.Close()
		}()
		msr = measure.NewDefaultMeasure()
		batchOpts = append(batchOpts,
			batch.WithMeasure(msr),
			batch.WithDrawer(drawer.NewDOTDrawer(graphFile)),
		)
	}

	reports, runErr := batch.Run(ctx, client, docs, batchOpts...)
	if msr != nil && runErr == nil {
		logStageSummaries(ctx, slog.Default(), msr)
	}

	if c.MetricsTextfile != "" {
		err := prometheus.WriteToTextfile(c.MetricsTextfile, reg)
		if err != nil {
			return errors.Wrap(err, "unable to write metrics")
		}
	}
	if runErr != nil {
		return runErr
	}

	switch c.Format {
	case "json":
		err = writeJSON(g.Out, reports, c.Fix)
	default:
		err = writeText(g.Out, reports, c.Fix)
	}
	if err != nil {
		return errors.Wrap(err, "unable to write reports")
	}

	if summary := batch.Summarize(reports); c.FailOnIssues && summary.WithIssues > 0 {
		return errors.Wrapf(ErrIssuesFound, "%d of %d text(s)", summary.WithIssues, summary.Documents)
	}

	return nil
}

// logStageSummaries logs the timing of every pipeline stage at debug level.
func logStageSummaries(ctx context.Context, logger *slog.Logger, msr measure.Measure) {
	for _, sum := range measure.Summaries(msr) {
		logger.DebugContext(ctx, "Pipeline stage",
			"step", sum.Name, "count", sum.Count, "average", sum.Average, "total", sum.Total)
	}
}

func (c *CheckCmd) documents(stdin io.Reader) ([]batch.Document, error) {
	docs := make([]batch.Document, 0, len(c.Text)+len(c.File)+1)
	for idx, text := range c.Text {
		docs = append(docs, batch.Document{Name: "arg " + strconv.Itoa(idx+1), Text: text})
	}
	for _, path := range c.File {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read %s", path)
		}
		docs = append(docs, batch.Document{Name: path, Text: string(data)})
	}
	if c.Stdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read standard input")
		}
		docs = append(docs, batch.Document{Name: "stdin", Text: string(data)})
	}

	if len(docs) == 0 {
		return nil, errors.New("nothing to check: pass texts, --file or --stdin")
	}

	return docs, nil
}

func writeText(wrt io.Writer, reports []batch.Report, fix bool) error {
	for _, rep := range reports {
		matches := rep.Response.Matches
		if len(matches) == 0 {
			_, err := fmt.Fprintf(wrt, "%s: no issues\n", rep.Document.Name)
			if err != nil {
				return err
			}

			continue
		}

		_, err := fmt.Fprintf(wrt, "%s: %d issue(s)\n", rep.Document.Name, len(matches))
		if err != nil {
			return err
		}
		for _, match := range matches {
			line, col := grammarbot.Position(rep.Document.Text, match.Offset)
			suggestion := ""
			if replacement, ok := match.Replacement(); ok {
				suggestion = " -> " + replacement
			}
			_, err := fmt.Fprintf(wrt, "  %d:%d %q%s [%s] %s\n",
				line, col, match.Span(rep.Document.Text), suggestion, match.Rule.ID, match.Message)
			if err != nil {
				return err
			}
		}
		if fix {
			_, err := fmt.Fprintf(wrt, "%s\n", rep.Corrected)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

type jsonReport struct {
	Name      string             `json:"name"`
	Matches   []grammarbot.Match `json:"matches"`
	Corrected string             `json:"corrected,omitempty"`
}

func writeJSON(wrt io.Writer, reports []batch.Report, fix bool) error {
	out := make([]jsonReport, len(reports))
	for idx, rep := range reports {
		out[idx] = jsonReport{Name: rep.Document.Name, Matches: rep.Response.Matches}
		if out[idx].Matches == nil {
			out[idx].Matches = []grammarbot.Match{}
		}
		if fix {
			out[idx].Corrected = rep.Corrected
		}
	}

	enc := json.NewEncoder(wrt)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
