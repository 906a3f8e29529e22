package batch

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-grammarbot/pkg/grammarbot"
	"github.com/askiada/go-grammarbot/pkg/pipeline"
	"github.com/askiada/go-grammarbot/pkg/pipeline/drawer"
	"github.com/askiada/go-grammarbot/pkg/pipeline/measure"
	"github.com/askiada/go-grammarbot/pkg/pipeline/model"
)

// Document is a named text to check.
type Document struct {
	Name string
	Text string
}

// Report is the outcome of checking a document.
type Report struct {
	// Index is the position of the document in the input of Run.
	Index     int
	Document  Document
	Response  *grammarbot.Response
	Corrected string
}

// HasIssues reports whether the checker found at least one issue in the document.
func (r Report) HasIssues() bool {
	return r.Response.HasIssues()
}

// Checker checks a single text. *grammarbot.Client implements it.
type Checker interface {
	Check(ctx context.Context, text string) (*grammarbot.Response, error)
}

var _ Checker = (*grammarbot.Client)(nil)

// Run checks docs with checker and returns one report per document, in input order.
// The first failing check cancels the remaining ones and is returned.
func Run(ctx context.Context, checker Checker, docs []Document, opts ...Option) ([]Report, error) {
	if checker == nil {
		return nil, errors.New("checker must be set")
	}

	o := &options{concurrency: DefaultConcurrency, logger: discardLogger()}
	for _, opt := range opts {
		opt(o)
	}

	var pipeOpts []model.PipelineOption
	if o.measure != nil {
		pipeOpts = append(pipeOpts, measure.PipelineMeasure(o.measure))
	}
	if o.drawer != nil {
		pipeOpts = append(pipeOpts, drawer.PipelineDrawer(o.drawer, o.measure))
	}

	pipe, err := pipeline.New(ctx, pipeOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create pipeline")
	}

	reports := make([]Report, len(docs))
	err = build(pipe, checker, docs, reports, o)
	if err != nil {
		pipe.Close()

		return nil, err
	}

	err = pipe.Run()
	if err != nil {
		return nil, errors.Wrap(err, "unable to check documents")
	}

	summary := Summarize(reports)
	o.logger.InfoContext(ctx, "Checked documents", "documents", summary.Documents, "with_issues", summary.WithIssues, "matches", summary.Matches)

	return reports, nil
}

func build(pipe *pipeline.Pipeline, checker Checker, docs []Document, reports []Report, o *options) error {
	documents, err := pipeline.AddRootStep(pipe, "documents", func(ctx context.Context, rootChan chan<- Report) error {
		for idx, doc := range docs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- Report{Index: idx, Document: doc}:
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "unable to add documents step")
	}

	checked, err := pipeline.AddStepOneToOne(pipe, "check", documents, func(ctx context.Context, rep Report) (Report, error) {
		// blank documents are reported clean without a request
		if strings.TrimSpace(rep.Document.Text) == "" {
			rep.Response = &grammarbot.Response{}

			return rep, nil
		}
		res, err := checker.Check(ctx, rep.Document.Text)
		if err != nil {
			return rep, errors.Wrapf(err, "unable to check document %q", rep.Document.Name)
		}
		if res == nil {
			res = &grammarbot.Response{}
		}
		rep.Response = res
		o.logger.DebugContext(ctx, "Checked document", "document", rep.Document.Name, "matches", len(res.Matches))

		return rep, nil
	}, pipeline.StepConcurrency[Report](o.concurrency))
	if err != nil {
		return errors.Wrap(err, "unable to add check step")
	}

	triage, err := pipeline.AddSplitterFn(pipe, "triage", checked, []pipeline.SplitterFn[Report]{
		func(rep Report) (bool, error) { return rep.HasIssues(), nil },
		func(rep Report) (bool, error) { return !rep.HasIssues(), nil },
	})
	if err != nil {
		return errors.Wrap(err, "unable to add triage splitter")
	}
	withIssues, _ := triage.Get()
	clean, _ := triage.Get()

	corrected, err := pipeline.AddStepOneToOne(pipe, "correct", withIssues, func(_ context.Context, rep Report) (Report, error) {
		rep.Corrected = rep.Response.Correct(rep.Document.Text)

		return rep, nil
	})
	if err != nil {
		return errors.Wrap(err, "unable to add correct step")
	}

	passed, err := pipeline.AddStepOneToOne(pipe, "passthrough", clean, func(_ context.Context, rep Report) (Report, error) {
		rep.Corrected = rep.Document.Text

		return rep, nil
	})
	if err != nil {
		return errors.Wrap(err, "unable to add passthrough step")
	}

	collected, err := pipeline.AddMerger(pipe, "collect", corrected, passed)
	if err != nil {
		return errors.Wrap(err, "unable to add collect merger")
	}

	err = pipeline.AddSink(pipe, "report", collected, func(_ context.Context, rep Report) error {
		reports[rep.Index] = rep

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "unable to add report sink")
	}

	return nil
}
