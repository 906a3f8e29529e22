package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-grammarbot/pkg/pipeline/model"
)

func (p *Pipeline) onStepOutput(input, output *model.StepInfo, iterationDuration, computationDuration time.Duration) error {
	for _, opt := range p.opts {
		err := opt.OnStepOutput(input, output, iterationDuration, computationDuration)
		if err != nil {
			return errors.Wrap(err, "unable to run step output option")
		}
	}

	return nil
}

func sequentialOneToManyFn[I any, O any](ctx context.Context, p *Pipeline, goIdx int, input *model.Step[I], output *model.Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
	for {
		start := time.Now()
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
		case in, ok := <-input.Output:
			if !ok {
				return nil
			}
			startFn := time.Now()
			outs, err := oneToManyFn(ctx, in)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}
			endFn := time.Since(startFn)
			for _, out := range outs {
				// check the context again so goroutines still running stop feeding the pipeline
				select {
				case <-ctx.Done():
					return errors.Wrapf(ctx.Err(), "go routine %d", goIdx)
				case output.Output <- out:
				}
			}
			err = p.onStepOutput(input.Details, output.Details, time.Since(start)-endFn, endFn)
			if err != nil {
				return errors.Wrapf(err, "go routine %d", goIdx)
			}
		}
	}
}

func oneToMany[I any, O any](ctx context.Context, p *Pipeline, input *model.Step[I], output *model.Step[O], oneToManyFn func(context.Context, I) ([]O, error)) error {
	if output.Details.Concurrent <= 1 {
		return sequentialOneToManyFn(ctx, p, 0, input, output, oneToManyFn)
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(output.Details.Concurrent)
	// each consumer stops as soon as one of them fails
	for goIdx := 0; goIdx < output.Details.Concurrent; goIdx++ {
		localGoIdx := goIdx
		errGrp.Go(func() error {
			return sequentialOneToManyFn(dCtx, p, localGoIdx, input, output, oneToManyFn)
		})
	}

	return errGrp.Wait()
}

func prepareStep[I, O any](pipe *Pipeline, name string, input *model.Step[I], opts ...StepOption[O]) (*model.Step[O], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step := &model.Step[O]{
		Details: &model.StepInfo{
			Type:       model.NormalStepType,
			Name:       name,
			Concurrent: 1,
		},
	}
	for _, opt := range opts {
		opt(step)
	}
	step.Output = make(chan O, step.Details.BufferSize)

	for _, opt := range pipe.opts {
		err := opt.PrepareStep(input.Info(), step.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before step function")
		}
	}

	return step, nil
}

func addStep[I any, O any](pipe *Pipeline, input *model.Step[I], step *model.Step[O], stepFn func(ctx context.Context, input *model.Step[I], output *model.Step[O]) error) *model.Step[O] {
	errC := make(chan error, 1)
	decoratedError := newErrorChan(step.Details.Name, errC)

	go func() {
		defer func() {
			close(step.Output)
			close(errC)
		}()
		err := stepFn(pipe.ctx, input, step)
		if err != nil {
			sendError(errC, err)
		}
	}()
	pipe.errcList.add(decoratedError)

	return step
}

// AddStepOneToOne adds a step producing exactly one output for every input.
func AddStepOneToOne[I any, O any](pipe *Pipeline, name string, input *model.Step[I], oneToOneFn func(context.Context, I) (O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	return AddStepOneToMany(pipe, name, input, func(ctx context.Context, in I) ([]O, error) {
		out, err := oneToOneFn(ctx, in)
		if err != nil {
			return nil, err
		}

		return []O{out}, nil
	}, opts...)
}

// AddStepOneToOneOrZero adds a step producing at most one output for every input.
// Inputs for which the function returns false are dropped.
func AddStepOneToOneOrZero[I any, O any](pipe *Pipeline, name string, input *model.Step[I], oneToOneOrZeroFn func(context.Context, I) (O, bool, error), opts ...StepOption[O]) (*model.Step[O], error) {
	return AddStepOneToMany(pipe, name, input, func(ctx context.Context, in I) ([]O, error) {
		out, keep, err := oneToOneOrZeroFn(ctx, in)
		if err != nil || !keep {
			return nil, err
		}

		return []O{out}, nil
	}, opts...)
}

// AddStepOneToMany adds a step producing any number of outputs for every input.
func AddStepOneToMany[I any, O any](pipe *Pipeline, name string, input *model.Step[I], oneToManyFn func(context.Context, I) ([]O, error), opts ...StepOption[O]) (*model.Step[O], error) {
	step, err := prepareStep(pipe, name, input, opts...)
	if err != nil {
		return nil, err
	}

	return addStep(pipe, input, step, func(ctx context.Context, in *model.Step[I], out *model.Step[O]) error {
		return oneToMany(ctx, pipe, in, out, oneToManyFn)
	}), nil
}
