package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-grammarbot/pkg/pipeline/model"
)

// Splitter fans the output of a step out to several branches.
type Splitter[I any] struct {
	mu            sync.Mutex
	currIdx       int
	mainStep      *model.Step[I]
	splittedSteps []*model.Step[I]
	bufferSize    int
	Total         int
}

// Get returns the next branch of the splitter, in order. It returns false once every
// branch has been handed out.
func (s *Splitter[I]) Get() (*model.Step[I], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currIdx >= len(s.splittedSteps) {
		return nil, false
	}
	step := s.splittedSteps[s.currIdx]
	s.currIdx++

	return step, true
}

// SplitterFn decides whether an element goes to the branch it is attached to.
type SplitterFn[I any] func(input I) (bool, error)

func always[I any](I) (bool, error) { return true, nil }

// AddSplitter adds a splitter copying every element of input to total branches.
func AddSplitter[I any](pipe *Pipeline, name string, input *model.Step[I], total int, opts ...SplitterOption[I]) (*Splitter[I], error) {
	if total <= 0 {
		return nil, ErrSplitterTotal
	}
	fns := make([]SplitterFn[I], total)
	for i := range fns {
		fns[i] = always[I]
	}

	return AddSplitterFn(pipe, name, input, fns, opts...)
}

// AddSplitterFn adds a splitter with one branch per function. An element is sent to every
// branch whose function accepts it, and dropped if none does.
func AddSplitterFn[I any](pipe *Pipeline, name string, input *model.Step[I], fns []SplitterFn[I], opts ...SplitterOption[I]) (*Splitter[I], error) {
	if pipe == nil {
		return nil, ErrPipelineMustBeSet
	}
	if input == nil {
		return nil, ErrInputMustBeSet
	}
	total := len(fns)
	if total == 0 {
		return nil, ErrSplitterTotal
	}

	splitter := &Splitter[I]{
		Total: total,
		mainStep: &model.Step[I]{
			Details: &model.StepInfo{
				Type:       model.SplitterStepType,
				Name:       name,
				Concurrent: 1,
			},
		},
	}
	for _, opt := range opts {
		opt(splitter)
	}
	if splitter.bufferSize <= 0 {
		splitter.bufferSize = 1
	}
	splitter.mainStep.Details.BufferSize = splitter.bufferSize

	splitter.splittedSteps = make([]*model.Step[I], total)
	for i := range splitter.splittedSteps {
		splitter.splittedSteps[i] = &model.Step[I]{
			Details: splitter.mainStep.Details,
			Output:  make(chan I, splitter.bufferSize),
		}
	}

	for _, opt := range pipe.opts {
		err := opt.PrepareSplitter(input.Info(), splitter.mainStep.Details)
		if err != nil {
			return nil, errors.Wrap(err, "unable to run before splitter function")
		}
	}

	errC := make(chan error, 1)
	decoratedError := newErrorChan(name, errC)
	go func() {
		defer func() {
			for _, step := range splitter.splittedSteps {
				close(step.Output)
			}
			close(errC)
		}()
		err := runSplitter(pipe.ctx, pipe, input, splitter, fns)
		if err != nil {
			sendError(errC, err)
		}
	}()
	pipe.errcList.add(decoratedError)

	return splitter, nil
}

func runSplitter[I any](ctx context.Context, pipe *Pipeline, input *model.Step[I], splitter *Splitter[I], fns []SplitterFn[I]) error {
	for {
		startIter := time.Now()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry, ok := <-input.Output:
			if !ok {
				return nil
			}
			startFn := time.Now()
			for i, fn := range fns {
				keep, err := fn(entry)
				if err != nil {
					return errors.Wrapf(err, "unable to run splitter function %d", i)
				}
				if !keep {
					continue
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case splitter.splittedSteps[i].Output <- entry:
				}
			}
			endFn := time.Since(startFn)
			endIter := time.Since(startIter) - endFn

			for _, opt := range pipe.opts {
				err := opt.OnSplitterOutput(input.Details, splitter.mainStep.Details, endIter, endFn)
				if err != nil {
					return errors.Wrap(err, "unable to run splitter output function")
				}
			}
		}
	}
}
