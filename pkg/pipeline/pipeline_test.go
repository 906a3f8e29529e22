package pipeline_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-grammarbot/pkg/pipeline"
	"github.com/askiada/go-grammarbot/pkg/pipeline/drawer"
	"github.com/askiada/go-grammarbot/pkg/pipeline/measure"
)

func identity(_ context.Context, input int) (int, error) {
	return input, nil
}

func TestAddStepOneToOneNilPipe(t *testing.T) {
	t.Parallel()

	_, err := pipeline.AddStepOneToOne(nil, "first step", createInputStep(context.Background(), t, 0), identity)
	assert.ErrorIs(t, err, pipeline.ErrPipelineMustBeSet)
}

func TestAddStepOneToOneNilInput(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)
	_, err = pipeline.AddStepOneToOne(pipe, "first step", nil, identity)
	assert.ErrorIs(t, err, pipeline.ErrInputMustBeSet)
}

func TestAddStepOneToOne(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	step, err := pipeline.AddStepOneToOne(pipe, "first step", createInputStep(ctx, t, 10), identity)
	require.NoError(t, err)

	done := collect(t, step.Output)

	require.NoError(t, pipe.Run())
	assert.ElementsMatch(t, rangeList(10), <-done)
}

func TestAddStepOneToOneConcurrent(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	step, err := pipeline.AddStepOneToOne(pipe, "first step", createInputStep(ctx, t, 100), func(_ context.Context, input int) (int, error) {
		return input * 2, nil
	}, pipeline.StepConcurrency[int](8), pipeline.StepBufferSize[int](4))
	require.NoError(t, err)
	assert.Equal(t, 8, step.Details.Concurrent)
	assert.Equal(t, 4, cap(step.Output))

	done := collect(t, step.Output)

	require.NoError(t, pipe.Run())

	expected := make([]int, 100)
	for i := range expected {
		expected[i] = i * 2
	}
	assert.ElementsMatch(t, expected, <-done)
}

func TestAddStepOneToOneError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	step, err := pipeline.AddStepOneToOne(pipe, "first step", createInputStep(ctx, t, 10), func(_ context.Context, input int) (int, error) {
		if input == 5 {
			return 0, assert.AnError
		}

		return input, nil
	})
	require.NoError(t, err)

	done := collect(t, step.Output)

	err = pipe.Run()
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "first step")
	assert.Equal(t, []int{0, 1, 2, 3, 4}, <-done)
}

func TestAddStepOneToOneOrZero(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	step, err := pipeline.AddStepOneToOneOrZero(pipe, "evens", createInputStep(ctx, t, 10), func(_ context.Context, input int) (int, bool, error) {
		return input, input%2 == 0, nil
	})
	require.NoError(t, err)

	done := collect(t, step.Output)

	require.NoError(t, pipe.Run())
	assert.Equal(t, []int{0, 2, 4, 6, 8}, <-done)
}

func TestAddStepOneToMany(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	step, err := pipeline.AddStepOneToMany(pipe, "twice", createInputStep(ctx, t, 5), func(_ context.Context, input int) ([]int, error) {
		return []int{input, input}, nil
	}, pipeline.StepConcurrency[int](2))
	require.NoError(t, err)

	done := collect(t, step.Output)

	require.NoError(t, pipe.Run())
	assert.ElementsMatch(t, []int{0, 0, 1, 1, 2, 2, 3, 3, 4, 4}, <-done)
}

func TestAddRootStepNilPipe(t *testing.T) {
	t.Parallel()

	_, err := pipeline.AddRootStep(nil, "root step", func(_ context.Context, _ chan<- int) error {
		return nil
	})
	assert.ErrorIs(t, err, pipeline.ErrPipelineMustBeSet)
}

func TestAddRootStepError(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)
	root, err := pipeline.AddRootStep(pipe, "root step", func(_ context.Context, rootChan chan<- int) error {
		rootChan <- 1

		return assert.AnError
	})
	require.NoError(t, err)

	done := collect(t, root.Output)

	err = pipe.Run()
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "root step")
	assert.Equal(t, []int{1}, <-done)
}

func TestAddRootStepCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	root, err := pipeline.AddRootStep(pipe, "root step", func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; ; i++ {
			if i == 3 {
				cancel()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- i:
			}
		}
	})
	require.NoError(t, err)

	err = pipeline.AddSink(pipe, "sink", root, func(_ context.Context, _ int) error {
		return nil
	})
	require.NoError(t, err)

	assert.ErrorIs(t, pipe.Run(), context.Canceled)
}

func TestCloseStopsStagesBeforeRun(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)
	stopped := make(chan error, 1)
	root, err := pipeline.AddRootStep(pipe, "root step", func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				stopped <- ctx.Err()

				return ctx.Err()
			case rootChan <- i:
			}
		}
	})
	require.NoError(t, err)

	pipe.Close()

	select {
	case err := <-stopped:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("root step still running after Close")
	}
	for range root.Output {
	}
}

func TestAddSinkNilInput(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)
	err = pipeline.AddSink[int](pipe, "sink", nil, func(_ context.Context, _ int) error {
		return nil
	})
	assert.ErrorIs(t, err, pipeline.ErrInputMustBeSet)
}

func TestAddSink(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)

	var got []int
	err = pipeline.AddSink(pipe, "sink", createInputStep(ctx, t, 10), func(_ context.Context, input int) error {
		got = append(got, input)

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, pipe.Run())
	assert.Equal(t, rangeList(10), got)
}

func TestAddSinkError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	err = pipeline.AddSink(pipe, "sink", createInputStep(ctx, t, 10), func(_ context.Context, input int) error {
		if input == 3 {
			return assert.AnError
		}

		return nil
	})
	require.NoError(t, err)

	err = pipe.Run()
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "sink")
}

func TestAddSinkFromChan(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)

	total := 0
	err = pipeline.AddSinkFromChan(pipe, "sink", createInputStep(ctx, t, 10), func(_ context.Context, input <-chan int) error {
		for in := range input {
			total += in
		}

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, pipe.Run())
	assert.Equal(t, 45, total)
}

func TestAddSplitterZero(t *testing.T) {
	t.Parallel()

	pipe, err := pipeline.New(context.Background())
	require.NoError(t, err)
	_, err = pipeline.AddSplitter(pipe, "splitter", createInputStep(context.Background(), t, 0), 0)
	assert.ErrorIs(t, err, pipeline.ErrSplitterTotal)
}

func TestAddSplitterAndMerger(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	splitter, err := pipeline.AddSplitter(pipe, "splitter", createInputStep(ctx, t, 5), 2, pipeline.SplitterBufferSize[int](10))
	require.NoError(t, err)

	branch1, ok := splitter.Get()
	require.True(t, ok)
	branch2, ok := splitter.Get()
	require.True(t, ok)
	_, ok = splitter.Get()
	assert.False(t, ok)

	times10, err := pipeline.AddStepOneToOne(pipe, "times 10", branch1, func(_ context.Context, input int) (int, error) {
		return input * 10, nil
	})
	require.NoError(t, err)
	times100, err := pipeline.AddStepOneToOne(pipe, "times 100", branch2, func(_ context.Context, input int) (int, error) {
		return input * 100, nil
	})
	require.NoError(t, err)

	merged, err := pipeline.AddMerger(pipe, "merger", times10, times100)
	require.NoError(t, err)

	done := collect(t, merged.Output)

	require.NoError(t, pipe.Run())
	assert.ElementsMatch(t, []int{0, 10, 20, 30, 40, 0, 100, 200, 300, 400}, <-done)
}

func TestAddSplitterFn(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	splitter, err := pipeline.AddSplitterFn(pipe, "parity", createInputStep(ctx, t, 10), []pipeline.SplitterFn[int]{
		func(input int) (bool, error) { return input%2 == 0, nil },
		func(input int) (bool, error) { return input%2 == 1, nil },
	})
	require.NoError(t, err)

	evens, _ := splitter.Get()
	odds, _ := splitter.Get()

	var (
		wg              sync.WaitGroup
		gotEven, gotOdd []int
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		gotEven = processOutputChan(t, evens.Output)
	}()
	go func() {
		defer wg.Done()
		gotOdd = processOutputChan(t, odds.Output)
	}()

	require.NoError(t, pipe.Run())
	wg.Wait()
	assert.Equal(t, []int{0, 2, 4, 6, 8}, gotEven)
	assert.Equal(t, []int{1, 3, 5, 7, 9}, gotOdd)
}

func TestAddSplitterFnError(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipe, err := pipeline.New(ctx)
	require.NoError(t, err)
	splitter, err := pipeline.AddSplitterFn(pipe, "failing", createInputStep(ctx, t, 10), []pipeline.SplitterFn[int]{
		func(input int) (bool, error) { return false, assert.AnError },
	})
	require.NoError(t, err)

	branch, _ := splitter.Get()
	done := collect(t, branch.Output)

	err = pipe.Run()
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failing")
	assert.Empty(t, <-done)
}

func TestCompletePipeline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	msr := measure.NewDefaultMeasure()
	pipe, err := pipeline.New(ctx, drawer.PipelineDrawer(drawer.NewDOTDrawer(&buf), msr), measure.PipelineMeasure(msr))
	require.NoError(t, err)

	root, err := pipeline.AddRootStep(pipe, "root step", func(ctx context.Context, rootChan chan<- int) error {
		for i := range 10 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- i:
			}
		}

		return nil
	})
	require.NoError(t, err)
	double, err := pipeline.AddStepOneToOne(pipe, "double", root, func(_ context.Context, input int) (int, error) {
		return input * 2, nil
	}, pipeline.StepConcurrency[int](3))
	require.NoError(t, err)

	sum := 0
	err = pipeline.AddSink(pipe, "sum", double, func(_ context.Context, input int) error {
		sum += input

		return nil
	})
	require.NoError(t, err)

	require.NoError(t, pipe.Run())
	assert.Equal(t, 90, sum)

	assert.EqualValues(t, 10, msr.GetMetric("double").Count())
	assert.EqualValues(t, 10, msr.GetMetric("sum").Count())
	assert.Positive(t, msr.GetMetric("sum").GetTotalDuration())

	out := buf.String()
	assert.Contains(t, out, "strict digraph {")
	assert.Contains(t, out, `"start" -> "root step"`)
	assert.Contains(t, out, `"root step" -> "double"`)
	assert.Contains(t, out, `"double" -> "sum"`)
	assert.Contains(t, out, `"sum" -> "end"`)
}
