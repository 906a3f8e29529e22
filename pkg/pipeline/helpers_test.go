package pipeline_test

import (
	"context"
	"testing"

	"github.com/askiada/go-grammarbot/pkg/pipeline/model"
)

func createInputStep(ctx context.Context, t *testing.T, total int) *model.Step[int] {
	t.Helper()
	inputChan := make(chan int)
	go func() {
		defer close(inputChan)
		for i := 0; i < total; i++ {
			select {
			case <-ctx.Done():
				return
			case inputChan <- i:
			}
		}
	}()

	return &model.Step[int]{
		Output:  inputChan,
		Details: &model.StepInfo{Type: model.RootStepType, Name: "input", Concurrent: 1},
	}
}

func processOutputChan(t *testing.T, output <-chan int) (res []int) {
	t.Helper()
	for out := range output {
		res = append(res, out)
	}

	return res
}

func collect(t *testing.T, output <-chan int) <-chan []int {
	t.Helper()
	done := make(chan []int, 1)
	go func() {
		done <- processOutputChan(t, output)
	}()

	return done
}

func rangeList(total int) []int {
	res := make([]int, total)
	for i := range res {
		res[i] = i
	}

	return res
}
