package model

// StepType identifies the kind of stage a step belongs to.
type StepType string

const (
	RootStepType     StepType = "root"
	NormalStepType   StepType = "step"
	SplitterStepType StepType = "splitter"
	SinkStepType     StepType = "sink"
	MergerStepType   StepType = "merger"
)

// StepInfo describes a step independently of the type of data it produces.
type StepInfo struct {
	Type       StepType
	Name       string
	Concurrent int
	BufferSize int
}

var (
	// StartStep is the virtual parent of every root step.
	StartStep = &StepInfo{Name: "start"}
	// EndStep is the virtual child of every sink.
	EndStep = &StepInfo{Name: "end"}
)

// Step is a stage of the pipeline. Output is closed once the step is done.
type Step[O any] struct {
	Output  chan O
	Details *StepInfo
}

// Info returns the details of the step, or an anonymous placeholder when the step
// was built by hand.
func (s *Step[O]) Info() *StepInfo {
	if s.Details == nil {
		s.Details = &StepInfo{Type: NormalStepType, Name: "anonymous", Concurrent: 1}
	}

	return s.Details
}
