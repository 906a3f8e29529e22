package ciconfig

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// BuildJob is the name of the only job of the pipeline.
const BuildJob = "build"

// ErrInvalidConfig is matched by every *ValidationError.
var ErrInvalidConfig = errors.New("invalid pipeline definition")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report YAML names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

// Issue is a single problem found in a definition.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// ValidationError lists every issue found by Validate.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		msgs[i] = issue.String()
	}

	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

// Is matches ErrInvalidConfig.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidConfig //nolint:errorlint,goerr113
}

// Validate checks the definition and returns a *ValidationError listing every issue.
func (c *Config) Validate() error {
	issues := structIssues("", c)

	if len(c.Jobs) > 0 {
		if len(c.Jobs) != 1 {
			issues = append(issues, Issue{Path: "jobs", Message: fmt.Sprintf("must define exactly one job, got %d", len(c.Jobs))})
		}
		if _, ok := c.Jobs[BuildJob]; !ok {
			issues = append(issues, Issue{Path: "jobs", Message: fmt.Sprintf("must define a job named %q", BuildJob)})
		}
	}

	for _, name := range c.JobNames() {
		prefix := "jobs." + name
		job := c.Jobs[name]
		if job == nil {
			issues = append(issues, Issue{Path: prefix, Message: "job must not be empty"})

			continue
		}
		issues = append(issues, structIssues(prefix, job)...)
		issues = append(issues, job.stepIssues(prefix)...)
	}

	if len(issues) == 0 {
		return nil
	}

	return &ValidationError{Issues: issues}
}

// JobNames returns the job names in lexical order.
func (c *Config) JobNames() []string {
	names := make([]string, 0, len(c.Jobs))
	for name := range c.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func structIssues(prefix string, s any) []Issue {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Issue{{Path: prefix, Message: err.Error()}}
	}

	issues := make([]Issue, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		// drop the struct type name heading the namespace
		_, path, _ := strings.Cut(fieldErr.Namespace(), ".")
		issues = append(issues, Issue{Path: joinPath(prefix, path), Message: fieldMessage(fieldErr)})
	}

	return issues
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s element(s)", fieldErr.Param())
	default:
		return fmt.Sprintf("failed %q validation", fieldErr.Tag())
	}
}

func joinPath(prefix, path string) string {
	if prefix == "" {
		return path
	}

	return prefix + "." + path
}

func (j *Job) stepIssues(prefix string) []Issue {
	var issues []Issue
	if len(j.Steps) > 0 && j.Steps[0].Kind != CheckoutStep {
		issues = append(issues, Issue{Path: prefix + ".steps[0]", Message: "first step must be checkout"})
	}

	restored := map[string]bool{}
	for idx, step := range j.Steps {
		path := fmt.Sprintf("%s.steps[%d]", prefix, idx)
		switch step.Kind {
		case CheckoutStep:
		case RunStep:
			if step.Run == nil || strings.TrimSpace(step.Run.Command) == "" {
				issues = append(issues, Issue{Path: path, Message: "run command must not be empty"})
			}
		case RestoreCacheStep:
			keys := step.RestoreCache.CacheKeys()
			if len(keys) == 0 {
				issues = append(issues, Issue{Path: path, Message: "restore_cache must define at least one key"})
			}
			for _, key := range keys {
				if key == "" {
					issues = append(issues, Issue{Path: path, Message: "restore_cache key must not be empty"})

					continue
				}
				if !j.savedAfter(key, idx) {
					issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("restore_cache key %q is not saved by a later save_cache step", key)})
				}
				restored[key] = true
			}
		case SaveCacheStep:
			issues = append(issues, saveCacheIssues(path, step.SaveCache, restored)...)
		default:
			issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("%s: %q", ErrUnknownStep, step.Kind)})
		}
	}

	return issues
}

func saveCacheIssues(path string, save *SaveCache, restored map[string]bool) []Issue {
	if save == nil {
		return []Issue{{Path: path, Message: "save_cache must define a key and paths"}}
	}

	var issues []Issue
	if save.Key == "" {
		issues = append(issues, Issue{Path: path, Message: "save_cache key must not be empty"})
	} else if !restored[save.Key] {
		issues = append(issues, Issue{Path: path, Message: fmt.Sprintf("save_cache key %q is not restored by an earlier restore_cache step", save.Key)})
	}
	if len(save.Paths) == 0 {
		issues = append(issues, Issue{Path: path, Message: "save_cache must define at least one path"})
	}

	return issues
}

func (j *Job) savedAfter(key string, idx int) bool {
	for _, step := range j.Steps[idx+1:] {
		if step.Kind == SaveCacheStep && step.SaveCache != nil && step.SaveCache.Key == key {
			return true
		}
	}

	return false
}
