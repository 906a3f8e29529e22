// Package ciconfig models the CircleCI pipeline definition of the repository.
//
// A definition is parsed from YAML, validated against the structural rules of the
// pipeline (a single "build" job, checkout first, matching cache keys), rendered back
// to YAML and drawn as a step graph. Definitions are never executed.
package ciconfig
