// Package pipeline runs data through a graph of named stages connected by channels.
//
// A pipeline starts with one or more root steps producing elements, transforms them with
// steps that can run on several goroutines, routes them with splitters and mergers, and
// consumes them with sinks. Every stage runs in its own goroutines and reports at most one
// error. Run stops on the first error, cancels the remaining stages and returns that error
// prefixed by the name of the stage it comes from.
//
// Options implementing model.PipelineOption observe every stage while it is wired and every
// element while it flows, which is how measures and graph drawings are collected.
package pipeline
