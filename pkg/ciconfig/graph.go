package ciconfig

import (
	"fmt"
	"io"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/go-grammarbot/pkg/pipeline/drawer"
	"github.com/askiada/go-grammarbot/pkg/pipeline/model"
)

// StepID returns the vertex name of the step at index idx of job in the step graph.
func StepID(job string, idx int, step Step) string {
	return fmt.Sprintf("%s %d: %s", job, idx+1, step.Label())
}

// Graph returns the step graph: every job runs its steps in order between the start
// and end vertices, and a dashed edge links each restore_cache step to the
// save_cache steps sharing one of its keys.
func (c *Config) Graph() (graph.Graph[string, string], error) {
	gra := graph.New(graph.StringHash, graph.Directed())
	for _, name := range []string{model.StartStep.Name, model.EndStep.Name} {
		err := gra.AddVertex(name, graph.VertexAttribute("shape", "oval"))
		if err != nil {
			return nil, errors.Wrapf(err, "unable to add %s vertex", name)
		}
	}

	for _, name := range c.JobNames() {
		job := c.Jobs[name]
		if job == nil {
			continue
		}

		ids := make([]string, len(job.Steps))
		prev := model.StartStep.Name
		for idx, step := range job.Steps {
			ids[idx] = StepID(name, idx, step)
			err := gra.AddVertex(ids[idx], graph.VertexAttribute("shape", "box"))
			if err != nil {
				return nil, errors.Wrapf(err, "unable to add step %q", ids[idx])
			}
			err = addEdge(gra, prev, ids[idx])
			if err != nil {
				return nil, err
			}
			prev = ids[idx]
		}
		err := addEdge(gra, prev, model.EndStep.Name)
		if err != nil {
			return nil, err
		}

		err = addCacheEdges(gra, job, ids)
		if err != nil {
			return nil, err
		}
	}

	return gra, nil
}

func addCacheEdges(gra graph.Graph[string, string], job *Job, ids []string) error {
	for i, restore := range job.Steps {
		if restore.Kind != RestoreCacheStep {
			continue
		}
		for _, key := range restore.RestoreCache.CacheKeys() {
			for j := i + 1; j < len(job.Steps); j++ {
				save := job.Steps[j]
				if save.Kind != SaveCacheStep || save.SaveCache == nil || save.SaveCache.Key != key {
					continue
				}
				err := addEdge(gra, ids[i], ids[j], graph.EdgeAttribute("style", "dashed"), graph.EdgeAttribute("label", key))
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func addEdge(gra graph.Graph[string, string], source, target string, opts ...func(*graph.EdgeProperties)) error {
	err := gra.AddEdge(source, target, opts...)
	if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return errors.Wrapf(err, "unable to add edge from %q to %q", source, target)
	}

	return nil
}

// WriteDOT writes the step graph in the DOT language.
func (c *Config) WriteDOT(wrt io.Writer) error {
	gra, err := c.Graph()
	if err != nil {
		return err
	}

	return drawer.WriteDOT(wrt, gra, drawer.GraphAttribute("rankdir", "TB"))
}

// Draw feeds the step graph to d and draws it. Edge styles are not carried over.
func (c *Config) Draw(d drawer.Drawer) error {
	gra, err := c.Graph()
	if err != nil {
		return err
	}

	adjacencyMap, err := gra.AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to get adjacency map")
	}

	vertices := make([]string, 0, len(adjacencyMap))
	for vertex := range adjacencyMap {
		vertices = append(vertices, vertex)
	}
	sort.Strings(vertices)

	for _, vertex := range vertices {
		err := d.AddStep(vertex)
		if err != nil {
			return errors.Wrapf(err, "unable to draw step %q", vertex)
		}
	}
	for _, vertex := range vertices {
		for target := range adjacencyMap[vertex] {
			err := d.AddLink(vertex, target)
			if err != nil {
				return errors.Wrapf(err, "unable to draw link from %q to %q", vertex, target)
			}
		}
	}

	return d.Draw()
}
