package video

import (
	"fmt"
	"strings"
)

// Input is one ffmpeg input. A non-nil Feed streams the input from Go over
// an inherited pipe instead of a file.
type Input struct {
	Options []string // placed before -i
	Path    string
	Feed    Feed
}

// Graph accumulates inputs and filter_complex chains for one invocation.
type Graph struct {
	inputs []Input
	feeds  []Feed
	chains []string
	labels map[string]int
}

func NewGraph() *Graph {
	return &Graph{labels: make(map[string]int)}
}

// AddInput registers an input and returns its index.
func (g *Graph) AddInput(in Input) int {
	if in.Feed != nil {
		// ExtraFiles start at descriptor 3 in the child.
		in.Path = fmt.Sprintf("pipe:%d", 3+len(g.feeds))
		g.feeds = append(g.feeds, in.Feed)
	}
	g.inputs = append(g.inputs, in)
	return len(g.inputs) - 1
}

// Chain appends one filter chain, e.g. "[0:v]scale=...[v0]".
func (g *Graph) Chain(format string, args ...any) {
	g.chains = append(g.chains, fmt.Sprintf(format, args...))
}

// Label returns a fresh pad name such as "[vs3]".
func (g *Graph) Label(prefix string) string {
	n := g.labels[prefix]
	g.labels[prefix] = n + 1
	return fmt.Sprintf("[%s%d]", prefix, n)
}

func (g *Graph) Inputs() []Input {
	return g.inputs
}

func (g *Graph) Feeds() []Feed {
	return g.feeds
}

// InputArgs renders the -i section of the command line.
func (g *Graph) InputArgs() []string {
	var args []string
	for _, in := range g.inputs {
		args = append(args, in.Options...)
		args = append(args, "-i", in.Path)
	}
	return args
}

// Filter renders the filter_complex argument.
func (g *Graph) Filter() string {
	return strings.Join(g.chains, ";")
}

// Args renders inputs, the filter graph and the given output maps.
func (g *Graph) Args(maps ...string) []string {
	args := g.InputArgs()
	if len(g.chains) > 0 {
		args = append(args, "-filter_complex", g.Filter())
	}
	for _, m := range maps {
		args = append(args, "-map", m)
	}
	return args
}
