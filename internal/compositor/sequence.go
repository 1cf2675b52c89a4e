package compositor

import (
	"fmt"
	"strings"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/video"
)

// HasCrossfades reports whether any clip blends into its predecessor.
func HasCrossfades(clips []Clip) bool {
	for _, c := range clips {
		if c.Overlap > 0 {
			return true
		}
	}
	return false
}

// Sequence joins clip streams in order and returns the output label. A clip
// with an overlap crossfades in at its narration start; the others cut.
// labels[i] is the stream of clips[i].
func Sequence(g *video.Graph, clips []Clip, labels []string, fps int) string {
	if len(labels) == 1 {
		return labels[0]
	}
	if !HasCrossfades(clips) {
		out := g.Label("seq")
		g.Chain("%sconcat=n=%d:v=1:a=0%s", strings.Join(labels, ""), len(labels), out)
		return out
	}

	out := labels[0]
	for i := 1; i < len(clips); i++ {
		next := g.Label("seq")
		c := clips[i]
		if c.Overlap > 0 {
			g.Chain("%s%sxfade=transition=fade:duration=%s:offset=%s%s",
				out, labels[i], secs(frameSecs(c.Overlap, fps)), secs(frameSecs(c.StartFrame, fps)), next)
		} else {
			g.Chain("%s%sconcat=n=2:v=1:a=0%s", out, labels[i], next)
		}
		out = next
	}
	return out
}

// SegmentInputs adds encoded segments as inputs and returns their normalized
// stream labels, ready for Sequence.
func SegmentInputs(g *video.Graph, paths []string, fps int) []string {
	labels := make([]string, len(paths))
	for i, p := range paths {
		idx := g.AddInput(video.Input{Path: p})
		labels[i] = g.Label("seg")
		g.Chain("[%d:v]fps=%d,setsar=1,settb=AVTB%s", idx, fps, labels[i])
	}
	return labels
}

// Frames is the total video length of a plan in frames.
func Frames(clips []Clip) int {
	if len(clips) == 0 {
		return 0
	}
	last := clips[len(clips)-1]
	return last.StartFrame + last.Frames
}

func frameSecs(frames, fps int) float64 {
	return float64(frames) / float64(fps)
}

func (c *Clip) String() string {
	return fmt.Sprintf("scene %d @%d+%d (xfade %d, %s)", c.Resolved.Index, c.StartFrame, c.Frames, c.Overlap, c.Motion.Kind)
}
