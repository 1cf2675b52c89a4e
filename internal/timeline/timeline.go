package timeline

import (
	"fmt"
	"math"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
)

// ErrNoScenes is fatal for a render: there is nothing to place on the timeline.
var ErrNoScenes = scene.ErrNoScenes

// Clip is the timing input of one rendered scene.
type Clip struct {
	Index    int     // scene index in the manifest
	Duration float64 // narration duration, authoritative
	Overlap  float64 // crossfade length into this clip from its predecessor
}

// Entry is a placed clip.
type Entry struct {
	Index        int
	Start        float64 // absolute start of the scene's narration
	Duration     float64 // narration duration
	ClipDuration float64 // rendered length: Duration plus the successor's crossfade
	Overlap      float64 // crossfade into this clip, 0 for the first clip
}

// End returns the absolute end of the scene's narration.
func (e Entry) End() float64 {
	return e.Start + e.Duration
}

type Timeline struct {
	Entries []Entry
	Total   float64
}

// ComputeStartTimes returns the cumulative start offset of every duration.
func ComputeStartTimes(durations []float64) ([]float64, error) {
	if len(durations) == 0 {
		return nil, ErrNoScenes
	}

	starts := make([]float64, len(durations))
	acc := 0.0
	for i, d := range durations {
		starts[i] = acc
		acc += d
	}
	return starts, nil
}

// Build places clips back to back. A clip followed by a crossfade is held on its
// last frame for the length of that crossfade, so the visual overlap never
// shortens the narration: Total = sum(ClipDuration) - sum(Overlap) = sum(Duration).
func Build(clips []Clip) (*Timeline, error) {
	if len(clips) == 0 {
		return nil, ErrNoScenes
	}

	durations := make([]float64, len(clips))
	for i, c := range clips {
		if c.Duration <= 0 {
			return nil, fmt.Errorf("clip %d has non-positive duration %.3f", c.Index, c.Duration)
		}
		durations[i] = c.Duration
	}

	starts, err := ComputeStartTimes(durations)
	if err != nil {
		return nil, err
	}

	tl := &Timeline{Entries: make([]Entry, len(clips))}
	for i, c := range clips {
		overlap := 0.0
		if i > 0 {
			overlap = ClampOverlap(c.Overlap, c.Duration)
		}
		tl.Entries[i] = Entry{
			Index:        c.Index,
			Start:        starts[i],
			Duration:     c.Duration,
			ClipDuration: c.Duration,
			Overlap:      overlap,
		}
		if i > 0 {
			tl.Entries[i-1].ClipDuration += overlap
		}
	}

	for _, e := range tl.Entries {
		tl.Total += e.ClipDuration - e.Overlap
	}
	return tl, nil
}

// ClampOverlap keeps a crossfade within the first half of the incoming clip.
func ClampOverlap(overlap, duration float64) float64 {
	if overlap <= 0 {
		return 0
	}
	if overlap > duration/2 {
		return duration / 2
	}
	return overlap
}

// TotalOverlap is the time borrowed by all crossfades.
func (tl *Timeline) TotalOverlap() float64 {
	sum := 0.0
	for _, e := range tl.Entries {
		sum += e.Overlap
	}
	return sum
}

// FrameAlign rounds d to a whole number of frames, never below one frame.
func FrameAlign(d float64, fps int) float64 {
	if fps <= 0 {
		return d
	}
	frames := math.Round(d * float64(fps))
	if frames < 1 {
		frames = 1
	}
	return frames / float64(fps)
}
