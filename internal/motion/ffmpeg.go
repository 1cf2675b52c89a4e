package motion

import (
	"fmt"
)

// ZoomPan prints m as a zoompan filter. The input is a canvas base times the
// output size; zoom base shows exactly one output frame of it at rest. Layer
// offsets move the content, so the window moves the opposite way.
func (m Motion) ZoomPan(base float64, width, height, frames int) string {
	v := ZoomPanVars(m.FPS)

	z := Mul(Const(base), m.Scale).Format(v)
	x := fmt.Sprintf("iw/2-iw/zoom/2-%s*iw/zoom/%d", m.OffsetX.Format(v), width)
	y := fmt.Sprintf("ih/2-ih/zoom/2-%s*ih/zoom/%d", m.OffsetY.Format(v), height)

	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=%d:s=%dx%d:fps=%d",
		z, x, y, frames, width, height, m.FPS)
}
