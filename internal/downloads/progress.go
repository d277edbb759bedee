package downloads

import "fetcharr/internal/domain/consts"

// progressClamp keeps reported progress from moving backwards.
//
// A negative value marks an indeterminate stage and resets the window, so the next
// determinate value is taken as-is even when it is lower than before.
type progressClamp struct {
	last  float64
	reset bool
}

func (c *progressClamp) apply(p float64) float64 {
	if p < 0 {
		c.last = consts.ProgressIndeterminate
		c.reset = true
		return c.last
	}
	p = min(p, 100)
	if c.reset || p > c.last {
		c.last = p
		c.reset = false
	}
	return c.last
}
