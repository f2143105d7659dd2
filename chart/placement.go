package chart

// Bar is one drawn bar in canvas coordinates.
type Bar struct {
	X, Y, Width, Height float64
}

// ValuePlacement decides where a bar's value label goes. It returns the
// anchor point and the anchor fractions passed to gg's DrawStringAnchored.
type ValuePlacement func(bar Bar, labelWidth float64) (x, y, ax, ay float64)

// AfterBar puts the label just past the end of the bar, vertically
// centered on it.
func AfterBar(bar Bar, labelWidth float64) (x, y, ax, ay float64) {
	return bar.X + bar.Width + 6, bar.Y + bar.Height/2, 0, 0.35
}

// InsideEnd right-aligns the label inside the bar, falling back to
// AfterBar when the bar is too short to hold it.
func InsideEnd(bar Bar, labelWidth float64) (x, y, ax, ay float64) {
	if bar.Width < labelWidth+12 {
		return AfterBar(bar, labelWidth)
	}
	return bar.X + bar.Width - 6, bar.Y + bar.Height/2, 1, 0.35
}
