package templates

type AxisButton struct {
	Key    string `json:"key"`
	Active bool   `json:"active"`
}

type ButtonGroup struct {
	Axis    string       `json:"axis"`
	Heading string       `json:"heading"`
	Buttons []AxisButton `json:"buttons"`
}

type ChartPageData struct {
	Title      string
	Generation uint64
	// SVG is the rendered chart markup; it is written to the page unescaped.
	SVG       string
	YButtons  ButtonGroup
	XButtons  ButtonGroup
	Players   int
	LoadError string
}

// Ready reports whether there is a chart to show.
func (d ChartPageData) Ready() bool { return d.LoadError == "" && d.SVG != "" }

// PageTitle falls back to the service name when no title is set.
func (d ChartPageData) PageTitle() string {
	if d.Title == "" {
		return "Batter Scatter"
	}
	return d.Title
}
