package components

import (
	"devopsmon/ui/tui/styles"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"
)

var _ Chart = (*Series)(nil)

// HistoryLen is the number of samples kept on a chart.
const HistoryLen = 31

// Series plots the recent values of one percentage as a braille line.
type Series struct {
	Title   string
	Samples []float64

	chart         linechart.Model
	width, height int
}

// NewSeries returns an empty 0-100% chart.
func NewSeries(title string, width, height int) *Series {
	return &Series{
		Title:   title,
		Samples: make([]float64, 0, HistoryLen),
		chart:   linechart.New(width, height, 0, HistoryLen-1, 0, 100),
		width:   width,
		height:  height,
	}
}

// Push appends a sample, dropping the oldest once the window is full.
func (s *Series) Push(value float64) {
	if len(s.Samples) == HistoryLen {
		copy(s.Samples, s.Samples[1:])
		s.Samples = s.Samples[:HistoryLen-1]
	}
	s.Samples = append(s.Samples, value)
}

// Last returns the newest sample.
func (s *Series) Last() (float64, bool) {
	if len(s.Samples) == 0 {
		return 0, false
	}
	return s.Samples[len(s.Samples)-1], true
}

func (s *Series) Resize(width, height int) {
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.chart.Resize(width, height)
}

// Plot renders the bare chart with its axes.
func (s *Series) Plot() string {
	s.chart.Clear()
	for i := 1; i < len(s.Samples); i++ {
		s.chart.DrawBrailleLine(
			canvas.Float64Point{X: float64(i - 1), Y: s.Samples[i-1]},
			canvas.Float64Point{X: float64(i), Y: s.Samples[i]},
		)
	}
	s.chart.DrawXYAxisAndLabel()
	return s.chart.View()
}

// Card renders the chart in a titled panel.
func (s *Series) Card() string {
	return styles.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(s.Title),
		s.Plot(),
	))
}
