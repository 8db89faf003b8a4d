package timeline

import "fmt"

const (
	CursorPointer = "pointer"
	CursorDefault = "default"
)

// Options is the style configuration handed to the drawing service.
type Options struct {
	Color       string
	XAxisTitle  string
	YAxisTitle  string
	BeginAtZero bool
	StepSize    int
	PointRadius int
	HoverRadius int
	Width       int
	Height      int
}

func DefaultOptions() Options {
	return Options{
		Color:       "#4a90e2",
		XAxisTitle:  "First Publish Year",
		YAxisTitle:  "Number of Books",
		BeginAtZero: true,
		StepSize:    1,
		PointRadius: 5,
		HoverRadius: 8,
		Width:       800,
		Height:      320,
	}
}

// Events are the callbacks a drawing service reports back through. Index is
// the position of the plotted point, or -1 when not over a point.
type Events struct {
	Click func(index int) error
	Hover func(index int) string
}

// Instance is one live drawing attached to a mount point.
type Instance interface {
	Destroy()
}

// Drawer is the chart drawing service.
type Drawer interface {
	Draw(mount string, s Series, opts Options, ev Events) (Instance, error)
}

// SelectHandler receives the year label of an activated point.
type SelectHandler func(year string) error

// Renderer keeps at most one live chart on its mount point.
type Renderer struct {
	drawer   Drawer
	mount    string
	opts     Options
	live     Instance
	onSelect SelectHandler
}

func NewRenderer(drawer Drawer, mount string, opts Options) *Renderer {
	return &Renderer{
		drawer: drawer,
		mount:  mount,
		opts:   opts,
	}
}

// OnSelect registers the handler for point activation. A later call replaces it.
func (r *Renderer) OnSelect(h SelectHandler) {
	r.onSelect = h
}

// Render disposes the previous chart, if any, then draws counts.
func (r *Renderer) Render(counts []YearCount) error {
	r.Dispose()

	s := SeriesOf("Publications", counts)
	labels := s.Categories
	ev := Events{
		Click: func(index int) error {
			if index < 0 || index >= len(labels) || r.onSelect == nil {
				return nil
			}
			return r.onSelect(labels[index])
		},
		Hover: func(index int) string {
			return cursorFor(index, len(labels))
		},
	}

	inst, err := r.drawer.Draw(r.mount, s, r.opts, ev)
	if err != nil {
		return fmt.Errorf("draw chart: %w", err)
	}
	r.live = inst
	return nil
}

// Dispose destroys the live chart.
func (r *Renderer) Dispose() {
	if r.live != nil {
		r.live.Destroy()
		r.live = nil
	}
}

func (r *Renderer) Rendered() bool {
	return r.live != nil
}

func cursorFor(index, n int) string {
	if index >= 0 && index < n {
		return CursorPointer
	}
	return CursorDefault
}
