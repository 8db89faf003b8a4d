package timeline

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"subjectview/internal/page"
)

// Surface is the part of the page a drawing needs.
type Surface interface {
	SetHTML(id string, html template.HTML)
	Clear(id string)
	Listen(id string, h page.ClickHandler) func()
}

// SVGDrawer draws a line chart as inline SVG. Each point links to the click
// event of the mount point with the point index as argument.
type SVGDrawer struct {
	surface Surface
	live    int
}

func NewSVGDrawer(surface Surface) *SVGDrawer {
	return &SVGDrawer{surface: surface}
}

// Live reports how many drawings are attached and not yet destroyed.
func (d *SVGDrawer) Live() int {
	return d.live
}

func (d *SVGDrawer) Draw(mount string, s Series, opts Options, ev Events) (Instance, error) {
	if len(s.Categories) != len(s.Values) {
		return nil, fmt.Errorf("series %q: %d categories for %d values", s.Name, len(s.Categories), len(s.Values))
	}

	d.surface.SetHTML(mount, template.HTML(svgMarkup(mount, s, opts, ev)))
	remove := d.surface.Listen(mount, func(arg string) error {
		index, err := strconv.Atoi(arg)
		if err != nil {
			index = -1
		}
		if ev.Click == nil {
			return nil
		}
		return ev.Click(index)
	})
	d.live++

	return &svgChart{drawer: d, mount: mount, remove: remove}, nil
}

type svgChart struct {
	drawer    *SVGDrawer
	mount     string
	remove    func()
	destroyed bool
}

func (c *svgChart) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	c.remove()
	c.drawer.surface.Clear(c.mount)
	c.drawer.live--
}

type plot struct {
	left, top, width, height float64
	yMax, step               int
}

func newPlot(s Series, opts Options) plot {
	p := plot{
		left:   60,
		top:    20,
		width:  float64(opts.Width) - 80,
		height: float64(opts.Height) - 70,
		step:   opts.StepSize,
	}
	if p.step <= 0 {
		p.step = 1
	}

	peak := 0
	for _, v := range s.Values {
		if v > peak {
			peak = v
		}
	}
	if peak == 0 {
		peak = 1
	}
	for peak/p.step > 10 {
		p.step *= 2
	}
	p.yMax = ((peak + p.step - 1) / p.step) * p.step
	return p
}

func (p plot) x(i, n int) float64 {
	if n <= 1 {
		return p.left + p.width/2
	}
	return p.left + float64(i)*p.width/float64(n-1)
}

func (p plot) y(v int) float64 {
	return p.top + p.height - float64(v)*p.height/float64(p.yMax)
}

func cursorStyle(ev Events, index int) string {
	if ev.Hover == nil {
		return CursorDefault
	}
	return ev.Hover(index)
}

func svgMarkup(mount string, s Series, opts Options, ev Events) string {
	esc := template.HTMLEscapeString
	p := newPlot(s, opts)
	n := len(s.Values)
	gradientID := mount + "-fill"

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" class="timeline-chart" role="img" aria-label="%s per year" style="cursor:%s">`,
		opts.Width, opts.Height, esc(s.Name), cursorStyle(ev, -1))
	fmt.Fprintf(&b, `<defs><linearGradient id="%s" x1="0" y1="0" x2="0" y2="1"><stop offset="0" stop-color="%s" stop-opacity="0.5"/><stop offset="1" stop-color="%s" stop-opacity="0"/></linearGradient></defs>`,
		esc(gradientID), esc(opts.Color), esc(opts.Color))

	for v := 0; v <= p.yMax; v += p.step {
		y := p.y(v)
		fmt.Fprintf(&b, `<line class="grid" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#e5e5e5"/>`, p.left, y, p.left+p.width, y)
		fmt.Fprintf(&b, `<text class="tick" x="%.1f" y="%.1f" text-anchor="end">%d</text>`, p.left-8, y+4, v)
	}
	fmt.Fprintf(&b, `<text class="axis-title" transform="translate(16 %.1f) rotate(-90)" text-anchor="middle">%s</text>`,
		p.top+p.height/2, esc(opts.YAxisTitle))
	fmt.Fprintf(&b, `<text class="axis-title" x="%.1f" y="%d" text-anchor="middle">%s</text>`,
		p.left+p.width/2, opts.Height-6, esc(opts.XAxisTitle))

	if n > 0 {
		points := make([]string, n)
		for i, v := range s.Values {
			points[i] = fmt.Sprintf("%.1f,%.1f", p.x(i, n), p.y(v))
		}
		base := p.y(0)
		fmt.Fprintf(&b, `<path class="area" d="M%.1f,%.1f L%s L%.1f,%.1f Z" fill="url(#%s)"/>`,
			p.x(0, n), base, strings.Join(points, " L"), p.x(n-1, n), base, esc(gradientID))
		fmt.Fprintf(&b, `<polyline class="line" points="%s" fill="none" stroke="%s" stroke-width="2"/>`,
			strings.Join(points, " "), esc(opts.Color))
	}

	for i, v := range s.Values {
		x := p.x(i, n)
		label := esc(s.Categories[i])
		fmt.Fprintf(&b, `<text class="tick" x="%.1f" y="%.1f" text-anchor="middle">%s</text>`, x, p.top+p.height+18, label)
		fmt.Fprintf(&b, `<a href="%s" class="chart-point" data-year="%s"><circle cx="%.1f" cy="%.1f" r="%d" data-hover-r="%d" fill="%s" style="cursor:%s"><title>%d Publications (Click to view)</title></circle></a>`,
			esc(page.EventHref(mount, strconv.Itoa(i))), label, x, p.y(v), opts.PointRadius, opts.HoverRadius,
			esc(opts.Color), cursorStyle(ev, i), v)
	}

	b.WriteString(`</svg>`)
	return b.String()
}
