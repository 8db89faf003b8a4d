package view

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"subjectview/internal/booklist"
	"subjectview/internal/page"
	"subjectview/internal/record"
	"subjectview/internal/timeline"
)

type View int

const (
	Timeline View = iota
	List
)

func (v View) String() string {
	switch v {
	case Timeline:
		return "timeline"
	case List:
		return "list"
	default:
		return fmt.Sprintf("View(%d)", int(v))
	}
}

func (v View) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

var (
	ErrNoChart     = errors.New("view: no chart rendered")
	ErrUnknownView = errors.New("view: unknown view")
)

// ParseView accepts "list", "timeline" and their section ids.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timeline", page.ViewTimeline:
		return Timeline, nil
	case "list", page.ViewList:
		return List, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownView, s)
}

const (
	SourceName   = "Open Library API"
	LoadErrorMsg = "Error loading data. Please refresh."
)

// State is which view is active and the year the list is filtered by.
type State struct {
	Active   View   `json:"active"`
	Filtered bool   `json:"filtered"`
	Year     string `json:"year,omitempty"`
}

// Controller mediates between the chart and the list and owns which view is
// visible. Every method runs to completion before the next event is handled.
type Controller struct {
	doc    *page.Document
	store  *record.Store
	list   *booklist.Renderer
	chart  *timeline.Renderer
	logger *zap.Logger

	state  State
	counts []timeline.YearCount
	status string
	failed bool
}

func NewController(doc *page.Document, store *record.Store, list *booklist.Renderer, chart *timeline.Renderer, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		doc:    doc,
		store:  store,
		list:   list,
		chart:  chart,
		logger: logger,
		state:  State{Active: Timeline},
	}

	doc.Listen(page.NavList, func(string) error { return c.NavigateTo(List) })
	doc.Listen(page.NavTimeline, func(string) error { return c.NavigateTo(Timeline) })
	doc.Listen(page.Nav, func(target string) error {
		v, err := ParseView(target)
		if err != nil {
			return err
		}
		return c.NavigateTo(v)
	})
	doc.Listen(page.ShowAllButton, func(string) error { return c.ShowAll() })
	doc.Listen(page.BackToTimeline, func(string) error {
		c.BackToTimeline()
		return nil
	})
	chart.OnSelect(c.ChartPointSelected)

	c.activate(Timeline)
	return c
}

// Load stores the fetched records and renders both views.
func (c *Controller) Load(records []record.Record) error {
	c.failed = false
	c.store.Load(records)
	c.counts = timeline.CountsByYear(c.store.All())
	c.state.Filtered = false
	c.state.Year = ""

	if err := c.renderAll(); err != nil {
		return err
	}
	if err := c.chart.Render(c.counts); err != nil {
		return err
	}
	c.logger.Info("records loaded",
		zap.Int("records", c.store.Len()),
		zap.Int("years", len(c.counts)),
		zap.Int("dated", timeline.Total(c.counts)),
	)
	return nil
}

// Fail puts the page in its load-error state.
func (c *Controller) Fail(err error) {
	c.failed = true
	c.setStatus(LoadErrorMsg)
	c.logger.Error("load failed", zap.Error(err))
}

// NavigateTo is an explicit user navigation. Going to the list always shows
// the full set, so a filter picked on the chart does not linger.
func (c *Controller) NavigateTo(v View) error {
	switch v {
	case List:
		if err := c.renderAll(); err != nil {
			return err
		}
	case Timeline:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownView, int(v))
	}
	c.activate(v)
	return nil
}

// ChartPointSelected narrows the list to one year and shows it.
func (c *Controller) ChartPointSelected(year string) error {
	if !c.chart.Rendered() {
		return ErrNoChart
	}
	year = strings.TrimSpace(year)
	matches := c.store.ByYear(year)
	if _, err := c.list.Render(matches, &booklist.Filter{Year: year}); err != nil {
		return err
	}
	c.state.Filtered = true
	c.state.Year = year
	c.setStatus(fmt.Sprintf("%d publications found via Year %s", len(matches), year))
	c.logger.Debug("chart point selected", zap.String("year", year), zap.Int("matches", len(matches)))

	c.activate(List)
	return nil
}

// ShowAll drops the filter and shows the full list.
func (c *Controller) ShowAll() error {
	if err := c.renderAll(); err != nil {
		return err
	}
	c.activate(List)
	return nil
}

// BackToTimeline shows the chart. The list keeps whatever filter it had.
func (c *Controller) BackToTimeline() {
	c.activate(Timeline)
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Counts() []timeline.YearCount {
	out := make([]timeline.YearCount, len(c.counts))
	copy(out, c.counts)
	return out
}

func (c *Controller) Status() string {
	return c.status
}

// Failed reports whether the last load ended in the error state.
func (c *Controller) Failed() bool {
	return c.failed
}

func (c *Controller) renderAll() error {
	all := c.store.All()
	if _, err := c.list.Render(all, nil); err != nil {
		return err
	}
	c.state.Filtered = false
	c.state.Year = ""
	if !c.failed {
		c.setStatus(fmt.Sprintf("%d publications found via %s", len(all), SourceName))
	}
	return nil
}

func (c *Controller) activate(v View) {
	c.state.Active = v

	c.doc.SetClass(page.NavList, page.ActiveClass, v == List)
	c.doc.SetClass(page.NavTimeline, page.ActiveClass, v == Timeline)
	c.doc.SetHidden(page.ViewList, v != List)
	c.doc.SetHidden(page.ViewTimeline, v != Timeline)
	c.doc.SetClass(page.ViewList, page.ActiveClass, v == List)
	c.doc.SetClass(page.ViewTimeline, page.ActiveClass, v == Timeline)
}

func (c *Controller) setStatus(msg string) {
	c.status = msg
	c.doc.SetText(page.ResultCount, msg)
}
