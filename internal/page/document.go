package page

import (
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"sort"
)

// Stable element identifiers of the page.
const (
	ResultCount    = "result-count"
	BookGrid       = "book-grid"
	FilterBanner   = "filter-banner"
	TimelineChart  = "timelineChart"
	ViewList       = "view-list"
	ViewTimeline   = "view-timeline"
	NavList        = "nav-view-list"
	NavTimeline    = "nav-view-timeline"
	Nav            = "nav"
	ShowAllButton  = "btn-show-all"
	BackToTimeline = "btn-back-timeline"
	ActiveClass    = "active"
)

var ErrNoListener = errors.New("page: no click listener")

type ClickHandler func(arg string) error

// Document is the presentation layer the renderers write into. It keeps the
// content of each mount point and the click listeners attached to elements.
type Document struct {
	content   map[string]template.HTML
	hidden    map[string]bool
	classes   map[string]map[string]bool
	listeners map[string]map[int]ClickHandler
	nextID    int
}

func NewDocument() *Document {
	return &Document{
		content:   make(map[string]template.HTML),
		hidden:    make(map[string]bool),
		classes:   make(map[string]map[string]bool),
		listeners: make(map[string]map[int]ClickHandler),
	}
}

// SetText replaces the element content with escaped text.
func (d *Document) SetText(id, text string) {
	d.content[id] = template.HTML(template.HTMLEscapeString(text))
}

// SetHTML replaces the element content with markup produced by a renderer.
func (d *Document) SetHTML(id string, html template.HTML) {
	d.content[id] = html
}

func (d *Document) Clear(id string) {
	delete(d.content, id)
}

func (d *Document) Content(id string) template.HTML {
	return d.content[id]
}

func (d *Document) SetHidden(id string, hidden bool) {
	d.hidden[id] = hidden
}

func (d *Document) Hidden(id string) bool {
	return d.hidden[id]
}

func (d *Document) SetClass(id, class string, on bool) {
	set, ok := d.classes[id]
	if !ok {
		set = make(map[string]bool)
		d.classes[id] = set
	}
	if on {
		set[class] = true
	} else {
		delete(set, class)
	}
}

func (d *Document) HasClass(id, class string) bool {
	return d.classes[id][class]
}

// Listen attaches a click handler to an element. The returned func detaches it.
func (d *Document) Listen(id string, h ClickHandler) (remove func()) {
	set, ok := d.listeners[id]
	if !ok {
		set = make(map[int]ClickHandler)
		d.listeners[id] = set
	}
	d.nextID++
	key := d.nextID
	set[key] = h
	return func() {
		delete(d.listeners[id], key)
	}
}

// Listeners reports how many handlers are attached to id.
func (d *Document) Listeners(id string) int {
	return len(d.listeners[id])
}

// Click dispatches a click on id to every attached handler in attach order.
func (d *Document) Click(id, arg string) error {
	set := d.listeners[id]
	if len(set) == 0 {
		return fmt.Errorf("%w: %s", ErrNoListener, id)
	}
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var errs []error
	for _, k := range keys {
		if h, ok := set[k]; ok {
			if err := h(arg); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// EventHref is the URL a browser follows to deliver a click on id.
func EventHref(id, arg string) string {
	href := "/events/" + url.PathEscape(id)
	if arg != "" {
		href += "?arg=" + url.QueryEscape(arg)
	}
	return href
}
