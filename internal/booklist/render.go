package booklist

import (
	"bytes"
	"fmt"
	"html/template"
	"math/rand/v2"
	"time"

	"subjectview/internal/page"
	"subjectview/internal/record"
)

const EmptyMessage = "No books found for this selection."

// DefaultImages is the decorative cover pool.
var DefaultImages = []string{
	"images/book1.jpg",
	"images/book2.jpg",
	"images/book11.jpg",
	"images/book12.jpg",
	"images/book13.jpg",
	"images/book14.jpg",
	"images/book16.jpg",
	"images/book17.jpg",
	"images/book18.jpg",
	"images/book19.jpg",
	"images/book20.jpg",
}

// Card is the display projection of one record.
type Card struct {
	Title    string
	Author   string
	Year     string
	Editions int
	Image    string
}

func (c Card) AriaLabel() string {
	return fmt.Sprintf("Book titled %s by %s, published in %s, %d editions", c.Title, c.Author, c.Year, c.Editions)
}

// Filter is the year the list is narrowed to.
type Filter struct {
	Year string
}

type Banner struct {
	Year         string
	Count        int
	ShowAllHref  string
	TimelineHref string
}

// Listing is what one Render produced.
type Listing struct {
	Cards       []Card
	Banner      *Banner
	Placeholder string
}

type Surface interface {
	SetHTML(id string, html template.HTML)
	Clear(id string)
}

// Renderer projects records into the card grid. Cover images are picked at
// random per card on every render, so a record may get a different image
// each time; the image carries no meaning.
type Renderer struct {
	surface Surface
	images  []string
	rnd     *rand.Rand
}

func NewRenderer(surface Surface, images []string, rnd *rand.Rand) *Renderer {
	if len(images) == 0 {
		images = DefaultImages
	}
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Renderer{surface: surface, images: images, rnd: rnd}
}

// Render clears the previous output and draws records in input order. A
// non-nil filter adds the banner above the cards.
func (r *Renderer) Render(records []record.Record, filter *Filter) (Listing, error) {
	r.surface.Clear(page.FilterBanner)
	r.surface.Clear(page.BookGrid)

	var l Listing
	if filter != nil {
		l.Banner = &Banner{
			Year:         filter.Year,
			Count:        len(records),
			ShowAllHref:  page.EventHref(page.ShowAllButton, ""),
			TimelineHref: page.EventHref(page.BackToTimeline, ""),
		}
		html, err := execute(bannerTmpl, l.Banner)
		if err != nil {
			return Listing{}, err
		}
		r.surface.SetHTML(page.FilterBanner, html)
	}

	if len(records) == 0 {
		l.Placeholder = EmptyMessage
		html, err := execute(emptyTmpl, EmptyMessage)
		if err != nil {
			return Listing{}, err
		}
		r.surface.SetHTML(page.BookGrid, html)
		return l, nil
	}

	l.Cards = make([]Card, len(records))
	for i, rec := range records {
		l.Cards[i] = Card{
			Title:    rec.Title,
			Author:   rec.PrimaryAuthor(),
			Year:     rec.YearLabel(),
			Editions: rec.Editions(),
			Image:    r.images[r.rnd.IntN(len(r.images))],
		}
	}
	html, err := execute(gridTmpl, l.Cards)
	if err != nil {
		return Listing{}, err
	}
	r.surface.SetHTML(page.BookGrid, html)
	return l, nil
}

func execute(t *template.Template, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return template.HTML(buf.String()), nil
}

var bannerTmpl = template.Must(template.New("banner").Parse(`<div class="filter-controls">
	<span><i class="fa-solid fa-filter"></i> Showing {{.Count}} books from <strong>{{.Year}}</strong></span>
	<div>
		<a id="btn-show-all" class="btn btn-outline" href="{{.ShowAllHref}}">Show All</a>
		<a id="btn-back-timeline" class="btn" href="{{.TimelineHref}}"><i class="fa-solid fa-arrow-left"></i> Back to Timeline</a>
	</div>
</div>`))

var emptyTmpl = template.Must(template.New("empty").Parse(`<p class="empty">{{.}}</p>`))

var gridTmpl = template.Must(template.New("grid").Parse(`{{range .}}<div class="book-card" role="listitem" tabindex="0" aria-label="{{.AriaLabel}}">
	<img src="{{.Image}}" alt="Cover of {{.Title}}" class="book-cover" loading="lazy">
	<div class="card-content">
		<h3>{{.Title}}</h3>
		<p><i class="fa-regular fa-user"></i> {{.Author}}</p>
		<div class="tags">
			<span class="tag">Published: {{.Year}}</span>
			<span class="tag tag-editions">{{.Editions}} Editions</span>
		</div>
	</div>
</div>
{{end}}`))
