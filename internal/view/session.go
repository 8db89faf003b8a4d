package view

import (
	"context"
	"html/template"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"subjectview/internal/booklist"
	"subjectview/internal/page"
	"subjectview/internal/platform/openlibrary"
	"subjectview/internal/record"
	"subjectview/internal/timeline"
)

type Fetcher interface {
	FetchSubject(ctx context.Context, subject string, limit int) (*openlibrary.SubjectResponse, error)
}

type SessionConfig struct {
	Subject string
	Limit   int
	Images  []string
	Rand    *rand.Rand
}

// Session is one page session: the document, the record store and the
// controller wired together. Events are applied one at a time.
type Session struct {
	mu         sync.Mutex
	doc        *page.Document
	controller *Controller
	drawer     *timeline.SVGDrawer
	cfg        SessionConfig
	logger     *zap.Logger
}

func NewSession(cfg SessionConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc := page.NewDocument()
	drawer := timeline.NewSVGDrawer(doc)
	list := booklist.NewRenderer(doc, cfg.Images, cfg.Rand)
	chart := timeline.NewRenderer(drawer, page.TimelineChart, timeline.DefaultOptions())

	return &Session{
		doc:        doc,
		controller: NewController(doc, record.NewStore(), list, chart, logger),
		drawer:     drawer,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start performs the one listing fetch and renders both views. A failure is
// shown on the page and also returned.
func (s *Session) Start(ctx context.Context, f Fetcher) error {
	res, err := f.FetchSubject(ctx, s.cfg.Subject, s.cfg.Limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.controller.Fail(err)
		return err
	}
	if err := s.controller.Load(RecordsFromWorks(res.Works)); err != nil {
		s.controller.Fail(err)
		return err
	}
	return nil
}

// Failed reports whether the listing fetch of this session failed.
func (s *Session) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.controller.Failed()
}

// Dispatch delivers a click on element id.
func (s *Session) Dispatch(id, arg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.doc.Click(id, arg)
}

// Snapshot is a consistent copy of what the page shows.
type Snapshot struct {
	State      State                `json:"state"`
	Status     string               `json:"status"`
	Counts     []timeline.YearCount `json:"counts"`
	Records    int                  `json:"records"`
	ChartLive  bool                 `json:"chart_live"`
	Failed     bool                 `json:"failed"`
	ResultHTML template.HTML        `json:"-"`
	BannerHTML template.HTML        `json:"-"`
	GridHTML   template.HTML        `json:"-"`
	ChartHTML  template.HTML        `json:"-"`
	NavList    bool                 `json:"-"`
	NavChart   bool                 `json:"-"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.controller
	return Snapshot{
		State:      c.State(),
		Status:     c.Status(),
		Counts:     c.Counts(),
		Records:    c.store.Len(),
		ChartLive:  c.chart.Rendered(),
		Failed:     c.Failed(),
		ResultHTML: s.doc.Content(page.ResultCount),
		BannerHTML: s.doc.Content(page.FilterBanner),
		GridHTML:   s.doc.Content(page.BookGrid),
		ChartHTML:  s.doc.Content(page.TimelineChart),
		NavList:    s.doc.HasClass(page.NavList, page.ActiveClass),
		NavChart:   s.doc.HasClass(page.NavTimeline, page.ActiveClass),
	}
}

// RecordsFromWorks maps a subject listing onto records, keeping order.
func RecordsFromWorks(works []openlibrary.Work) []record.Record {
	out := make([]record.Record, 0, len(works))
	for _, w := range works {
		r := record.Record{
			Title:            w.Title,
			FirstPublishYear: w.FirstPublishYear,
			EditionCount:     w.EditionCount,
		}
		for _, a := range w.Authors {
			r.Authors = append(r.Authors, a.Name)
		}
		out = append(out, r)
	}
	return out
}

// LiveCharts reports how many chart drawings are attached to the page.
func (s *Session) LiveCharts() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.drawer.Live()
}
