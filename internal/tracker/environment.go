package tracker

import (
	"fmt"
	"net/url"
	"sync"
)

type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Environment exposes the ambient context of the hosting page at call time.
type Environment interface {
	Location() url.URL
	Title() string
	Referrer() string
	UserAgent() string
	Screen() Size
	Viewport() Size
}

type PageOption func(*Page)

func WithTitle(title string) PageOption {
	return func(p *Page) {
		p.title = title
	}
}

func WithReferrer(referrer string) PageOption {
	return func(p *Page) {
		p.referrer = referrer
	}
}

func WithUserAgent(userAgent string) PageOption {
	return func(p *Page) {
		p.userAgent = userAgent
	}
}

func WithScreen(width, height int) PageOption {
	return func(p *Page) {
		p.screen = Size{Width: width, Height: height}
	}
}

func WithViewport(width, height int) PageOption {
	return func(p *Page) {
		p.viewport = Size{Width: width, Height: height}
	}
}

// Page is a mutable Environment the host updates as the user moves around.
type Page struct {
	mu        sync.RWMutex
	location  url.URL
	title     string
	referrer  string
	userAgent string
	screen    Size
	viewport  Size
}

func NewPage(rawURL string, opts ...PageOption) (*Page, error) {
	loc, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	p := &Page{location: *loc}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Navigate moves the page to rawURL. The referrer is kept, as it is in a
// single-page application.
func (p *Page) Navigate(rawURL, title string) error {
	loc, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse page url: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.location = *loc
	p.title = title
	return nil
}

func (p *Page) Resize(width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewport = Size{Width: width, Height: height}
}

func (p *Page) Location() url.URL {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.location
}

func (p *Page) Title() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.title
}

func (p *Page) Referrer() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.referrer
}

func (p *Page) UserAgent() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userAgent
}

func (p *Page) Screen() Size {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.screen
}

func (p *Page) Viewport() Size {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.viewport
}
