package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/ec-product-card/internal/catalog"
	"github.com/example/ec-product-card/internal/infrastructure/store"
	"github.com/example/ec-product-card/internal/page"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Factory builds the page for a session, restoring history where there is any.
type Factory func(ctx context.Context, sessionID string) (*page.Page, error)

// PageFactory returns a Factory that serves product to every session.
func PageFactory(product catalog.Product, premium bool, journal store.EventStoreInterface, logger *zap.Logger) Factory {
	return func(ctx context.Context, sessionID string) (*page.Page, error) {
		return page.New(ctx, page.Options{
			SessionID: sessionID,
			Product:   product,
			Premium:   premium,
			Journal:   journal,
			Logger:    logger,
		})
	}
}

// Options bound how many pages the registry keeps alive. Zero values disable a limit.
// An evicted session is rebuilt from the journal on its next request.
type Options struct {
	// IdleTimeout releases pages not requested for this long (see Sweep)
	IdleTimeout time.Duration
	// MaxSessions caps live pages; the least recently seen page is released first
	MaxSessions int
}

type entry struct {
	page     *page.Page
	lastSeen time.Time
}

// Registry keeps one live page per session id
type Registry struct {
	mu      sync.Mutex
	pages   map[string]*entry
	factory Factory
	opts    Options
	now     func() time.Time
	logger  *zap.Logger
}

func NewRegistry(factory Factory, opts Options, logger *zap.Logger) *Registry {
	return &Registry{
		pages:   make(map[string]*entry),
		factory: factory,
		opts:    opts,
		now:     time.Now,
		logger:  logger.With(zap.String("component", "sessions")),
	}
}

// NewSessionID returns a fresh random session id
func NewSessionID() string {
	return uuid.New().String()
}

// Get returns the page for sessionID, creating it on first use.
// The page is built without holding the registry lock.
func (r *Registry) Get(ctx context.Context, sessionID string) (*page.Page, error) {
	if p, ok := r.lookup(sessionID); ok {
		return p, nil
	}

	p, err := r.factory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to open session %s: %w", sessionID, err)
	}

	r.mu.Lock()
	if e, ok := r.pages[sessionID]; ok {
		// Another request opened the session first.
		e.lastSeen = r.now()
		r.mu.Unlock()
		p.Close()
		return e.page, nil
	}
	r.pages[sessionID] = &entry{page: p, lastSeen: r.now()}
	evicted := r.evictOverflowLocked()
	live := len(r.pages)
	r.mu.Unlock()

	closePages(evicted)
	r.logger.Info("session opened",
		zap.String("session_id", sessionID),
		zap.Int("live_sessions", live),
		zap.Int("evicted", len(evicted)))
	return p, nil
}

func (r *Registry) lookup(sessionID string) (*page.Page, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.pages[sessionID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.page, true
}

// evictOverflowLocked removes least recently seen pages until MaxSessions holds.
func (r *Registry) evictOverflowLocked() []*page.Page {
	if r.opts.MaxSessions <= 0 {
		return nil
	}

	var evicted []*page.Page
	for len(r.pages) > r.opts.MaxSessions {
		var (
			oldestID   string
			oldestSeen time.Time
		)
		for id, e := range r.pages {
			if oldestID == "" || e.lastSeen.Before(oldestSeen) {
				oldestID, oldestSeen = id, e.lastSeen
			}
		}
		evicted = append(evicted, r.pages[oldestID].page)
		delete(r.pages, oldestID)
	}
	return evicted
}

// Sweep releases pages idle longer than IdleTimeout and returns how many were released
func (r *Registry) Sweep() int {
	if r.opts.IdleTimeout <= 0 {
		return 0
	}

	r.mu.Lock()
	cutoff := r.now().Add(-r.opts.IdleTimeout)
	var expired []*page.Page
	for id, e := range r.pages {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.page)
			delete(r.pages, id)
		}
	}
	live := len(r.pages)
	r.mu.Unlock()

	closePages(expired)
	if len(expired) > 0 {
		r.logger.Info("idle sessions released", zap.Int("released", len(expired)), zap.Int("live_sessions", live))
	}
	return len(expired)
}

// Run sweeps idle pages every interval until ctx is cancelled
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Len reports the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pages)
}

// Close releases every live page
func (r *Registry) Close() {
	r.mu.Lock()
	pages := make([]*page.Page, 0, len(r.pages))
	for id, e := range r.pages {
		pages = append(pages, e.page)
		delete(r.pages, id)
	}
	r.mu.Unlock()

	closePages(pages)
}

func closePages(pages []*page.Page) {
	for _, p := range pages {
		p.Close()
	}
}
