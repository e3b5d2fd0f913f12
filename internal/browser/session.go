package browser

import (
	"context"
	"errors"
	"fmt"

	"go-nursejobs-pipeline/internal/logger"
)

// PageOpener opens a fresh page.
type PageOpener func() (Page, error)

// Session owns the single page a scrape run drives. Controllers always go
// through Page() so a recovered page replaces the broken one.
type Session struct {
	page    Page
	open    PageOpener
	baseURL string
	log     *logger.Logger

	Recoveries int
}

func NewSession(open PageOpener, baseURL string, log *logger.Logger) (*Session, error) {
	page, err := open()
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return &Session{page: page, open: open, baseURL: baseURL, log: log}, nil
}

func (s *Session) Page() Page {
	return s.page
}

// Recover replaces a closed page and navigates to the base URL. It is
// attempted once per failure; the caller retries its own navigation.
func (s *Session) Recover(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Recoveries++
	s.log.Warn("♻️ recovering browser page", "base_url", s.baseURL, "closed", s.page.IsClosed())

	if s.page.IsClosed() {
		page, err := s.open()
		if err != nil {
			return fmt.Errorf("reopen page: %w", err)
		}
		s.page = page
	}
	if err := s.page.Goto(s.baseURL); err != nil {
		if errors.Is(err, ErrTimeout) {
			s.log.Warn("⏱️ base url slow during recovery", "error", err)
			return nil
		}
		if !IsDetached(err) {
			return fmt.Errorf("recover to %s: %w", s.baseURL, err)
		}
		// the page died again on the way; one fresh page, one more try
		_ = s.page.Close()
		page, oerr := s.open()
		if oerr != nil {
			return fmt.Errorf("reopen page: %w", oerr)
		}
		s.page = page
		if err := s.page.Goto(s.baseURL); err != nil {
			return fmt.Errorf("recover to %s: %w", s.baseURL, err)
		}
	}
	return nil
}

func (s *Session) Close() error {
	if s.page == nil {
		return nil
	}
	return s.page.Close()
}
