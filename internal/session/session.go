package session

import (
	"errors"
	"time"

	"github.com/yegors/cctv-repairs/internal/normalizer"
	"github.com/yegors/cctv-repairs/internal/store"
)

// Page is the session's current location in the flow
type Page string

const (
	PageLogin   Page = "login"
	PageHome    Page = "home"
	PageJournal Page = "journal"
	PageViewer  Page = "viewer"
)

// JournalState is the journal page's two-phase sub-state
type JournalState string

const (
	JournalComposing JournalState = "composing"
	JournalReviewing JournalState = "reviewing"
)

// ErrInvalidTransition is returned for a navigation the flow does not allow
var ErrInvalidTransition = errors.New("invalid page transition")

// Session is the per-user interaction state: current page, the journal
// sub-state with its in-progress draft, and the most recent search result
// set. One instance exists per logical user session; all fields are managed
// through the owning Manager, which serializes access.
type Session struct {
	Token     string
	Inspector string
	Page      Page
	Journal   JournalState
	CreatedAt time.Time
	LastSeen  time.Time

	// ComposeText is the last submitted free text. It survives a failed
	// analysis so the user need not retype the note.
	ComposeText string
	Draft       *normalizer.Draft

	lastSearch []store.Record
	hasSearch  bool
}

// allowedTransitions maps each page to the pages reachable from it.
// Logout is handled by the Manager and is allowed from anywhere.
var allowedTransitions = map[Page][]Page{
	PageHome:    {PageJournal, PageViewer},
	PageJournal: {PageHome},
	PageViewer:  {PageHome},
}

// Navigate moves the session to another page. Leaving the journal at any
// sub-state discards the in-progress draft and composed text.
func (s *Session) Navigate(to Page) error {
	allowed := false
	for _, p := range allowedTransitions[s.Page] {
		if p == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidTransition
	}

	if s.Page == PageJournal && to != PageJournal {
		s.resetJournal()
	}
	if to == PageJournal {
		// Entering always starts clean, even if a stray draft survived
		s.resetJournal()
	}
	s.Page = to
	return nil
}

// StartReview stores an analyzed draft and moves the journal to the
// reviewing sub-state
func (s *Session) StartReview(text string, d normalizer.Draft) {
	s.ComposeText = text
	s.Draft = &d
	s.Journal = JournalReviewing
}

// KeepComposing records the submitted text without producing a draft,
// used when analysis fails
func (s *Session) KeepComposing(text string) {
	s.ComposeText = text
	s.Draft = nil
	s.Journal = JournalComposing
}

// DiscardDraft drops the pending draft and returns to composing. The
// composed text is kept for another attempt.
func (s *Session) DiscardDraft() {
	s.Draft = nil
	s.Journal = JournalComposing
}

// TakeDraft removes and returns the pending draft for saving. After a save
// the journal returns to composing with a clean slate.
func (s *Session) TakeDraft() (normalizer.Draft, bool) {
	if s.Draft == nil {
		return normalizer.Draft{}, false
	}
	d := *s.Draft
	s.resetJournal()
	return d, true
}

// RememberSearch snapshots the most recent search result set for the viewer
func (s *Session) RememberSearch(records []store.Record) {
	s.lastSearch = records
	s.hasSearch = true
}

// LastSearch returns the snapshot of the most recent search, if any
func (s *Session) LastSearch() ([]store.Record, bool) {
	return s.lastSearch, s.hasSearch
}

func (s *Session) resetJournal() {
	s.ComposeText = ""
	s.Draft = nil
	s.Journal = JournalComposing
}
