package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/cctv-repairs/internal/normalizer"
	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

func newManager() *Manager {
	return NewManager(Credentials{Username: "admin", Password: "secret"}, logger.Nop())
}

func login(t *testing.T, m *Manager) *Session {
	t.Helper()
	s, err := m.Login("admin", "secret")
	require.NoError(t, err)
	return s
}

func TestLogin(t *testing.T) {
	m := newManager()

	s := login(t, m)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "admin", s.Inspector)
	assert.Equal(t, PageHome, s.Page)
	assert.True(t, m.Valid(s.Token))
}

func TestLoginBadCredentials(t *testing.T) {
	m := newManager()

	for _, creds := range [][2]string{
		{"admin", "wrong"},
		{"someone", "secret"},
		{"", ""},
	} {
		_, err := m.Login(creds[0], creds[1])
		assert.ErrorIs(t, err, ErrBadCredentials)
	}
}

func TestLogoutFromAnywhere(t *testing.T) {
	m := newManager()
	s := login(t, m)

	require.NoError(t, s.Navigate(PageJournal))
	m.Logout(s.Token)
	assert.False(t, m.Valid(s.Token))

	// Logout of an unknown token is a no-op
	m.Logout("nope")
}

func TestNavigationTransitions(t *testing.T) {
	tests := []struct {
		from    Page
		to      Page
		allowed bool
	}{
		{PageHome, PageJournal, true},
		{PageHome, PageViewer, true},
		{PageJournal, PageHome, true},
		{PageViewer, PageHome, true},
		{PageJournal, PageViewer, false},
		{PageViewer, PageJournal, false},
		{PageHome, PageHome, false},
		{PageHome, PageLogin, false},
	}

	for _, tt := range tests {
		s := &Session{Page: tt.from, Journal: JournalComposing}
		err := s.Navigate(tt.to)
		if tt.allowed {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.to, s.Page)
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", tt.from, tt.to)
			assert.Equal(t, tt.from, s.Page)
		}
	}
}

func TestJournalReviewFlow(t *testing.T) {
	m := newManager()
	s := login(t, m)
	require.NoError(t, s.Navigate(PageJournal))
	assert.Equal(t, JournalComposing, s.Journal)

	draft := normalizer.Draft{Region: "전주", SiteName: "전주시청", Inspector: "admin"}
	s.StartReview("전주시청 수리함", draft)
	assert.Equal(t, JournalReviewing, s.Journal)
	require.NotNil(t, s.Draft)

	got, ok := s.TakeDraft()
	require.True(t, ok)
	assert.Equal(t, draft, got)
	assert.Nil(t, s.Draft)
	assert.Equal(t, JournalComposing, s.Journal)
	assert.Empty(t, s.ComposeText)

	// Nothing left to take
	_, ok = s.TakeDraft()
	assert.False(t, ok)
}

func TestDiscardKeepsComposedText(t *testing.T) {
	s := &Session{Page: PageJournal, Journal: JournalComposing}
	s.StartReview("다시 쓰기 싫은 긴 메모", normalizer.Draft{Region: "전주", SiteName: "전주시청"})

	s.DiscardDraft()
	assert.Nil(t, s.Draft)
	assert.Equal(t, JournalComposing, s.Journal)
	assert.Equal(t, "다시 쓰기 싫은 긴 메모", s.ComposeText)
}

func TestFailedAnalysisKeepsText(t *testing.T) {
	s := &Session{Page: PageJournal, Journal: JournalComposing}

	s.KeepComposing("분석에 실패한 메모")
	assert.Nil(t, s.Draft)
	assert.Equal(t, JournalComposing, s.Journal)
	assert.Equal(t, "분석에 실패한 메모", s.ComposeText)
}

func TestLeavingJournalDiscardsDraft(t *testing.T) {
	m := newManager()
	s := login(t, m)
	require.NoError(t, s.Navigate(PageJournal))

	s.StartReview("메모", normalizer.Draft{Region: "전주", SiteName: "전주시청"})
	require.NoError(t, s.Navigate(PageHome))

	assert.Nil(t, s.Draft)
	assert.Empty(t, s.ComposeText)
	assert.Equal(t, JournalComposing, s.Journal)

	// Re-entering starts clean
	require.NoError(t, s.Navigate(PageJournal))
	assert.Equal(t, JournalComposing, s.Journal)
}

func TestEnteringJournalStartsClean(t *testing.T) {
	// A draft left behind by out-of-order state changes must not greet the
	// user on the next journal visit
	s := &Session{Page: PageHome, Journal: JournalReviewing}
	s.Draft = &normalizer.Draft{Region: "전주", SiteName: "전주시청"}
	s.ComposeText = "남은 메모"

	require.NoError(t, s.Navigate(PageJournal))
	assert.Nil(t, s.Draft)
	assert.Empty(t, s.ComposeText)
	assert.Equal(t, JournalComposing, s.Journal)
}

func TestSearchSnapshot(t *testing.T) {
	s := &Session{Page: PageViewer}

	_, ok := s.LastSearch()
	assert.False(t, ok)

	records := []store.Record{{ID: 1, Region: "전주", SiteName: "전주시청"}}
	s.RememberSearch(records)
	got, ok := s.LastSearch()
	require.True(t, ok)
	assert.Equal(t, records, got)

	// An empty result set is still a remembered search
	s.RememberSearch([]store.Record{})
	got, ok = s.LastSearch()
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestWithSession(t *testing.T) {
	m := newManager()
	s := login(t, m)

	called := false
	ok := m.WithSession(s.Token, func(sess *Session) {
		called = true
		assert.Equal(t, s.Token, sess.Token)
	})
	assert.True(t, ok)
	assert.True(t, called)

	ok = m.WithSession("unknown", func(sess *Session) {
		t.Fatal("must not be called for an unknown token")
	})
	assert.False(t, ok)
}
