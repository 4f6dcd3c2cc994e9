package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/cctv-repairs/internal/export"
	"github.com/yegors/cctv-repairs/internal/normalizer"
	"github.com/yegors/cctv-repairs/internal/repairs"
	"github.com/yegors/cctv-repairs/internal/session"
	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

// Handler holds the API handlers and their collaborators
type Handler struct {
	sessions     *session.Manager
	repairs      *repairs.Service
	normalizer   *normalizer.Normalizer
	exportPrefix string
	logger       *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(sessions *session.Manager, repairsService *repairs.Service, norm *normalizer.Normalizer, exportPrefix string, log *logger.Logger) *Handler {
	return &Handler{
		sessions:     sessions,
		repairs:      repairsService,
		normalizer:   norm,
		exportPrefix: exportPrefix,
		logger:       log.Named("api-handler"),
	}
}

// sessionState is the JSON view of a session's flow position
type sessionState struct {
	Inspector string               `json:"inspector"`
	Page      session.Page         `json:"page"`
	Journal   session.JournalState `json:"journal"`
	Compose   string               `json:"compose_text,omitempty"`
	Draft     *normalizer.Draft    `json:"draft,omitempty"`
}

func snapshotState(s *session.Session) sessionState {
	state := sessionState{
		Inspector: s.Inspector,
		Page:      s.Page,
		Journal:   s.Journal,
		Compose:   s.ComposeText,
	}
	if s.Draft != nil {
		draft := *s.Draft
		state.Draft = &draft
	}
	return state
}

// Login authenticates against the configured admin identity and starts a
// session at the home page
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	s, err := h.sessions.Login(req.Username, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "bad_credentials", err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, snapshotState(s))
}

// Logout drops the session and clears the cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(sessionToken(r))

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	respondJSON(w, http.StatusOK, map[string]string{"page": string(session.PageLogin)})
}

// GetSession returns the session's current flow state
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	var state sessionState
	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		state = snapshotState(s)
	})
	respondJSON(w, http.StatusOK, state)
}

// Navigate moves the session between pages
func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page session.Page `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	var state sessionState
	var navErr error
	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		navErr = s.Navigate(req.Page)
		state = snapshotState(s)
	})
	if navErr != nil {
		respondServiceError(w, navErr)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// searchRequest mirrors the filter selectors; empty/zero means "all"
type searchRequest struct {
	Region     string `json:"region"`
	Site       string `json:"site"`
	Year       string `json:"year"`
	Month      int    `json:"month"`
	CameraType string `json:"camera_type"`
	Inspector  string `json:"inspector"`
	MatchAny   bool   `json:"match_any"`
}

func (r searchRequest) filter() store.Filter {
	return store.Filter{
		Region:     r.Region,
		Site:       r.Site,
		Year:       r.Year,
		Month:      r.Month,
		CameraType: r.CameraType,
		Inspector:  r.Inspector,
		MatchAny:   r.MatchAny,
	}
}

// Search runs a filtered select and remembers the result set in the session
// for the viewer's edit tab and for exports
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	records, err := h.repairs.Search(r.Context(), req.filter())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}

	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		s.RememberSearch(records)
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// ListRecords returns records for the viewer. With scope=search the most
// recent search result set is reused when one exists; otherwise (and by
// default) it is a full fetch ordered by recency.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("scope") == "search" {
		var records []store.Record
		var found bool
		h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
			records, found = s.LastSearch()
		})
		if found {
			respondJSON(w, http.StatusOK, map[string]any{"count": len(records), "records": records})
			return
		}
	}

	records, err := h.repairs.All(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if records == nil {
		records = []store.Record{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"count": len(records), "records": records})
}

// recordRequest carries the client-mutable record fields
type recordRequest struct {
	Region       string `json:"region"`
	SiteName     string `json:"site_name"`
	RepairYear   int    `json:"repair_year"`
	RepairMonth  int    `json:"repair_month"`
	RepairDetail string `json:"repair_detail"`
	CameraType   string `json:"camera_type"`
	Inspector    string `json:"inspector"`
}

func (r recordRequest) record() store.Record {
	return store.Record{
		Region:       r.Region,
		SiteName:     r.SiteName,
		RepairYear:   r.RepairYear,
		RepairMonth:  r.RepairMonth,
		RepairDetail: r.RepairDetail,
		CameraType:   r.CameraType,
		Inspector:    r.Inspector,
	}
}

// CreateRecord inserts a new repair record
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	id, err := h.repairs.Create(r.Context(), req.record())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// UpdateRecord replaces the client-mutable fields of a record
func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid record id")
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	if err := h.repairs.Update(r.Context(), id, req.record()); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// DeleteRecord removes a record. The body must carry confirmed=true; an
// unconfirmed delete is rejected without touching the store.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid record id")
		return
	}

	var req struct {
		Confirmed bool `json:"confirmed"`
	}
	if r.Body != nil {
		// An absent or malformed body counts as unconfirmed
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if err := h.repairs.Delete(r.Context(), id, req.Confirmed); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// GetOptions returns the cached distinct-value selector lists
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.repairs.Options(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, opts)
}

// GetStats returns the aggregate statistics
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repairs.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Export serializes the current result set (last search when one exists,
// otherwise all records) as a CSV or XLSX download
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		respondError(w, http.StatusBadRequest, "bad_request", "format must be csv or xlsx")
		return
	}

	var records []store.Record
	var found bool
	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		records, found = s.LastSearch()
	})
	if !found {
		var err error
		records, err = h.repairs.All(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
	}

	var buf bytes.Buffer
	var contentType string
	var err error
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = export.WriteCSV(&buf, records)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = export.WriteXLSX(&buf, records)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "export_error", err.Error())
		return
	}

	filename := export.Filename(h.exportPrefix, format, time.Now())
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		"attachment; filename*=UTF-8''"+url.PathEscape(filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// AnalyzeJournal runs the AI normalizer over the submitted free text and
// holds the resulting draft in the session for review. On failure the
// submitted text stays in the session so the user need not retype it.
func (h *Handler) AnalyzeJournal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusUnprocessableEntity, "validation_error", "text must not be empty")
		return
	}

	var inspector string
	var onJournal bool
	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		inspector = s.Inspector
		onJournal = s.Page == session.PageJournal
	})
	if !onJournal {
		respondError(w, http.StatusConflict, "invalid_transition", "analysis is only available on the journal page")
		return
	}

	// The model call runs outside the session lock; a slow call blocks
	// only this interaction
	draft, err := h.normalizer.Normalize(r.Context(), req.Text, inspector)
	if err != nil {
		h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
			s.KeepComposing(req.Text)
		})
		respondServiceError(w, err)
		return
	}

	// The user may have left the journal while the call was in flight; a
	// draft must never be planted on another page
	var state sessionState
	var left bool
	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		if s.Page != session.PageJournal {
			left = true
			return
		}
		s.StartReview(req.Text, draft)
		state = snapshotState(s)
	})
	if left {
		respondError(w, http.StatusConflict, "invalid_transition", "the journal page was left during analysis")
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// SaveJournal persists the reviewed draft as a real record
func (h *Handler) SaveJournal(w http.ResponseWriter, r *http.Request) {
	var draft normalizer.Draft
	var hasDraft bool
	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		if s.Draft != nil {
			draft = *s.Draft
			hasDraft = true
		}
	})
	if !hasDraft {
		respondError(w, http.StatusConflict, "no_draft", "no draft is awaiting review")
		return
	}

	id, err := h.repairs.Create(r.Context(), draft.Record())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Clear the reviewed draft only after the insert succeeded
	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		s.TakeDraft()
	})

	respondJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

// DiscardJournal drops the pending draft and returns to composing
func (h *Handler) DiscardJournal(w http.ResponseWriter, r *http.Request) {
	var state sessionState
	h.sessions.WithSession(sessionToken(r), func(s *session.Session) {
		s.DiscardDraft()
		state = snapshotState(s)
	})
	respondJSON(w, http.StatusOK, state)
}

// GetHealth returns a liveness response
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
