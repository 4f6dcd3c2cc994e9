package normalizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

// TextGenerator is the single text-in/text-out boundary to the language
// model. The service holds no conversation state; all prompt construction
// and response parsing happen on this side.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Draft is an unpersisted repair record candidate produced from free text.
// It becomes a real record only on explicit save.
type Draft struct {
	Region       string `json:"region"`
	SiteName     string `json:"site_name"`
	RepairYear   int    `json:"repair_year"`
	RepairMonth  int    `json:"repair_month"`
	RepairDetail string `json:"repair_detail"`
	CameraType   string `json:"camera_type"`
	Inspector    string `json:"inspector"`
}

// Record converts the draft into a record ready for insertion
func (d Draft) Record() store.Record {
	return store.Record{
		Region:       d.Region,
		SiteName:     d.SiteName,
		RepairYear:   d.RepairYear,
		RepairMonth:  d.RepairMonth,
		RepairDetail: d.RepairDetail,
		CameraType:   d.CameraType,
		Inspector:    d.Inspector,
	}
}

// Normalizer converts a natural-language repair note into a structured
// draft record via the text-generation service
type Normalizer struct {
	generator TextGenerator
	logger    *logger.Logger
	now       func() time.Time
}

// New creates a normalizer backed by the given text generator
func New(generator TextGenerator, log *logger.Logger) *Normalizer {
	return &Normalizer{
		generator: generator,
		logger:    log.Named("normalizer"),
		now:       time.Now,
	}
}

// Normalize sends the free text to the model with a fixed instruction
// prompt, parses the response as a draft record and applies the defaulting
// rules: missing year/month fall back to the current date, a missing camera
// type becomes empty, and inspector is always overwritten with the acting
// inspector regardless of what the model inferred.
//
// Normalize never writes to the store. Persistence happens only via the
// separate explicit save step, using the draft as-is.
func (n *Normalizer) Normalize(ctx context.Context, freeText, actingInspector string) (Draft, error) {
	reqID := uuid.New().String()
	start := n.now()

	systemPrompt := buildSystemPrompt(start, actingInspector)

	n.logger.Debug("Analyzing repair note",
		logger.String("req_id", reqID),
		logger.Int("text_len", len(freeText)),
		logger.String("inspector", actingInspector),
	)

	response, err := n.generator.Generate(ctx, systemPrompt, freeText)
	if err != nil {
		n.logger.Error("Text generation failed",
			logger.String("req_id", reqID),
			logger.Error(err),
		)
		return Draft{}, &GenerationError{Err: err}
	}

	cleaned := stripCodeFences(response)

	if err := validateAgainstSchema(draftSchema(), []byte(cleaned)); err != nil {
		n.logger.Error("Model response rejected",
			logger.String("req_id", reqID),
			logger.Error(err),
		)
		return Draft{}, &ParseError{Raw: response, Err: err}
	}

	var parsed struct {
		Region       string `json:"region"`
		SiteName     string `json:"site_name"`
		RepairYear   *int   `json:"repair_year"`
		RepairMonth  *int   `json:"repair_month"`
		RepairDetail string `json:"repair_detail"`
		CameraType   string `json:"camera_type"`
		Inspector    string `json:"inspector"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return Draft{}, &ParseError{Raw: response, Err: err}
	}

	draft := Draft{
		Region:       strings.TrimSpace(parsed.Region),
		SiteName:     strings.TrimSpace(parsed.SiteName),
		RepairDetail: strings.TrimSpace(parsed.RepairDetail),
		CameraType:   strings.TrimSpace(parsed.CameraType),
		// The model's guess never wins over the logged-in identity
		Inspector: actingInspector,
	}

	if parsed.RepairYear != nil && *parsed.RepairYear != 0 {
		draft.RepairYear = *parsed.RepairYear
	} else {
		draft.RepairYear = start.Year()
	}
	if parsed.RepairMonth != nil && *parsed.RepairMonth != 0 {
		draft.RepairMonth = *parsed.RepairMonth
	} else {
		draft.RepairMonth = int(start.Month())
	}

	n.logger.Debug("Repair note analyzed",
		logger.String("req_id", reqID),
		logger.String("region", draft.Region),
		logger.String("site", draft.SiteName),
		logger.Int("year", draft.RepairYear),
		logger.Int("month", draft.RepairMonth),
		logger.Duration("elapsed", n.now().Sub(start)),
	)

	return draft, nil
}

// buildSystemPrompt composes the fixed instruction template with the
// current date (supplying default year/month) and the acting inspector
func buildSystemPrompt(now time.Time, actingInspector string) string {
	parts := []string{
		"You are a CCTV repair journal parser. The user message is a free-text repair note.",
		"Return ONLY a JSON object with exactly these fields: region, site_name, repair_year, repair_month, repair_detail, camera_type, inspector.",
		"region and site_name are short Korean place/site labels extracted from the note.",
		"repair_year and repair_month are integers; repair_month is 1-12.",
		fmt.Sprintf("Today is %s. If the note does not state a date, use year %d and month %d.",
			now.Format("2006-01-02"), now.Year(), int(now.Month())),
		"repair_detail is a concise description of the fault and the work performed.",
		"camera_type is the camera model or kind if mentioned, otherwise an empty string.",
		fmt.Sprintf("inspector is %q.", actingInspector),
		"Do not wrap the JSON in markdown. Do not add any other field or text.",
	}
	return strings.Join(parts, " ")
}

// stripCodeFences removes markdown code-fence artifacts the model may have
// wrapped the JSON in
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
