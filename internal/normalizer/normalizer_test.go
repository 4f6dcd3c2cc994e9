package normalizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/cctv-repairs/pkg/logger"
)

// stubGenerator replays a canned response or error and captures the prompts
type stubGenerator struct {
	response string
	err      error
	system   string
	user     string
}

func (g *stubGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	g.system = systemPrompt
	g.user = userPrompt
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func fixedNow() time.Time {
	return time.Date(2024, time.July, 15, 10, 30, 0, 0, time.UTC)
}

func newTestNormalizer(g TextGenerator) *Normalizer {
	n := New(g, logger.Nop())
	n.now = fixedNow
	return n
}

func TestNormalizeFencedResponse(t *testing.T) {
	g := &stubGenerator{response: "```json\n" + `{
		"region": "전주",
		"site_name": "전주시청",
		"repair_year": 2024,
		"repair_month": 6,
		"repair_detail": "카메라 렌즈 교체",
		"camera_type": "돔형",
		"inspector": "모델이추측한이름"
	}` + "\n```"}

	draft, err := newTestNormalizer(g).Normalize(context.Background(), "전주시청 돔 카메라 렌즈 교체함", "김철수")
	require.NoError(t, err)

	assert.Equal(t, "전주", draft.Region)
	assert.Equal(t, "전주시청", draft.SiteName)
	assert.Equal(t, 2024, draft.RepairYear)
	assert.Equal(t, 6, draft.RepairMonth)
	assert.Equal(t, "카메라 렌즈 교체", draft.RepairDetail)
	assert.Equal(t, "돔형", draft.CameraType)
	// The acting inspector always wins over the model's guess
	assert.Equal(t, "김철수", draft.Inspector)
}

func TestNormalizeDefaultsYearMonthFromCurrentDate(t *testing.T) {
	g := &stubGenerator{response: `{"region":"군산","site_name":"군산항","repair_detail":"전원부 수리"}`}

	draft, err := newTestNormalizer(g).Normalize(context.Background(), "군산항 전원부 수리", "김철수")
	require.NoError(t, err)

	assert.Equal(t, 2024, draft.RepairYear)
	assert.Equal(t, 7, draft.RepairMonth)
	assert.Equal(t, "", draft.CameraType)
}

func TestNormalizePromptContents(t *testing.T) {
	g := &stubGenerator{response: `{"region":"전주","site_name":"전주시청"}`}

	freeText := "전주시청 카메라 수리"
	_, err := newTestNormalizer(g).Normalize(context.Background(), freeText, "김철수")
	require.NoError(t, err)

	// Free text goes verbatim as the subject to analyze
	assert.Equal(t, freeText, g.user)
	// The instruction template embeds the current date and the inspector
	assert.Contains(t, g.system, "2024-07-15")
	assert.Contains(t, g.system, `"김철수"`)
}

func TestNormalizeGenerationError(t *testing.T) {
	g := &stubGenerator{err: errors.New("quota exhausted")}

	_, err := newTestNormalizer(g).Normalize(context.Background(), "아무거나", "김철수")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
}

func TestNormalizeParseErrorOnJunk(t *testing.T) {
	g := &stubGenerator{response: "죄송합니다, 분석할 수 없습니다."}

	_, err := newTestNormalizer(g).Normalize(context.Background(), "아무거나", "김철수")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Raw, "죄송합니다")
}

func TestNormalizeParseErrorOnSchemaViolation(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"missing site_name", `{"region":"전주"}`},
		{"extra field", `{"region":"전주","site_name":"전주시청","note":"extra"}`},
		{"month out of range", `{"region":"전주","site_name":"전주시청","repair_month":13}`},
		{"year not an integer", `{"region":"전주","site_name":"전주시청","repair_year":"작년"}`},
		{"array instead of object", `[{"region":"전주","site_name":"전주시청"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &stubGenerator{response: tt.response}
			_, err := newTestNormalizer(g).Normalize(context.Background(), "아무거나", "김철수")
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```json\n{\"a\":1}\n```  ", "{\"a\":1}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in))
	}
}

func TestDraftRecord(t *testing.T) {
	d := Draft{
		Region:       "전주",
		SiteName:     "전주시청",
		RepairYear:   2024,
		RepairMonth:  7,
		RepairDetail: "수리",
		CameraType:   "돔형",
		Inspector:    "김철수",
	}
	r := d.Record()
	assert.Equal(t, int64(0), r.ID)
	assert.True(t, r.CreatedAt.IsZero())
	assert.Equal(t, d.Region, r.Region)
	assert.Equal(t, d.SiteName, r.SiteName)
	assert.NoError(t, r.Validate())
}

func TestNormalizeTrimsWhitespace(t *testing.T) {
	g := &stubGenerator{response: `{"region":"  전주 ","site_name":" 전주시청  "}`}

	draft, err := newTestNormalizer(g).Normalize(context.Background(), "아무거나", "김철수")
	require.NoError(t, err)
	assert.Equal(t, "전주", draft.Region)
	assert.False(t, strings.ContainsAny(draft.SiteName, " \t"))
}
