package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yegors/cctv-repairs/internal/store"
)

func sampleRecords() []store.Record {
	return []store.Record{
		{
			ID: 2, Region: "전주", SiteName: "전주시청", RepairYear: 2024, RepairMonth: 7,
			RepairDetail: "렌즈 교체", CameraType: "돔형", Inspector: "김철수",
			CreatedAt: time.Date(2024, 7, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			ID: 1, Region: "군산", SiteName: "군산항", RepairYear: 2023, RepairMonth: 12,
			RepairDetail: "전원부, \"퓨즈\" 교체", CameraType: "불릿형", Inspector: "이영희",
			CreatedAt: time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSVStartsWithBOM(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	out := buf.Bytes()
	require.True(t, len(out) > 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3])
}

func TestWriteCSVContents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRecords()))

	// Parse back without the BOM
	r := csv.NewReader(bytes.NewReader(buf.Bytes()[3:]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"지역", "현장명", "년도", "월", "고장수리내역", "카메라종류", "점검자", "등록일시"}, rows[0])
	assert.Equal(t, []string{"전주", "전주시청", "2024", "7", "렌즈 교체", "돔형", "김철수", "2024-07-15 10:30:00"}, rows[1])
	// Quoting survives the round trip
	assert.Equal(t, "전원부, \"퓨즈\" 교체", rows[2][4])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	r := csv.NewReader(bytes.NewReader(buf.Bytes()[3:]))
	rows, err := r.ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRecords()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "지역", rows[0][0])
	assert.Equal(t, "전주", rows[1][0])
	assert.Equal(t, "군산항", rows[2][1])
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 7, 15, 10, 30, 45, 0, time.UTC)
	assert.Equal(t, "수리내역_20240715_103045.csv", Filename("수리내역", "csv", now))
	assert.Equal(t, "수리내역_20240715_103045.xlsx", Filename("수리내역", "xlsx", now))
}
