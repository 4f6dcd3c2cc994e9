package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func record(region, site string, year, month int, detail, camera, inspector string) store.Record {
	return store.Record{
		Region:       region,
		SiteName:     site,
		RepairYear:   year,
		RepairMonth:  month,
		RepairDetail: detail,
		CameraType:   camera,
		Inspector:    inspector,
	}
}

func TestInsertAndSelectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, record("전주", "전주시청", 2024, 7, "렌즈 교체", "돔형", "김철수"))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	// A predicate matching all set fields returns the record exactly once
	p, err := store.BuildPredicate(store.Filter{
		Region: "전주", Site: "전주시청", Year: "2024", Month: 7,
		CameraType: "돔형", Inspector: "김철수",
	})
	require.NoError(t, err)

	got, err := s.Select(ctx, p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, "렌즈 교체", got[0].RepairDetail)
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestSelectUnconditionalOrdering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []int64
	for _, site := range []string{"현장A", "현장B", "현장C"} {
		id, err := s.Insert(ctx, record("전주", site, 2024, 1, "", "", "점검자"))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// No fields set in OR mode: all records, most recent first
	p, err := store.BuildPredicate(store.Filter{MatchAny: true})
	require.NoError(t, err)
	got, err := s.Select(ctx, p)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)
	assert.Equal(t, ids[0], got[2].ID)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i-1].CreatedAt.Before(got[i].CreatedAt))
	}
}

func TestSelectANDvsOR(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, record("전주", "전주시청", 2024, 1, "", "", "a"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, record("전주", "다른현장", 2024, 1, "", "", "b"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, record("군산", "전주시청", 2024, 1, "", "", "c"))
	require.NoError(t, err)

	and, err := store.BuildPredicate(store.Filter{Region: "전주", Site: "전주시청"})
	require.NoError(t, err)
	got, err := s.Select(ctx, and)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	or, err := store.BuildPredicate(store.Filter{Region: "전주", Site: "전주시청", MatchAny: true})
	require.NoError(t, err)
	got, err = s.Select(ctx, or)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestORSingleTermScenario(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, record("전주", "전주시청", 2024, 1, "", "", ""))
	require.NoError(t, err)
	_, err = s.Insert(ctx, record("군산", "군산항", 2024, 1, "", "", ""))
	require.NoError(t, err)

	// OR of one term behaves as a single equality filter
	p, err := store.BuildPredicate(store.Filter{Region: "전주", MatchAny: true})
	require.NoError(t, err)
	got, err := s.Select(ctx, p)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "전주", got[0].Region)
}

func TestInsertValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, record("전주", "   ", 2024, 1, "", "", ""))
	var vErr *store.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "site_name", vErr.Field)

	// The invalid insert must not have touched the table
	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, record("전주", "전주시청", 2024, 1, "old", "돔형", "a"))
	require.NoError(t, err)

	before, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	err = s.Update(ctx, id, record("군산", "군산항", 2023, 2, "new", "불릿형", "b"))
	require.NoError(t, err)

	after, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "군산", after[0].Region)
	assert.Equal(t, "new", after[0].RepairDetail)
	// created_at is immutable across updates
	assert.True(t, after[0].CreatedAt.Equal(before[0].CreatedAt))

	err = s.Update(ctx, id, store.Record{Region: "군산", SiteName: ""})
	var vErr *store.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateMissingRecord(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(context.Background(), 9999, record("전주", "전주시청", 2024, 1, "", "", ""))
	var sErr *store.StoreError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "update", sErr.Op)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, record("전주", "전주시청", 2024, 1, "", "", ""))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = s.Delete(ctx, id)
	var sErr *store.StoreError
	require.ErrorAs(t, err, &sErr)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreatedAtParse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	_, err := s.Insert(ctx, record("전주", "전주시청", 2024, 1, "", "", ""))
	require.NoError(t, err)

	all, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].CreatedAt.After(before))
}
