package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/usecase"
)

var acmeCatalog = entity.Catalog{42: "Acme University", 7: "Beta College"}

func record(name, department, school string) entity.InstructorRecord {
	return entity.InstructorRecord{
		Name:          ptr(name),
		Department:    ptr(department),
		School:        ptr(school),
		Quality:       ptr(4.0),
		TotalRatings:  5,
		RetakePercent: ptr(75.0),
		Difficulty:    ptr(2.5),
	}
}

func TestLoadSingleRecordEndToEnd(t *testing.T) {
	store := newMemStore(entity.Catalog{42: "Acme University"})
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	result, err := loader.Load(context.Background(), []entity.InstructorRecord{{
		Name:          ptr("J. Smith"),
		Department:    ptr("Biology"),
		School:        ptr("Acme University"),
		Quality:       ptr(4.2),
		TotalRatings:  10,
		RetakePercent: ptr(80.0),
		Difficulty:    ptr(3.1),
	}})

	require.NoError(t, err)
	require.Equal(t, &entity.LoadResult{Inserted: 1, DepartmentsCreated: 1}, result)
	require.Equal(t, []string{"Biology"}, store.departmentRows())

	want := []entity.Instructor{{
		Name:          "J. Smith",
		DepartmentID:  ptr(store.departments["Biology"]),
		SchoolID:      42,
		Quality:       ptr(4.2),
		TotalRatings:  10,
		RetakePercent: ptr(80.0),
		Difficulty:    ptr(3.1),
	}}
	if diff := cmp.Diff(want, store.instructors); diff != "" {
		t.Errorf("instructors mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 1, store.commits)
}

func TestLoadSkipsUnknownSchool(t *testing.T) {
	store := newMemStore(acmeCatalog)
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	records := make([]entity.InstructorRecord, 0, 10)
	for i := range 9 {
		records = append(records, record(fmt.Sprintf("Instructor %d", i), "Biology", "Acme University"))
	}
	records = append(records[:4], append([]entity.InstructorRecord{record("Lost Soul", "Biology", "Nowhere Tech")}, records[4:]...)...)

	result, err := loader.Load(context.Background(), records)

	require.NoError(t, err)
	require.EqualValues(t, 9, result.Inserted)
	require.Len(t, store.instructors, 9)
	require.Equal(t, []entity.SkippedRecord{{
		Index:  4,
		Name:   "Lost Soul",
		School: "Nowhere Tech",
		Reason: entity.SkipUnknownSchool,
	}}, result.Skipped)
}

func TestLoadSchoolLookupIsCaseSensitive(t *testing.T) {
	store := newMemStore(acmeCatalog)
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	result, err := loader.Load(context.Background(), []entity.InstructorRecord{
		record("A", "Math", "acme university"),
		{Name: ptr("B"), Department: ptr("Math")},
	})

	require.NoError(t, err)
	require.Zero(t, result.Inserted)
	require.Len(t, result.Skipped, 2)
	require.Empty(t, store.departmentRows())
	require.Equal(t, 1, store.commits)
}

func TestLoadSkipsMissingName(t *testing.T) {
	store := newMemStore(acmeCatalog)
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	nameless := record("", "Math", "Acme University")
	nameless.Name = nil

	result, err := loader.Load(context.Background(), []entity.InstructorRecord{nameless, record("B", "Math", "Acme University")})

	require.NoError(t, err)
	require.EqualValues(t, 1, result.Inserted)
	require.Equal(t, []entity.SkippedRecord{{Index: 0, School: "Acme University", Reason: entity.SkipMissingName}}, result.Skipped)
}

func TestLoadDepartmentCache(t *testing.T) {
	store := newMemStore(acmeCatalog)
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	result, err := loader.Load(context.Background(), []entity.InstructorRecord{
		record("A", "Biology", "Acme University"),
		record("B", "Biology", "Beta College"),
		record("C", "Chemistry", "Acme University"),
		record("D", "Biology", "Acme University"),
	})

	require.NoError(t, err)
	require.Equal(t, 2, result.DepartmentsCreated)
	require.Equal(t, 2, store.departmentInserts)
	require.Zero(t, store.departmentLookups)
	require.Equal(t, []string{"Biology", "Chemistry"}, store.departmentRows())

	bio := store.departments["Biology"]
	for _, i := range []int{0, 1, 3} {
		require.Equal(t, bio, *store.instructors[i].DepartmentID)
	}
}

func TestLoadTwiceReusesDepartmentsAndAppendsInstructors(t *testing.T) {
	store := newMemStore(acmeCatalog)
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())
	batch := []entity.InstructorRecord{
		record("A", "Biology", "Acme University"),
		record("B", "Biology", "Acme University"),
	}

	first, err := loader.Load(context.Background(), batch)
	require.NoError(t, err)
	bio := store.departments["Biology"]

	second, err := loader.Load(context.Background(), batch)
	require.NoError(t, err)

	require.Equal(t, 1, first.DepartmentsCreated)
	require.Zero(t, second.DepartmentsCreated)
	require.Equal(t, []string{"Biology"}, store.departmentRows())
	require.Equal(t, bio, store.departments["Biology"])
	// Instructor rows are appended on every load, never upserted.
	require.Len(t, store.instructors, 4)
	for _, in := range store.instructors {
		require.Equal(t, bio, *in.DepartmentID)
	}
	// The second batch pays one insert attempt and one lookup for Biology.
	require.Equal(t, 2, store.departmentInserts)
	require.Equal(t, 1, store.departmentLookups)
}

func TestLoadWithoutDepartment(t *testing.T) {
	store := newMemStore(acmeCatalog)
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	rec := record("A", "", "Acme University")
	rec.Department = nil

	result, err := loader.Load(context.Background(), []entity.InstructorRecord{rec, record("B", "", "Acme University")})

	require.NoError(t, err)
	require.EqualValues(t, 2, result.Inserted)
	require.Zero(t, store.departmentInserts)
	require.Nil(t, store.instructors[0].DepartmentID)
	require.Nil(t, store.instructors[1].DepartmentID)
}

func TestLoadBulkInsertFailureRollsBack(t *testing.T) {
	store := newMemStore(acmeCatalog)
	store.failInsert = errors.New("connection reset")
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	result, err := loader.Load(context.Background(), []entity.InstructorRecord{
		record("A", "Biology", "Acme University"),
		record("B", "Chemistry", "Acme University"),
	})

	require.Nil(t, result)
	require.ErrorIs(t, err, usecase.ErrLoadFailed)
	require.ErrorIs(t, err, store.failInsert)
	require.Empty(t, store.instructors)
	require.Empty(t, store.departmentRows())
	require.Zero(t, store.commits)
	require.Equal(t, 1, store.rollbacks)
}

func TestLoadSchoolSnapshotFailure(t *testing.T) {
	store := newMemStore(acmeCatalog)
	store.failSchools = errors.New("relation \"schools\" does not exist")
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	_, err := loader.Load(context.Background(), []entity.InstructorRecord{record("A", "Biology", "Acme University")})

	require.ErrorIs(t, err, usecase.ErrLoadFailed)
	require.Equal(t, 1, store.rollbacks)
}

func TestLoadEmptyBatch(t *testing.T) {
	store := newMemStore(acmeCatalog)
	loader := usecase.NewBatchLoader(store, zap.NewNop(), newMetrics())

	result, err := loader.Load(context.Background(), nil)

	require.NoError(t, err)
	require.Equal(t, &entity.LoadResult{}, result)
}

func TestIdentityResolver(t *testing.T) {
	r := usecase.IdentityResolverFromCatalog(entity.Catalog{42: "Acme University", 1095: "University of Denver"})

	id, ok := r.Resolve("Acme University")
	require.True(t, ok)
	require.EqualValues(t, 42, id)

	_, ok = r.Resolve("ACME UNIVERSITY")
	require.False(t, ok)
	_, ok = r.Resolve("")
	require.False(t, ok)
	require.Equal(t, 2, r.Len())
}

func TestIdentityResolverSnapshotIsIsolated(t *testing.T) {
	ids := map[string]int64{"Acme University": 42}
	r := usecase.NewIdentityResolver(ids)
	ids["Beta College"] = 7

	_, ok := r.Resolve("Beta College")
	require.False(t, ok)
}
