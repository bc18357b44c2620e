package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/user/rating-ingest/internal/entity"
	"github.com/user/rating-ingest/internal/repository"
	"github.com/user/rating-ingest/pkg/metrics"
)

func newMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func ptr[T any](v T) *T { return &v }

// --- browser ---

type fakeBrowser struct {
	tabs      []*fakeTab
	next      int
	newTabErr error
	closed    bool
}

func (b *fakeBrowser) NewTab(context.Context) (repository.Tab, error) {
	if b.newTabErr != nil {
		return nil, b.newTabErr
	}
	if b.next >= len(b.tabs) {
		return nil, errors.New("no more fake tabs")
	}
	t := b.tabs[b.next]
	b.next++
	return t, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

// fakeTab simulates a listing page. Each successful click reveals
// perClick more cards until buttonClicks clicks have been made, after which
// the button disappears.
type fakeTab struct {
	navigateErr  error
	header       string
	noHeader     bool
	buttonClicks int
	perClick     int
	stale        bool // clicks succeed but reveal nothing
	cards        int
	html         string
	htmlErr      error

	navigated []string
	clicks    int
	closed    bool
}

func (t *fakeTab) Navigate(_ context.Context, url string) error {
	t.navigated = append(t.navigated, url)
	return t.navigateErr
}

func (t *fakeTab) Text(_ context.Context, sel repository.Selector) (string, error) {
	if t.noHeader {
		return "", repository.ErrElementNotFound
	}
	return t.header, nil
}

func (t *fakeTab) Click(context.Context, repository.Selector) error {
	if t.clicks >= t.buttonClicks {
		return repository.ErrElementNotFound
	}
	t.clicks++
	if !t.stale {
		t.cards += t.perClick
	}
	return nil
}

func (t *fakeTab) Count(context.Context, repository.Selector) (int, error) {
	return t.cards, nil
}

func (t *fakeTab) HTML(context.Context) (string, error) {
	if t.htmlErr != nil {
		return "", t.htmlErr
	}
	if t.html != "" {
		return t.html, nil
	}
	return fmt.Sprintf("<html><body>%d cards</body></html>", t.cards), nil
}

func (t *fakeTab) Close() error {
	t.closed = true
	return nil
}

// --- store ---

// memStore is an in-memory relational store with transactional semantics:
// writes go to a staging copy that replaces the committed state on Commit.
type memStore struct {
	mu sync.Mutex

	schools     map[string]int64
	departments map[string]int64
	instructors []entity.Instructor
	nextDeptID  int64

	failInsert  error
	failSchools error

	departmentInserts int
	departmentLookups int
	commits           int
	rollbacks         int
}

func newMemStore(catalog entity.Catalog) *memStore {
	s := &memStore{schools: map[string]int64{}, departments: map[string]int64{}, nextDeptID: 1}
	for id, name := range catalog {
		s.schools[name] = id
	}
	return s
}

func (s *memStore) BeginBatch(context.Context) (repository.BatchTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{store: s, departments: map[string]int64{}, nextDeptID: s.nextDeptID}
	for k, v := range s.departments {
		tx.departments[k] = v
	}
	return tx, nil
}

func (s *memStore) departmentRows() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.departments))
	for name := range s.departments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type memTx struct {
	store       *memStore
	departments map[string]int64
	nextDeptID  int64
	instructors []entity.Instructor
	done        bool
}

func (tx *memTx) SchoolIDs(context.Context) (map[string]int64, error) {
	if tx.store.failSchools != nil {
		return nil, tx.store.failSchools
	}
	ids := make(map[string]int64, len(tx.store.schools))
	for k, v := range tx.store.schools {
		ids[k] = v
	}
	return ids, nil
}

func (tx *memTx) InsertDepartment(_ context.Context, name string) (int64, bool, error) {
	tx.store.departmentInserts++
	if _, ok := tx.departments[name]; ok {
		return 0, false, nil
	}
	id := tx.nextDeptID
	tx.nextDeptID++
	tx.departments[name] = id
	return id, true, nil
}

func (tx *memTx) DepartmentID(_ context.Context, name string) (int64, error) {
	tx.store.departmentLookups++
	id, ok := tx.departments[name]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (tx *memTx) InsertInstructors(_ context.Context, rows []entity.Instructor) (int64, error) {
	if tx.store.failInsert != nil {
		return 0, tx.store.failInsert
	}
	tx.instructors = append(tx.instructors, rows...)
	return int64(len(rows)), nil
}

func (tx *memTx) Commit(context.Context) error {
	if tx.done {
		return errors.New("tx already closed")
	}
	tx.done = true
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.departments = tx.departments
	tx.store.nextDeptID = tx.nextDeptID
	tx.store.instructors = append(tx.store.instructors, tx.instructors...)
	tx.store.commits++
	return nil
}

func (tx *memTx) Rollback(context.Context) error {
	if tx.done {
		return nil
	}
	tx.done = true
	tx.store.rollbacks++
	return nil
}

// --- snapshots ---

type memSnapshots struct {
	saved   map[string][]entity.InstructorRecord
	files   map[string][]entity.InstructorRecord
	saveErr error
	loadErr map[string]error
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{
		saved:   map[string][]entity.InstructorRecord{},
		files:   map[string][]entity.InstructorRecord{},
		loadErr: map[string]error{},
	}
}

func (s *memSnapshots) Save(_ context.Context, school string, records []entity.InstructorRecord) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saved[school] = records
	return "/snapshots/" + school + ".parquet", nil
}

func (s *memSnapshots) Load(_ context.Context, path string) ([]entity.InstructorRecord, error) {
	if err := s.loadErr[path]; err != nil {
		return nil, err
	}
	records, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return records, nil
}

func (s *memSnapshots) List(context.Context, string) ([]string, error) {
	paths := make([]string, 0, len(s.files)+len(s.loadErr))
	for p := range s.files {
		paths = append(paths, p)
	}
	for p := range s.loadErr {
		if _, ok := s.files[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// --- redis-backed repositories ---

type memQueue struct {
	items []int64
	err   error
}

func (q *memQueue) Push(_ context.Context, id int64) error {
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, id)
	return nil
}

func (q *memQueue) Pop(context.Context) (int64, bool, error) {
	if q.err != nil {
		return 0, false, q.err
	}
	if len(q.items) == 0 {
		return 0, false, nil
	}
	id := q.items[0]
	q.items = q.items[1:]
	return id, true, nil
}

func (q *memQueue) Size(context.Context) (int64, error) {
	return int64(len(q.items)), q.err
}

type memVisited struct {
	marks   map[int64]time.Duration
	removed []int64
}

func newMemVisited() *memVisited { return &memVisited{marks: map[int64]time.Duration{}} }

func (v *memVisited) MarkVisited(_ context.Context, id int64, expiry time.Duration) error {
	v.marks[id] = expiry
	return nil
}

func (v *memVisited) IsVisited(_ context.Context, id int64) (bool, error) {
	_, ok := v.marks[id]
	return ok, nil
}

func (v *memVisited) RemoveVisited(_ context.Context, id int64) error {
	delete(v.marks, id)
	v.removed = append(v.removed, id)
	return nil
}

type memStatus struct {
	statuses map[int64]entity.IngestionStatus
	history  map[int64][]string
}

func newMemStatus() *memStatus {
	return &memStatus{statuses: map[int64]entity.IngestionStatus{}, history: map[int64][]string{}}
}

func (s *memStatus) Set(_ context.Context, st *entity.IngestionStatus) error {
	s.statuses[st.SchoolID] = *st
	s.history[st.SchoolID] = append(s.history[st.SchoolID], st.CurrentStatus)
	return nil
}

func (s *memStatus) Get(_ context.Context, id int64) (*entity.IngestionStatus, error) {
	st, ok := s.statuses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

type memSchools struct {
	schools map[int64]string
}

func (r *memSchools) Seed(_ context.Context, catalog entity.Catalog) (int64, error) {
	var n int64
	for id, name := range catalog {
		if _, ok := r.schools[id]; !ok {
			r.schools[id] = name
			n++
		}
	}
	return n, nil
}

func (r *memSchools) FindByID(_ context.Context, id int64) (*entity.School, error) {
	name, ok := r.schools[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &entity.School{ID: id, Name: name}, nil
}

func (r *memSchools) List(context.Context) ([]entity.School, error) {
	schools := entity.Catalog(r.schools).Schools()
	sort.Slice(schools, func(i, j int) bool { return schools[i].ID < schools[j].ID })
	return schools, nil
}
