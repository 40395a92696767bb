package store

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
)

const (
	DefaultCount = 1_000_000
	DefaultSeed  = 1
)

var (
	ErrDuplicateID = errors.New("item already exists")
	ErrNotFound    = errors.New("item not found")
)

type Item struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// ListQuery selects one page of a list. Filter, when set, keeps only items
// whose decimal id contains the filter's decimal digits.
type ListQuery struct {
	Page   int
	Limit  int
	Filter *int64
}

type Page struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

type State struct {
	SelectedIDs []int64 `json:"selectedIds"`
}

type RestoreResult struct {
	Applied bool   `json:"applied"`
	Message string `json:"message,omitempty"`
}

type Config struct {
	Count int
	Seed  uint64
}

// Store holds the dataset and the ordered selection. Mutations are expected
// to come from a single goroutine (the batch processor); the lock only makes
// concurrent snapshot readers safe.
type Store struct {
	mu sync.RWMutex

	labels   map[int64]string
	ids      []int64 // ascending
	inserted []Item

	selected    []int64
	selectedSet map[int64]struct{}

	rng *rand.Rand
}

func New(cfg Config) *Store {
	if cfg.Count < 0 {
		cfg.Count = 0
	}
	s := &Store{
		labels:      make(map[int64]string, cfg.Count),
		ids:         make([]int64, 0, cfg.Count),
		selectedSet: make(map[int64]struct{}),
		rng:         rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
	for id := int64(1); id <= int64(cfg.Count); id++ {
		s.labels[id] = generateLabel(s.rng)
		s.ids = append(s.ids, id)
	}
	return s
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

func (s *Store) Get(id int64) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	label, ok := s.labels[id]
	return Item{ID: id, Label: label}, ok
}

// List returns the items that are not selected, in ascending id order.
func (s *Store) List(q ListQuery) Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := matcher(q.Filter)
	start, end := bounds(q)
	page := Page{Items: []Item{}, Page: q.Page, Limit: q.Limit}
	for _, id := range s.ids {
		if _, sel := s.selectedSet[id]; sel {
			continue
		}
		if !match(id) {
			continue
		}
		if page.Total >= start && page.Total < end {
			page.Items = append(page.Items, Item{ID: id, Label: s.labels[id]})
		}
		page.Total++
	}
	return page
}

// ListSelected returns the selected items in selection order.
func (s *Store) ListSelected(q ListQuery) Page {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := matcher(q.Filter)
	start, end := bounds(q)
	page := Page{Items: []Item{}, Page: q.Page, Limit: q.Limit}
	for _, id := range s.selected {
		label, ok := s.labels[id]
		if !ok || !match(id) {
			continue
		}
		if page.Total >= start && page.Total < end {
			page.Items = append(page.Items, Item{ID: id, Label: label})
		}
		page.Total++
	}
	return page
}

// Insert adds a new item. An empty label is replaced by a generated one.
func (s *Store) Insert(id int64, label string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.labels[id]; ok {
		return Item{}, fmt.Errorf("insert %d: %w", id, ErrDuplicateID)
	}
	if label == "" {
		label = generateLabel(s.rng)
	}
	s.labels[id] = label
	i, _ := slices.BinarySearch(s.ids, id)
	s.ids = slices.Insert(s.ids, i, id)

	it := Item{ID: id, Label: label}
	s.inserted = append(s.inserted, it)
	return it, nil
}

// Select appends id to the end of the selection. It reports false when the
// item was already selected.
func (s *Store) Select(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.labels[id]; !ok {
		return false, fmt.Errorf("select %d: %w", id, ErrNotFound)
	}
	if _, ok := s.selectedSet[id]; ok {
		return false, nil
	}
	s.selected = append(s.selected, id)
	s.selectedSet[id] = struct{}{}
	return true, nil
}

// Deselect reports false when id was not selected.
func (s *Store) Deselect(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.selectedSet[id]; !ok {
		return false
	}
	i := slices.Index(s.selected, id)
	s.selected = slices.Delete(s.selected, i, i+1)
	delete(s.selectedSet, id)
	return true
}

// Reorder moves a selected id to newIndex, counted after the id has been
// removed from its old position. Indexes past the end move it to the end.
func (s *Store) Reorder(id int64, newIndex int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := slices.Index(s.selected, id)
	if cur == -1 {
		return false, fmt.Errorf("reorder %d: %w", id, ErrNotFound)
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if cur == newIndex {
		return true, nil
	}
	s.selected = slices.Delete(s.selected, cur, cur+1)
	if newIndex > len(s.selected) {
		newIndex = len(s.selected)
	}
	s.selected = slices.Insert(s.selected, newIndex, id)
	return true, nil
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{SelectedIDs: slices.Clone(s.selected)}
}

// Restore replaces the selection. When the incoming ids are the same set as
// the current selection in a different order, the server order wins: the
// batch processor has already applied the reorders the client is replaying.
// Unknown and repeated ids are dropped.
func (s *Store) Restore(st State) RestoreResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sameSet(st.SelectedIDs, s.selectedSet) && !slices.Equal(st.SelectedIDs, s.selected) {
		return RestoreResult{Applied: false, Message: "state unchanged, server state is current"}
	}

	next := make([]int64, 0, len(st.SelectedIDs))
	set := make(map[int64]struct{}, len(st.SelectedIDs))
	for _, id := range st.SelectedIDs {
		if _, ok := s.labels[id]; !ok {
			continue
		}
		if _, dup := set[id]; dup {
			continue
		}
		set[id] = struct{}{}
		next = append(next, id)
	}
	s.selected = next
	s.selectedSet = set
	return RestoreResult{Applied: true}
}

// Inserted returns the items added after the initial dataset was generated.
func (s *Store) Inserted() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.inserted)
}

func sameSet(ids []int64, set map[int64]struct{}) bool {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
		seen[id] = struct{}{}
	}
	return len(seen) == len(set)
}

func matcher(filter *int64) func(int64) bool {
	if filter == nil {
		return func(int64) bool { return true }
	}
	needle := strconv.FormatInt(*filter, 10)
	return func(id int64) bool {
		return strings.Contains(strconv.FormatInt(id, 10), needle)
	}
}

func bounds(q ListQuery) (int, int) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 0 {
		limit = 0
	}
	// pages past the addressable range are empty
	if limit == 0 || page-1 > (math.MaxInt-limit)/limit {
		return 0, 0
	}
	start := (page - 1) * limit
	return start, start + limit
}
