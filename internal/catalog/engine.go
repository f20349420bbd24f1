// Package catalog holds the most recently fetched catalog and derives
// a filtered, sorted view of it on demand.
package catalog

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/maxviazov/dolina-flower-order-frontend/internal/domain"
)

// SortKey selects the field the derived view is ordered by.
type SortKey string

const (
	SortByPrice   SortKey = "price"
	SortByVariety SortKey = "variety"
	SortByLength  SortKey = "length"
)

// SortDirection selects ascending or descending order.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// LoadState is the catalog fetch lifecycle.
type LoadState int

const (
	Idle LoadState = iota
	Loading
	Loaded
	Failed
)

func (s LoadState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// FetchError reports a failed catalog load. The previously loaded
// catalog is retained.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "failed to load catalog: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// FieldFilters are per-field substring matchers; an empty field
// trivially passes. Length is matched against its decimal text, so a
// filter of "5" matches both 50 and 5.
type FieldFilters struct {
	Variety string
	Length  string
	Farm    string
}

// FilterUpdate is a partial update of FieldFilters; nil fields are
// left untouched.
type FilterUpdate struct {
	Variety *string
	Length  *string
	Farm    *string
}

// Lister fetches the catalog from the backend.
type Lister interface {
	ListFlowers(ctx context.Context) ([]domain.CatalogItem, error)
}

// Engine owns the fetched catalog and its query state. All mutation
// goes through the methods below; the derived view never mutates the
// underlying items. Methods are safe for concurrent use, and a
// derivation observes every setter call that completed before it.
type Engine struct {
	client Lister

	mu         sync.Mutex
	items      []domain.CatalogItem
	state      LoadState
	err        error
	seq        uint64 // last issued load; stale responses are discarded
	searchTerm string
	sortKey    SortKey
	sortDir    SortDirection
	filters    FieldFilters

	collator *collate.Collator
}

func NewEngine(client Lister) *Engine {
	return &Engine{
		client:   client,
		state:    Idle,
		sortKey:  SortByVariety,
		sortDir:  Ascending,
		collator: collate.New(language.Und),
	}
}

// Load fetches the catalog and replaces the held items wholesale. On
// failure the previous catalog (or empty, on first load) is retained
// and the error is recorded; no retry is attempted. If a newer Load
// was issued while this one was in flight, the settled response is
// discarded: the last-issued request wins regardless of arrival
// order.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.state = Loading
	e.err = nil
	e.mu.Unlock()

	items, err := e.client.ListFlowers(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		return nil
	}
	if err != nil {
		e.state = Failed
		e.err = &FetchError{Err: err}
		return e.err
	}
	e.items = items
	e.state = Loaded
	return nil
}

func (e *Engine) SetSearchTerm(term string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.searchTerm = term
}

func (e *Engine) SetSortKey(key SortKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sortKey = key
}

func (e *Engine) SetSortDirection(dir SortDirection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sortDir = dir
}

// SetFieldFilters merges a partial filter update; nil fields keep
// their current value.
func (e *Engine) SetFieldFilters(u FilterUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if u.Variety != nil {
		e.filters.Variety = *u.Variety
	}
	if u.Length != nil {
		e.filters.Length = *u.Length
	}
	if u.Farm != nil {
		e.filters.Farm = *u.Farm
	}
}

// State reports the fetch lifecycle state.
func (e *Engine) State() LoadState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err reports the last recorded fetch error, nil when none.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// FilteredView derives the filtered, sorted catalog view. The result
// is a fresh slice; items are shared read-only values. An item passes
// when the search term is empty or is a case-insensitive substring of
// its variety, and every non-empty field filter matches the
// corresponding field. The sort is stable, so equal-key items keep
// their filtered order in either direction; a missing price sorts as
// zero without touching the item.
func (e *Engine) FilteredView() []domain.CatalogItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	term := strings.ToLower(e.searchTerm)
	out := make([]domain.CatalogItem, 0, len(e.items))
	for _, item := range e.items {
		if term != "" && !strings.Contains(strings.ToLower(item.Variety), term) {
			continue
		}
		if f := e.filters.Variety; f != "" && !strings.Contains(item.Variety, f) {
			continue
		}
		if f := e.filters.Length; f != "" && !strings.Contains(strconv.Itoa(item.Length), f) {
			continue
		}
		if f := e.filters.Farm; f != "" && !strings.Contains(item.FarmName, f) {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return e.less(out[i], out[j])
	})
	return out
}

// less is the direction-aware comparator. Descending flips the
// comparison itself rather than reversing the sorted sequence, which
// would break tie stability.
func (e *Engine) less(a, b domain.CatalogItem) bool {
	var cmp int
	switch e.sortKey {
	case SortByPrice:
		cmp = compareFloat(priceOrZero(a), priceOrZero(b))
	case SortByLength:
		cmp = a.Length - b.Length
	default:
		cmp = e.collator.CompareString(a.Variety, b.Variety)
	}
	if e.sortDir == Descending {
		return cmp > 0
	}
	return cmp < 0
}

func priceOrZero(item domain.CatalogItem) float64 {
	if item.Price == nil {
		return 0
	}
	return *item.Price
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
