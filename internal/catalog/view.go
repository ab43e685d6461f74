package catalog

import (
	"fmt"
	"sort"

	"github.com/auracli/aura/internal/domain"
)

// DefaultViewPageSize is the number of items shown per page
const DefaultViewPageSize = 20

// SortMode orders the filtered catalog
type SortMode string

const (
	SortLibrary   SortMode = "library" // section order, then fetch order
	SortTitle     SortMode = "title"
	SortYear      SortMode = "year"  // newest first
	SortAdded     SortMode = "added" // most recently added first
	SortRelevance SortMode = "relevance"
)

var sortModes = []SortMode{SortLibrary, SortTitle, SortYear, SortAdded, SortRelevance}

// ParseSortMode validates a sort name.
func ParseSortMode(s string) (SortMode, error) {
	for _, m := range sortModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

// Next cycles to the following sort mode
func (m SortMode) Next() SortMode {
	for i, mode := range sortModes {
		if mode == m {
			return sortModes[(i+1)%len(sortModes)]
		}
	}
	return SortLibrary
}

// Filter is the user-controlled predicate set. Its predicates are a plain
// conjunction, so the order they are applied in does not matter.
type Filter struct {
	Libraries      map[string]bool // empty = every library
	HideInDatabase bool
	Query          Query
}

// Match reports whether item passes every predicate
func (f Filter) Match(item *domain.MediaItem) bool {
	if len(f.Libraries) > 0 && !f.Libraries[item.LibraryTitle] {
		return false
	}
	if f.HideInDatabase && item.ExistInDatabase {
		return false
	}
	return f.Query.Match(item)
}

// Flatten concatenates every section's items: section order, then fetch
// order. Items are shared, not copied.
func Flatten(sections []domain.LibrarySection) []*domain.MediaItem {
	n := 0
	for _, s := range sections {
		n += len(s.MediaItems)
	}
	items := make([]*domain.MediaItem, 0, n)
	for _, s := range sections {
		items = append(items, s.MediaItems...)
	}
	return items
}

// Apply returns the items passing f, preserving order
func Apply(items []*domain.MediaItem, f Filter) []*domain.MediaItem {
	out := make([]*domain.MediaItem, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// SortItems stable-sorts items in place. SortLibrary keeps the catalog order;
// relevance without a phrase falls back to title order.
func SortItems(items []*domain.MediaItem, mode SortMode, q Query) {
	if mode == SortLibrary {
		return
	}
	byTitle := func(a, b *domain.MediaItem) bool {
		return fold(a.GetSortTitle()) < fold(b.GetSortTitle())
	}
	var less func(a, b *domain.MediaItem) bool
	switch {
	case mode == SortYear:
		less = func(a, b *domain.MediaItem) bool {
			if a.Year != b.Year {
				return a.Year > b.Year
			}
			return byTitle(a, b)
		}
	case mode == SortAdded:
		less = func(a, b *domain.MediaItem) bool { return a.AddedAt > b.AddedAt }
	case mode == SortRelevance && q.Phrase != "":
		scores := make(map[*domain.MediaItem]int, len(items))
		for _, item := range items {
			scores[item] = q.relevance(item)
		}
		less = func(a, b *domain.MediaItem) bool {
			if scores[a] != scores[b] {
				return scores[a] < scores[b]
			}
			return byTitle(a, b)
		}
	default:
		less = byTitle
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

// TotalPages returns how many pages n items fill; an empty list is one page
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultViewPageSize
	}
	if n == 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns page k (1-indexed) of items: [(k-1)*size, min(k*size, n)).
// Out-of-range pages yield an empty slice.
func Paginate(items []*domain.MediaItem, page, size int) []*domain.MediaItem {
	if size <= 0 {
		size = DefaultViewPageSize
	}
	start := (page - 1) * size
	if page < 1 || start >= len(items) {
		return []*domain.MediaItem{}
	}
	return items[start:min(start+size, len(items))]
}

// View derives the visible page from a catalog and the filter/sort state.
// Every setter recomputes synchronously. Not safe for concurrent use.
type View struct {
	catalog  []*domain.MediaItem
	filtered []*domain.MediaItem
	filter   Filter
	sort     SortMode
	page     int
	pageSize int
}

// NewView creates an empty view
func NewView(pageSize int, sort SortMode) *View {
	if pageSize <= 0 {
		pageSize = DefaultViewPageSize
	}
	if sort == "" {
		sort = SortLibrary
	}
	return &View{
		filter:   Filter{Libraries: make(map[string]bool)},
		sort:     sort,
		page:     1,
		pageSize: pageSize,
	}
}

// SetCatalog replaces the catalog
func (v *View) SetCatalog(items []*domain.MediaItem) {
	v.catalog = items
	v.recompute()
}

// SetQuery replaces the search query and returns to the first page
func (v *View) SetQuery(raw string) {
	if raw == v.filter.Query.Raw {
		return
	}
	v.filter.Query = ParseQuery(raw)
	v.page = 1
	v.recompute()
}

// Query returns the raw search query
func (v *View) Query() string { return v.filter.Query.Raw }

// ToggleLibrary adds or removes a library from the selection
func (v *View) ToggleLibrary(title string) {
	if v.filter.Libraries[title] {
		delete(v.filter.Libraries, title)
	} else {
		v.filter.Libraries[title] = true
	}
	v.recompute()
}

// SetLibraries replaces the library selection
func (v *View) SetLibraries(titles []string) {
	v.filter.Libraries = make(map[string]bool, len(titles))
	for _, t := range titles {
		v.filter.Libraries[t] = true
	}
	v.recompute()
}

// LibrarySelected reports whether title is in the selection
func (v *View) LibrarySelected(title string) bool { return v.filter.Libraries[title] }

// SetHideInDatabase toggles hiding items the backend already tracks
func (v *View) SetHideInDatabase(hide bool) {
	v.filter.HideInDatabase = hide
	v.recompute()
}

// HideInDatabase reports the hide-in-database toggle
func (v *View) HideInDatabase() bool { return v.filter.HideInDatabase }

// SetSort changes the sort mode
func (v *View) SetSort(mode SortMode) {
	v.sort = mode
	v.recompute()
}

// Sort returns the sort mode
func (v *View) Sort() SortMode { return v.sort }

// SetPage moves to page k, clamped into range
func (v *View) SetPage(k int) {
	v.page = max(1, min(k, v.TotalPages()))
}

// NextPage advances one page; false when already on the last
func (v *View) NextPage() bool {
	if v.page >= v.TotalPages() {
		return false
	}
	v.page++
	return true
}

// PrevPage goes back one page; false when already on the first
func (v *View) PrevPage() bool {
	if v.page <= 1 {
		return false
	}
	v.page--
	return true
}

// Page returns the current page number (1-indexed)
func (v *View) Page() int { return v.page }

// TotalPages returns the number of pages in the filtered list
func (v *View) TotalPages() int { return TotalPages(len(v.filtered), v.pageSize) }

// Items returns the current page
func (v *View) Items() []*domain.MediaItem {
	return Paginate(v.filtered, v.page, v.pageSize)
}

// Filtered returns the whole filtered, sorted list
func (v *View) Filtered() []*domain.MediaItem { return v.filtered }

// Len returns the filtered item count
func (v *View) Len() int { return len(v.filtered) }

// Suggestions offers alternative titles when nothing matches
func (v *View) Suggestions(n int) []string {
	if len(v.filtered) > 0 {
		return nil
	}
	return Suggestions(v.catalog, v.filter.Query, n)
}

func (v *View) recompute() {
	v.filtered = Apply(v.catalog, v.filter)
	SortItems(v.filtered, v.sort, v.filter.Query)
	v.SetPage(v.page)
}
