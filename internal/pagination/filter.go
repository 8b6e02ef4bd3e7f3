package pagination

import (
	"magal/internal/model"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 50
	// GridPerPage fills the 3x3 grid of the event and place lists.
	GridPerPage = 9
)

// All is the "no filter" value of every enum filter.
const All = "tous"

type EventStatus string

const (
	StatusAll      EventStatus = All
	StatusActive   EventStatus = "actif"
	StatusInactive EventStatus = "inactif"
)

type EventPeriod string

const (
	PeriodAll      EventPeriod = All
	PeriodUpcoming EventPeriod = "avenir"
	PeriodPast     EventPeriod = "passes"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type ReadStatus string

const (
	ReadAll    ReadStatus = "toutes"
	ReadOnly   ReadStatus = "lues"
	UnreadOnly ReadStatus = "non-lues"
)

type EventFilter struct {
	Search  string
	Status  EventStatus
	Period  EventPeriod
	Sort    SortOrder
	Page    int
	PerPage int
}

func DefaultEventFilter() EventFilter {
	return EventFilter{
		Status:  StatusAll,
		Period:  PeriodAll,
		Sort:    SortAsc,
		Page:    1,
		PerPage: GridPerPage,
	}
}

func (f EventFilter) Query() url.Values {
	q := url.Values{}
	set(q, "search", strings.TrimSpace(f.Search))
	set(q, "statut", string(f.Status))
	set(q, "periode", string(f.Period))
	set(q, "sort", string(f.Sort))
	setPage(q, f.Page, f.PerPage)
	return q
}

// Active reports whether any narrowing filter is set.
func (f EventFilter) Active() bool {
	return strings.TrimSpace(f.Search) != "" || !isAll(string(f.Status)) || !isAll(string(f.Period))
}

func (f EventFilter) WithPage(page int) EventFilter {
	f.Page = page
	return f
}

// Reset drops the narrowing filters and returns to the first page.
func (f EventFilter) Reset() EventFilter {
	d := DefaultEventFilter()
	d.PerPage = f.PerPage
	d.Sort = f.Sort
	return d
}

type PlaceFilter struct {
	Type    model.PlaceType
	Search  string
	Page    int
	PerPage int
}

func DefaultPlaceFilter() PlaceFilter {
	return PlaceFilter{Page: 1, PerPage: GridPerPage}
}

func (f PlaceFilter) Query() url.Values {
	q := url.Values{}
	set(q, "type", string(f.Type))
	set(q, "search", strings.TrimSpace(f.Search))
	setPage(q, f.Page, f.PerPage)
	return q
}

func (f PlaceFilter) Active() bool {
	return strings.TrimSpace(f.Search) != "" || !isAll(string(f.Type))
}

func (f PlaceFilter) WithPage(page int) PlaceFilter {
	f.Page = page
	return f
}

type NotificationFilter struct {
	Status  ReadStatus
	Page    int
	PerPage int
}

func DefaultNotificationFilter() NotificationFilter {
	return NotificationFilter{Status: ReadAll, Page: 1, PerPage: DefaultPerPage}
}

func (f NotificationFilter) Query() url.Values {
	q := url.Values{}
	if f.Status != ReadAll {
		set(q, "statut", string(f.Status))
	}
	setPage(q, f.Page, f.PerPage)
	return q
}

func (f NotificationFilter) WithPage(page int) NotificationFilter {
	f.Page = page
	return f
}

func isAll(v string) bool {
	return v == "" || v == All
}

func set(q url.Values, key, value string) {
	if isAll(value) {
		return
	}
	q.Set(key, value)
}

// setPage clamps page to 1+ and per_page to [1, MaxPerPage].
func setPage(q url.Values, page, perPage int) {
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))

	if perPage < 1 {
		return
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	q.Set("per_page", strconv.Itoa(perPage))
}
