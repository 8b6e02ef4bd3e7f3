package pagination_test

import (
	"github.com/stretchr/testify/assert"
	"magal/internal/model"
	"magal/internal/pagination"
	"sync"
	"testing"
)

func TestEventFilter_Query(t *testing.T) {
	f := pagination.DefaultEventFilter()

	assert.Equal(t, "page=1&per_page=9&sort=asc", f.Query().Encode())
	assert.False(t, f.Active())

	f.Search = "  magal "
	f.Status = pagination.StatusActive
	f.Period = pagination.PeriodUpcoming
	f = f.WithPage(3)

	q := f.Query()
	assert.Equal(t, "magal", q.Get("search"))
	assert.Equal(t, "actif", q.Get("statut"))
	assert.Equal(t, "avenir", q.Get("periode"))
	assert.Equal(t, "3", q.Get("page"))
	assert.True(t, f.Active())

	reset := f.Reset()
	assert.False(t, reset.Active())
	assert.Equal(t, 1, reset.Page)
}

func TestPlaceFilter_Query(t *testing.T) {
	f := pagination.DefaultPlaceFilter()
	f.Type = pagination.All
	assert.Equal(t, "page=1&per_page=9", f.Query().Encode())
	assert.False(t, f.Active())

	f.Type = model.PlaceHealth
	f.PerPage = 500
	q := f.Query()
	assert.Equal(t, "sante", q.Get("type"))
	assert.Equal(t, "50", q.Get("per_page"), "per_page is capped")
	assert.True(t, f.Active())
}

func TestNotificationFilter_Query(t *testing.T) {
	f := pagination.DefaultNotificationFilter()
	assert.Equal(t, "page=1&per_page=10", f.Query().Encode())

	f.Status = pagination.UnreadOnly
	f = f.WithPage(0)
	q := f.Query()
	assert.Equal(t, "non-lues", q.Get("statut"))
	assert.Equal(t, "1", q.Get("page"))
}

func TestCursor(t *testing.T) {
	p := model.Pagination{CurrentPage: 1, LastPage: 1}
	assert.False(t, pagination.HasNext(p))
	assert.False(t, pagination.HasPrev(p))
	assert.Nil(t, pagination.Window(p, 2))

	p = model.Pagination{CurrentPage: 2, LastPage: 8}
	assert.True(t, pagination.HasNext(p))
	assert.True(t, pagination.HasPrev(p))
	assert.Equal(t, []int{1, 2, 3, 4}, pagination.Window(p, 2))

	p.CurrentPage = 8
	assert.False(t, pagination.HasNext(p))
	assert.Equal(t, []int{6, 7, 8}, pagination.Window(p, 2))
}

func TestGuard_LatestWins(t *testing.T) {
	var g pagination.Guard

	slow := g.Begin()
	fast := g.Begin()

	assert.True(t, g.Accept(fast))
	assert.False(t, g.Accept(slow), "older response is dropped")
}

func TestGuard_Concurrent(t *testing.T) {
	var g pagination.Guard

	var wg sync.WaitGroup
	tickets := make([]pagination.Ticket, 50)
	for i := range tickets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tickets[i] = g.Begin()
		}()
	}
	wg.Wait()

	accepted := 0
	for _, tk := range tickets {
		if g.Accept(tk) {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}
