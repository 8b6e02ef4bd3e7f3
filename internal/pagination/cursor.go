package pagination

import (
	"magal/internal/model"
	"sync/atomic"
)

func HasNext(p model.Pagination) bool {
	return p.CurrentPage < p.LastPage
}

func HasPrev(p model.Pagination) bool {
	return p.CurrentPage > 1
}

// Window returns the page numbers within radius of the current page,
// clamped to [1, LastPage]. A single page yields nil.
func Window(p model.Pagination, radius int) []int {
	if p.LastPage <= 1 {
		return nil
	}

	start := max(1, p.CurrentPage-radius)
	end := min(p.LastPage, p.CurrentPage+radius)

	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// Ticket identifies one list request.
type Ticket uint64

// Guard drops responses that arrive after a newer request was started, so
// a slow old page never overwrites the one the user asked for last.
type Guard struct {
	seq atomic.Uint64
}

// Begin starts a request and returns its ticket.
func (g *Guard) Begin() Ticket {
	return Ticket(g.seq.Add(1))
}

// Accept reports whether t belongs to the most recent request.
func (g *Guard) Accept(t Ticket) bool {
	return uint64(t) == g.seq.Load()
}
