package model

type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Page is the list envelope shared by every resource family.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Item is the single-resource envelope ({"data": {...}}).
type Item[T any] struct {
	Data    *T     `json:"data"`
	Message string `json:"message,omitempty"`
}
