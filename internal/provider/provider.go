package provider

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"magal/internal/api"
	"magal/internal/model"
	"magal/internal/validation"
	"net/url"
	"strconv"
	"strings"
)

var (
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidInput      = errors.New("invalid input")
)

// Client is the part of api.Client the providers use.
type Client interface {
	Do(ctx context.Context, r *api.Request) (*api.Response, error)
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, body, out any) error
}

// CheckInput validates a payload before it is sent.
func CheckInput(v *validator.Validate, in any) error {
	if err := v.Struct(in); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, validation.Describe(err))
	}
	return nil
}

// CheckResponse validates a decoded payload.
func CheckResponse(v *validator.Validate, out any) error {
	if out == nil {
		return fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}
	if err := v.Struct(out); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedResponse, validation.Describe(err))
	}
	return nil
}

// CheckPage validates every item of a list and fills in missing pagination.
func CheckPage[T any](v *validator.Validate, page *model.Page[T]) error {
	for i := range page.Data {
		if err := v.Struct(&page.Data[i]); err != nil {
			return fmt.Errorf("%w: item %d: %s", ErrMalformedResponse, i, validation.Describe(err))
		}
	}
	NormalizePagination(&page.Pagination, len(page.Data))
	return nil
}

// CheckItem unwraps a {"data": ...} envelope and validates its content.
func CheckItem[T any](v *validator.Validate, item *model.Item[T]) (*T, error) {
	if item.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedResponse)
	}
	if err := CheckResponse(v, item.Data); err != nil {
		return nil, err
	}
	return item.Data, nil
}

// NormalizePagination keeps page numbers at 1 or more so cursors never
// point before the first page.
func NormalizePagination(p *model.Pagination, items int) {
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if p.LastPage < p.CurrentPage {
		p.LastPage = p.CurrentPage
	}
	if p.PerPage < 1 {
		p.PerPage = items
	}
	if p.Total < items {
		p.Total = items
	}
}

// Path joins a resource path from its segments; ids are formatted base 10.
func Path(segments ...any) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		switch v := s.(type) {
		case string:
			parts = append(parts, strings.Trim(v, "/"))
		case int64:
			parts = append(parts, strconv.FormatInt(v, 10))
		case int:
			parts = append(parts, strconv.Itoa(v))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return "/" + strings.Join(parts, "/")
}
