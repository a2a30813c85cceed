package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// UserPage is one slice of the paginated directory listing.
type UserPage struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// ListUsers fetches one directory page.
func (c *Client) ListUsers(ctx context.Context, page, limit int, search string) (*UserPage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("search", search)

	var result UserPage
	if _, err := c.do(ctx, http.MethodGet, "/user-manager/users", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
