package users

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ekamauln/livo-mobile-order/pkg/backend"
	"github.com/ekamauln/livo-mobile-order/pkg/config"
	"github.com/ekamauln/livo-mobile-order/pkg/enums"
	"github.com/ekamauln/livo-mobile-order/pkg/logger"
	"github.com/ekamauln/livo-mobile-order/pkg/redis"
)

// Lister pulls one page of the user directory.
type Lister interface {
	ListUsers(ctx context.Context, page, limit int, search string) (*backend.UserPage, error)
}

// Cache is the roster cache surface; a nil cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DirectoryKey(role string) string
}

// Directory resolves the picker roster used by bulk assignment. Pages
// are drained eagerly so the station works from a full roster, and the
// result is cached so repeat lookups during a shift stay local.
type Directory struct {
	backend Lister
	cache   Cache
	cfg     config.DirectoryConfig
	logg    *logger.Logger
}

func NewDirectory(lister Lister, cache Cache, cfg config.DirectoryConfig, logg *logger.Logger) *Directory {
	return &Directory{backend: lister, cache: cache, cfg: cfg, logg: logg}
}

// Pickers returns every directory user holding the picker role,
// preferring the cached roster when one is live.
func (d *Directory) Pickers(ctx context.Context) ([]backend.User, error) {
	role := d.cfg.PickerRole

	if cached, ok := d.fromCache(ctx, role); ok {
		return cached, nil
	}

	users, err := d.drain(ctx, "")
	if err != nil {
		return nil, err
	}

	pickers := make([]backend.User, 0, len(users))
	for _, user := range users {
		if user.HasRole(enums.Role(role)) {
			pickers = append(pickers, user)
		}
	}

	d.toCache(ctx, role, pickers)
	return pickers, nil
}

// Search queries the directory by name or username. Results are not
// cached; search terms are too varied to be worth keys.
func (d *Directory) Search(ctx context.Context, term string) ([]backend.User, error) {
	return d.drain(ctx, term)
}

func (d *Directory) drain(ctx context.Context, search string) ([]backend.User, error) {
	limit := d.cfg.PageSize
	if limit <= 0 {
		limit = 50
	}

	var users []backend.User
	for page := 1; ; page++ {
		result, err := d.backend.ListUsers(ctx, page, limit, search)
		if err != nil {
			return nil, err
		}
		users = append(users, result.Users...)
		if page >= result.Pagination.LastPage || len(result.Users) == 0 {
			break
		}
	}
	return users, nil
}

// fromCache reads the cached roster; any cache failure is treated as a
// miss since the backend remains available.
func (d *Directory) fromCache(ctx context.Context, role string) ([]backend.User, bool) {
	if d.cache == nil {
		return nil, false
	}
	raw, err := d.cache.Get(ctx, d.cache.DirectoryKey(role))
	if err != nil {
		if !redis.IsMiss(err) && d.logg != nil {
			d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "directory cache read failed")
		}
		return nil, false
	}
	var users []backend.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		if d.logg != nil {
			d.logg.Warn(ctx, "directory cache entry corrupt")
		}
		return nil, false
	}
	return users, true
}

func (d *Directory) toCache(ctx context.Context, role string, users []backend.User) {
	if d.cache == nil {
		return
	}
	payload, err := json.Marshal(users)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, d.cache.DirectoryKey(role), payload, d.cfg.CacheTTL); err != nil && d.logg != nil {
		d.logg.Warn(d.logg.WithField(ctx, "error", err.Error()), "directory cache write failed")
	}
}
