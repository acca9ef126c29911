package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkorchagin/shortlink/internal/models"
	"github.com/mkorchagin/shortlink/internal/repository"
	"github.com/mkorchagin/shortlink/pkg/cache"
	"github.com/mkorchagin/shortlink/pkg/idgen"
	"github.com/mkorchagin/shortlink/pkg/metrics"
)

var (
	ErrInvalidURL            = errors.New("original URL is required")
	ErrAliasTooShort         = errors.New("custom alias must be at least 4 characters")
	ErrPermanentRequiresAuth = errors.New("only authenticated users may create permanent links")
	ErrCodeConflict          = errors.New("short code already taken")
	ErrGenExhausted          = errors.New("failed to generate unique short code after retries")
	ErrNotFound              = errors.New("short code not found")
	ErrForbidden             = errors.New("not allowed to modify this link")
)

const (
	minAliasLength      = 4
	maxGenerateAttempts = 5
)

// LinkStore is the durable-store surface the lifecycle manager depends on.
// *repository.LinkRepository implements it; tests substitute fakes.
type LinkStore interface {
	Save(ctx context.Context, link *models.Link) error
	FindByShortCode(ctx context.Context, shortCode string) (*models.Link, error)
	ExistsByShortCode(ctx context.Context, shortCode string) (bool, error)
	UpdateURL(ctx context.Context, shortCode, newURL string) (*models.Link, error)
	UpdateExpiry(ctx context.Context, shortCode string, expiresAt time.Time) (*models.Link, error)
	DeleteByShortCode(ctx context.Context, shortCode string) (*models.Link, error)
	RecordAccess(ctx context.Context, shortCode string, accessedAt time.Time) error
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Link, error)
}

// Cache is the best-effort lookup layer. Failures degrade to misses/no-ops;
// redirect correctness depends only on the LinkStore.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// LinkService orchestrates link creation, resolution, mutation and expiry,
// keeping cache and store consistent.
type LinkService struct {
	store     LinkStore
	cache     Cache
	generator idgen.Generator
	cacheTTL  time.Duration
	log       *zap.Logger
}

func NewLinkService(store LinkStore, c Cache, gen idgen.Generator, cacheTTL time.Duration, log *zap.Logger) *LinkService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &LinkService{
		store:     store,
		cache:     c,
		generator: gen,
		cacheTTL:  cacheTTL,
		log:       log,
	}
}

// CreateLink validates the request, resolves the permanence policy for the
// actor, picks a unique short code and persists the record. The cache is not
// pre-populated; the first redirect fills it.
func (s *LinkService) CreateLink(ctx context.Context, req models.CreateLinkRequest, actor *models.User) (*models.Link, error) {
	if strings.TrimSpace(req.OriginalURL) == "" {
		return nil, ErrInvalidURL
	}
	alias := strings.TrimSpace(req.CustomAlias)
	if alias != "" && len(alias) < minAliasLength {
		return nil, ErrAliasTooShort
	}

	now := time.Now().UTC()
	decision, err := resolvePolicy(req, actor, now)
	if err != nil {
		return nil, err
	}

	newLink := func(code string) *models.Link {
		link := &models.Link{
			OriginalURL:  req.OriginalURL,
			ShortCode:    code,
			IsPermanent:  decision.isPermanent,
			CreatedAt:    now,
			ExpiresAt:    decision.expiresAt,
			LastAccessed: now,
		}
		if actor != nil {
			link.OwnerID = &actor.ID
		}
		return link
	}

	// Custom alias: the caller chose the code, so a collision fails fast
	// instead of retrying.
	if alias != "" {
		exists, err := s.store.ExistsByShortCode(ctx, alias)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrCodeConflict
		}
		link := newLink(alias)
		if err := s.store.Save(ctx, link); err != nil {
			if repository.IsUniqueViolation(err) {
				return nil, ErrCodeConflict
			}
			s.log.Error("save link with custom alias failed",
				zap.String("short_code", alias), zap.Error(err))
			return nil, err
		}
		metrics.LinksCreated.WithLabelValues(strconv.FormatBool(link.IsPermanent)).Inc()
		return link, nil
	}

	// Generated code: the existence check is a fast pre-check only; the unique
	// index is the final arbiter, and a constraint violation at persist time
	// counts as a detected collision.
	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		code, err := s.generator.Generate(ctx)
		if err != nil {
			// generator failure is fatal
			return nil, err
		}
		exists, err := s.store.ExistsByShortCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			metrics.CodeCollisions.Inc()
			s.log.Warn("short code collision",
				zap.String("short_code", code), zap.Int("attempt", attempt))
			continue
		}

		link := newLink(code)
		if err := s.store.Save(ctx, link); err != nil {
			if repository.IsUniqueViolation(err) {
				// lost the race to a concurrent creation
				metrics.CodeCollisions.Inc()
				s.log.Warn("save race detected",
					zap.String("short_code", code), zap.Int("attempt", attempt))
				continue
			}
			return nil, err
		}
		metrics.LinksCreated.WithLabelValues(strconv.FormatBool(link.IsPermanent)).Inc()
		return link, nil
	}

	return nil, ErrGenExhausted
}

// ResolveForRedirect returns the destination URL for a short code, counting
// the click and refreshing last_accessed. The cache is consulted first; on a
// miss the store is read and the mapping written back with a bounded TTL.
// Cache failures never fail the redirect.
func (s *LinkService) ResolveForRedirect(ctx context.Context, shortCode string) (string, error) {
	if shortCode == "" {
		return "", ErrNotFound
	}
	now := time.Now().UTC()
	key := cacheKey(shortCode)

	cached, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheHits.Inc()
		// Click accounting still goes through the store. A record swept
		// between the cache write and now makes this a no-op.
		s.recordAccess(ctx, shortCode, now)
		metrics.Redirects.Inc()
		return cached, nil
	case errors.Is(err, cache.ErrCacheMiss):
		metrics.CacheMisses.Inc()
	default:
		// cache outage degrades to a miss
		metrics.CacheErrors.WithLabelValues("get").Inc()
		s.log.Warn("cache get failed", zap.String("short_code", shortCode), zap.Error(err))
	}

	link, err := s.store.FindByShortCode(ctx, shortCode)
	if err != nil {
		return "", err
	}
	if link == nil {
		return "", ErrNotFound
	}

	s.recordAccess(ctx, shortCode, now)

	if err := s.cache.Set(ctx, key, link.OriginalURL, s.cacheTTL); err != nil {
		metrics.CacheErrors.WithLabelValues("set").Inc()
		s.log.Warn("cache set failed", zap.String("short_code", shortCode), zap.Error(err))
	}

	metrics.Redirects.Inc()
	return link.OriginalURL, nil
}

// GetLink returns the full record straight from the store. Stats and owner
// views need record state the cache does not carry.
func (s *LinkService) GetLink(ctx context.Context, shortCode string) (*models.Link, error) {
	link, err := s.store.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	return link, nil
}

// UpdateURL rewrites the destination and drops the cache entry so the next
// redirect repopulates it.
func (s *LinkService) UpdateURL(ctx context.Context, shortCode, newURL string, actor *models.User) (*models.Link, error) {
	if strings.TrimSpace(newURL) == "" {
		return nil, ErrInvalidURL
	}
	link, err := s.GetLink(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(link, actor); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateURL(ctx, shortCode, newURL)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	s.invalidate(ctx, shortCode)
	return updated, nil
}

// SetExpiry overwrites expires_at unconditionally, with no already-expired
// guard; repeated updates are allowed. Only the record's owner may call it, so
// anonymous-owned links never change expiry here.
func (s *LinkService) SetExpiry(ctx context.Context, shortCode string, expiresAt time.Time, actor *models.User) (*models.Link, error) {
	link, err := s.GetLink(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if link.OwnerID == nil || actor == nil || actor.ID != *link.OwnerID {
		return nil, ErrForbidden
	}

	updated, err := s.store.UpdateExpiry(ctx, shortCode, expiresAt.UTC())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	s.invalidate(ctx, shortCode)
	return updated, nil
}

// DeleteLink removes the record and evicts its cache entry, returning the
// deleted record.
func (s *LinkService) DeleteLink(ctx context.Context, shortCode string, actor *models.User) (*models.Link, error) {
	link, err := s.GetLink(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if err := authorizeMutation(link, actor); err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, ErrNotFound
	}
	s.invalidate(ctx, shortCode)
	return deleted, nil
}

// SweepExpired removes expired temporary links and links inactive beyond the
// retention window, in one store transaction. Returns the number removed.
func (s *LinkService) SweepExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	deleted, err := s.store.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	metrics.SweepDeleted.Add(float64(deleted))
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if deleted > 0 {
		s.log.Info("expiration sweep removed links", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

// ListUserLinks returns the actor's own links, newest first.
func (s *LinkService) ListUserLinks(ctx context.Context, actor *models.User) ([]models.Link, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	return s.store.ListByOwner(ctx, actor.ID)
}

// authorizeMutation applies the ownership rule: records with an owner may only
// be mutated by that owner. Anonymous-owned records stay mutable by any
// caller, matching the legacy behavior.
func authorizeMutation(link *models.Link, actor *models.User) error {
	if link.OwnerID == nil {
		return nil
	}
	if actor == nil || actor.ID != *link.OwnerID {
		return ErrForbidden
	}
	return nil
}

func (s *LinkService) recordAccess(ctx context.Context, shortCode string, now time.Time) {
	if err := s.store.RecordAccess(ctx, shortCode, now); err != nil {
		// clicks is a best-effort counter; a failed write never fails the
		// redirect
		s.log.Error("record access failed", zap.String("short_code", shortCode), zap.Error(err))
	}
}

func (s *LinkService) invalidate(ctx context.Context, shortCode string) {
	if err := s.cache.Delete(ctx, cacheKey(shortCode)); err != nil {
		metrics.CacheErrors.WithLabelValues("delete").Inc()
		s.log.Warn("cache delete failed", zap.String("short_code", shortCode), zap.Error(err))
	}
}

func cacheKey(shortCode string) string {
	return "link:" + shortCode
}
