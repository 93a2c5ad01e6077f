package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/cache"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/storage"

	"github.com/rs/zerolog/log"
)

// Signed URLs live for an hour; cached copies are dropped five minutes
// early so a client never receives a URL about to expire.
const signedURLCacheTTL = storage.ReadTTL - 5*time.Minute

// URLSigner hands out signed read URLs for stored photos, caching them so
// a busy feed does not re-sign the same keys on every page load.
type URLSigner struct {
	photos PhotoStorage
	cache  cache.Cache
}

// NewURLSigner creates a new URL signer
func NewURLSigner(photos PhotoStorage, c cache.Cache) *URLSigner {
	return &URLSigner{photos: photos, cache: c}
}

// SignedURL returns a read URL for the given storage key, from cache when
// a fresh one is available.
func (s *URLSigner) SignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	cacheKey := "signed_url:" + key
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrNotFound) {
		log.Warn().Err(err).Str("key", key).Msg("Signed URL cache read failed")
	}

	url, err := s.photos.SignedGetURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign photo URL: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey, url, signedURLCacheTTL); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Signed URL cache write failed")
	}
	return url, nil
}

// SignedURLOpt is SignedURL for optional keys. A nil or empty key yields
// an empty URL rather than an error.
func (s *URLSigner) SignedURLOpt(ctx context.Context, key *string) string {
	if key == nil || *key == "" {
		return ""
	}
	url, err := s.SignedURL(ctx, *key)
	if err != nil {
		log.Warn().Err(err).Str("key", *key).Msg("Failed to sign photo URL")
		return ""
	}
	return url
}
