package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	apperrors "github.com/feedlane/feedlane-backend/errors"
	"github.com/feedlane/feedlane-backend/internal/store"
	"github.com/feedlane/feedlane-backend/logger"
	"github.com/feedlane/feedlane-backend/types"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// HashAPIKey returns the hex SHA-256 of a raw key, the form stored in api_keys.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// APIKeyAuthenticator resolves bearer API keys to projects. Successful
// lookups are cached for ttl; a zero ttl disables the cache.
type APIKeyAuthenticator struct {
	keys  store.APIKeyStore
	cache *cache.Cache
	log   *zap.SugaredLogger
}

func NewAPIKeyAuthenticator(keys store.APIKeyStore, ttl time.Duration) *APIKeyAuthenticator {
	a := &APIKeyAuthenticator{
		keys: keys,
		log:  logger.GetLogger().Named("apikey"),
	}
	if ttl > 0 {
		a.cache = cache.New(ttl, 2*ttl)
	}
	return a
}

// Middleware rejects requests without a valid, unrevoked key and stores the
// key's project id under ProjectIDKey.
func (a *APIKeyAuthenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			_ = c.Error(apperrors.AuthenticationFailed("Missing API key"))
			c.Abort()
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if raw == "" {
			_ = c.Error(apperrors.AuthenticationFailed("Missing API key"))
			c.Abort()
			return
		}

		key, err := a.lookup(c, HashAPIKey(raw))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				a.log.Infow("Rejected unknown API key", "key", logger.MaskAPIKey(raw))
				_ = c.Error(apperrors.AuthenticationFailed("Invalid API key"))
			} else {
				_ = c.Error(apperrors.NewDatabaseError(err))
			}
			c.Abort()
			return
		}

		c.Set(ProjectIDKey, key.ProjectID)
		c.Set(APIKeyIDKey, key.ID)
		c.Next()
	}
}

func (a *APIKeyAuthenticator) lookup(c *gin.Context, hash string) (*types.APIKey, error) {
	if a.cache != nil {
		if v, ok := a.cache.Get(hash); ok {
			return v.(*types.APIKey), nil
		}
	}

	key, err := a.keys.GetAPIKeyByHash(c.Request.Context(), hash)
	if err != nil {
		return nil, err
	}
	if key.RevokedAt != nil {
		return nil, store.ErrNotFound
	}

	// last_used_at moves at most once per cache ttl.
	if err := a.keys.TouchAPIKey(c.Request.Context(), key.ID); err != nil {
		a.log.Warnw("Failed to record API key use", "keyId", key.ID, "error", err)
	}

	if a.cache != nil {
		a.cache.SetDefault(hash, key)
	}
	return key, nil
}
