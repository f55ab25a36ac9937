package ops

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/eblog/internal/config"
	"github.com/hpungsan/eblog/internal/errors"
	"github.com/hpungsan/eblog/internal/logger"
)

// Pagination fallbacks used when the config leaves them unset.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// pageWindow resolves the requested page and page size against cfg.
// page < 1 becomes 1; pageSize <= 0 becomes the default; oversize is clamped.
func pageWindow(cfg *config.Config, page, pageSize int) (int, int) {
	def, maxSize := DefaultPageSize, MaxPageSize
	if cfg != nil {
		if cfg.DefaultPageSize > 0 {
			def = cfg.DefaultPageSize
		}
		if cfg.MaxPageSize > 0 {
			maxSize = cfg.MaxPageSize
		}
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = def
	}
	if pageSize > maxSize {
		pageSize = maxSize
	}
	return page, pageSize
}

// totalPages returns ceil(total/pageSize), never less than 1.
func totalPages(total, pageSize int) int {
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// writeAttempts is how many times a create may run before giving up on conflicts.
func writeAttempts(cfg *config.Config) int {
	if cfg == nil || cfg.WriteRetries < 1 {
		return 1
	}
	return cfg.WriteRetries
}

// logFailure records store and internal failures; caller errors are not logged.
func logFailure(ctx context.Context, op string, err error) {
	if errors.Is(err, errors.ErrStoreUnavailable) || errors.Is(err, errors.ErrInternal) {
		logger.FromContext(ctx).Error("post operation failed", zap.String("op", op), zap.Error(err))
	}
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
