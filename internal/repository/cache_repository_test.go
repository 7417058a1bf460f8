package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/college-erp-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.NoError(t, repo.Set(ctx, "import:job:1", map[string]string{"status": "QUEUED"}, time.Minute))
	assert.NoError(t, repo.Publish(ctx, "import:progress", "hello"))

	var dest map[string]string
	err := repo.Get(ctx, "import:job:1", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	assert.NoError(t, repo.Close())
}
