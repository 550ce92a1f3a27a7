package errx_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/chative/supportdesk/internal/core/error"
)

func TestKindsMatchThroughWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("upstream 503")
	err := fmt.Errorf("generate node: %w", errx.Generation(cause))

	assert.ErrorIs(t, err, errx.ErrGeneration)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, errx.ErrContent)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))

	var appErr *errx.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errx.ErrGeneration, appErr.Kind)
}

func TestGenerationOfContentKeepsBothKinds(t *testing.T) {
	t.Parallel()

	err := errx.Generation(errx.Content("empty reply"))
	assert.ErrorIs(t, err, errx.ErrGeneration)
	assert.ErrorIs(t, err, errx.ErrContent)
	assert.Contains(t, err.Error(), "empty reply")
}

func TestNilPassthrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errx.Classification(nil))
	assert.NoError(t, errx.Retrieval(nil))
	assert.NoError(t, errx.TicketCreation(nil))
	assert.NoError(t, errx.WrapRedis(nil))
}

func TestStatuses(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadRequest, errx.StatusOf(errx.Invalid("session id is empty")))
	assert.ErrorIs(t, errx.Invalid("x"), errx.ErrInvalidInput)
	assert.Equal(t, http.StatusServiceUnavailable, errx.StatusOf(errx.NotReady("retriever")))
	assert.ErrorIs(t, errx.NotReady("retriever"), errx.ErrNotReady)
	assert.Equal(t, http.StatusInternalServerError, errx.StatusOf(errors.New("plain")))
}

func TestWrapRedis(t *testing.T) {
	t.Parallel()

	err := errx.WrapRedis(redis.Nil)
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))
	assert.ErrorIs(t, err, redis.Nil)
	assert.NotErrorIs(t, err, errx.ErrSessionStore)

	err = errx.WrapRedis(errors.New("connection refused"))
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
	assert.ErrorIs(t, err, errx.ErrSessionStore)
	assert.Equal(t, "session store unavailable: connection refused", err.Error())

	err = errx.WrapRedis(fmt.Errorf("dial: %w", context.DeadlineExceeded))
	assert.Equal(t, http.StatusGatewayTimeout, errx.StatusOf(err))
	assert.ErrorIs(t, err, errx.ErrSessionStore)
}
