package params

import (
	"testing"
	"time"

	"filiales-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate(t *testing.T) {
	d, err := Date("fecha", "2025-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), d)

	_, err = Date("fecha", "2025-03-09T10:00:00Z")
	assert.NoError(t, err)

	_, err = Date("fecha", "09/03/2025")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestOptionalDate(t *testing.T) {
	d, err := OptionalDate("fecha", nil)
	assert.NoError(t, err)
	assert.Nil(t, d)

	empty := " "
	d, err = OptionalDate("fecha", &empty)
	assert.NoError(t, err)
	assert.Nil(t, d)

	val := "2024-12-31"
	d, err = OptionalDate("fecha", &val)
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
}

func TestBool(t *testing.T) {
	b, err := Bool("activo", "")
	assert.NoError(t, err)
	assert.Nil(t, b)

	b, err = Bool("activo", "false")
	require.NoError(t, err)
	assert.False(t, *b)

	_, err = Bool("activo", "maybe")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_x\\`, escapeLike(`100% _x\`))
}
