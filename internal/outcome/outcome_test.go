package outcome

import (
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestSuccess(t *testing.T) {
	t.Parallel()

	o := Success(42)

	assert.True(t, o.IsSuccess())
	assert.False(t, o.IsFailure())
	assert.Equal(t, 42, o.Value())
	assert.NoError(t, o.Err())

	v, err := o.Get()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, "Success(42)", o.String())
}

func TestFailure(t *testing.T) {
	t.Parallel()

	o := Failure[int](errBoom)

	assert.False(t, o.IsSuccess())
	assert.True(t, o.IsFailure())
	assert.ErrorIs(t, o.Err(), errBoom)
	assert.Equal(t, 7, o.ValueOr(7))

	v, err := o.Get()
	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, v)
	assert.Panics(t, func() { o.Value() })
	assert.Equal(t, "Failure(boom)", o.String())
}

func TestFailureNilPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { Failure[string](nil) })
}

func TestZeroOutcomeIsEmptyFailure(t *testing.T) {
	t.Parallel()

	var o Outcome[string]

	assert.True(t, o.IsFailure())
	assert.ErrorIs(t, o.Err(), ErrEmpty)
}

func TestFrom(t *testing.T) {
	t.Parallel()

	assert.True(t, From(strconv.Atoi("12")).IsSuccess())

	o := From(strconv.Atoi("x"))
	require.True(t, o.IsFailure())
	var numErr *strconv.NumError
	assert.ErrorAs(t, o.Err(), &numErr)
}

func TestComposition(t *testing.T) {
	t.Parallel()

	double := func(n int) int { return n * 2 }
	half := func(n int) Outcome[int] {
		if n%2 != 0 {
			return Failure[int](fmt.Errorf("odd: %d", n))
		}
		return Success(n / 2)
	}

	t.Run("map success", func(t *testing.T) {
		assert.Equal(t, 8, Map(Success(4), double).Value())
	})

	t.Run("map short-circuits", func(t *testing.T) {
		called := false
		o := Map(Failure[int](errBoom), func(n int) string {
			called = true
			return ""
		})
		assert.False(t, called)
		assert.ErrorIs(t, o.Err(), errBoom)
	})

	t.Run("flatmap chains", func(t *testing.T) {
		assert.Equal(t, 2, FlatMap(FlatMap(Success(8), half), half).Value())
		assert.EqualError(t, FlatMap(Success(3), half).Err(), "odd: 3")
	})

	t.Run("match folds both variants", func(t *testing.T) {
		render := func(o Outcome[int]) string {
			return Match(o,
				func(n int) string { return strconv.Itoa(n) },
				func(err error) string { return "error: " + err.Error() })
		}
		assert.Equal(t, "5", render(Success(5)))
		assert.Equal(t, "error: boom", render(Failure[int](errBoom)))
	})

	t.Run("recast keeps the error", func(t *testing.T) {
		o := Recast[string](Failure[int](errBoom))
		assert.ErrorIs(t, o.Err(), errBoom)
		assert.Panics(t, func() { Recast[string](Success(1)) })
	})

	t.Run("map err wraps failures only", func(t *testing.T) {
		wrap := func(err error) error { return fmt.Errorf("ctx: %w", err) }
		assert.EqualError(t, MapErr(Failure[int](errBoom), wrap).Err(), "ctx: boom")
		assert.Equal(t, 1, MapErr(Success(1), wrap).Value())
	})
}
