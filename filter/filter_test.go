package filter

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxSize(t *testing.T) {
	f := MaxSize(4)

	assert.Equal(t, []byte("ok"), f([]byte("ok")))
	assert.Equal(t, []byte("four"), f([]byte("four")))
	assert.Nil(t, f([]byte("too long")))
	assert.Nil(t, f(nil))
}

func TestChain(t *testing.T) {
	upper := func(msg []byte) []byte { return bytes.ToUpper(msg) }

	t.Run("filters apply left to right", func(t *testing.T) {
		f := Chain(MaxSize(5), upper)
		assert.Equal(t, []byte("HELLO"), f([]byte("hello")))
	})

	t.Run("a drop short-circuits the chain", func(t *testing.T) {
		called := false
		spy := func(msg []byte) []byte {
			called = true
			return msg
		}

		f := Chain(MaxSize(1), spy)
		assert.Nil(t, f([]byte("dropped")))
		assert.False(t, called, "filters after a drop must not run")
	})

	t.Run("empty chain passes messages through", func(t *testing.T) {
		f := Chain()
		assert.Equal(t, []byte("asis"), f([]byte("asis")))
	})
}

func TestMinPeriod(t *testing.T) {
	t.Run("throttles messages inside the period", func(t *testing.T) {
		mp, err := NewMinPeriod(time.Second, nil, "")
		require.NoError(t, err)

		now := time.Unix(1000, 0)
		mp.now = func() time.Time { return now }

		assert.Equal(t, []byte("a"), mp.Filter([]byte("a")))
		assert.Nil(t, mp.Filter([]byte("b")), "a message inside the period must be dropped")

		now = now.Add(2 * time.Second)
		assert.Equal(t, []byte("c"), mp.Filter([]byte("c")))
	})

	t.Run("nil messages pass through as nil", func(t *testing.T) {
		mp, err := NewMinPeriod(time.Second, nil, "")
		require.NoError(t, err)
		assert.Nil(t, mp.Filter(nil))
	})

	t.Run("the last timestamp survives a restart", func(t *testing.T) {
		memFs := afero.NewMemMapFs()

		mp, err := NewMinPeriod(time.Hour, memFs, "filter")
		require.NoError(t, err)

		now := time.Now()
		mp.now = func() time.Time { return now }
		require.NotNil(t, mp.Filter([]byte("first")))

		// A rebuilt filter must still remember the last passed message.
		reopened, err := NewMinPeriod(time.Hour, memFs, "filter")
		require.NoError(t, err)
		reopened.now = func() time.Time { return now.Add(time.Minute) }

		assert.Nil(t, reopened.Filter([]byte("second")),
			"the persisted timestamp must keep throttling after a restart")

		reopened.now = func() time.Time { return now.Add(2 * time.Hour) }
		assert.NotNil(t, reopened.Filter([]byte("third")))
	})

	t.Run("a corrupt timestamp file fails construction", func(t *testing.T) {
		memFs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(memFs, "filter/last_timestamp", []byte("not a time"), 0o644))

		_, err := NewMinPeriod(time.Second, memFs, "filter")
		assert.Error(t, err)
	})

	t.Run("composes with Chain", func(t *testing.T) {
		mp, err := NewMinPeriod(time.Hour, nil, "")
		require.NoError(t, err)

		f := Chain(MaxSize(10), mp.Filter)
		assert.Equal(t, []byte("pass"), f([]byte("pass")))
		assert.Nil(t, f([]byte("again")), "second message inside the period must be dropped")
	})
}
