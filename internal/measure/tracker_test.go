package measure

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_InterleavedUnits(t *testing.T) {
	tr := NewTracker(WithTokenGenerator(NewFixedGenerator("inst-a", "inst-b")))

	keyA, err := tr.Pre("const a=1;", "a.js")
	require.NoError(t, err)
	keyB, err := tr.Pre("const bbbbbbbbbb = 2;", "b.js")
	require.NoError(t, err)
	assert.Equal(t, Key{Identity: "a.js", Instance: "inst-a"}, keyA)
	assert.Equal(t, 2, tr.Pending())

	mA, err := tr.Post(keyA, "const a = 1;")
	require.NoError(t, err)
	mB, err := tr.Post(keyB, "var b=2;")
	require.NoError(t, err)

	assert.Equal(t, Measurement{Identity: "a.js", OriginalBytes: 10, CompiledBytes: 12}, mA)
	assert.Equal(t, Measurement{Identity: "b.js", OriginalBytes: 21, CompiledBytes: 8}, mB)
	assert.Equal(t, 0, tr.Pending())
}

func TestTracker_SameIdentityDistinctInstances(t *testing.T) {
	tr := NewTracker()

	k1, err := tr.Pre("aaaa", "same.js")
	require.NoError(t, err)
	k2, err := tr.Pre("aaaaaaaa", "same.js")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	m1, err := tr.Post(k1, "a")
	require.NoError(t, err)
	assert.Equal(t, 4, m1.OriginalBytes)

	m2, err := tr.Post(k2, "a")
	require.NoError(t, err)
	assert.Equal(t, 8, m2.OriginalBytes)
}

func TestTracker_UnmatchedPost(t *testing.T) {
	tr := NewTracker()

	_, err := tr.Post(Key{Identity: "ghost.js", Instance: "nope"}, "x")
	require.Error(t, err)
	assert.True(t, IsUnmatchedPost(err))

	_, err = tr.PostLatest("ghost.js", "x")
	require.Error(t, err)
	assert.True(t, IsUnmatchedPost(err))
}

func TestTracker_DoublePostIsUnmatched(t *testing.T) {
	tr := NewTracker()
	k, err := tr.Pre("abc", "a.js")
	require.NoError(t, err)

	_, err = tr.Post(k, "abc")
	require.NoError(t, err)

	_, err = tr.Post(k, "abc")
	assert.True(t, IsUnmatchedPost(err))
}

func TestTracker_PostLatestPairsMostRecent(t *testing.T) {
	tr := NewTracker(WithTokenGenerator(NewFixedGenerator("i1", "i2", "i3")))

	_, err := tr.Pre("1", "a.js")
	require.NoError(t, err)
	_, err = tr.Pre("22", "a.js")
	require.NoError(t, err)
	_, err = tr.Pre("333", "b.js")
	require.NoError(t, err)

	m, err := tr.PostLatest("a.js", "x")
	require.NoError(t, err)
	assert.Equal(t, 2, m.OriginalBytes)

	m, err = tr.PostLatest("a.js", "x")
	require.NoError(t, err)
	assert.Equal(t, 1, m.OriginalBytes)

	_, err = tr.PostLatest("a.js", "x")
	assert.True(t, IsUnmatchedPost(err))
	assert.Equal(t, 1, tr.Pending())
}

func TestTracker_PostLatestDefaultIdentity(t *testing.T) {
	tr := NewTracker()
	_, err := tr.Pre("abc", "")
	require.NoError(t, err)

	m, err := tr.PostLatest("", "abcd")
	require.NoError(t, err)
	assert.Equal(t, PlaceholderIdentity, m.Identity)
}

func TestTracker_InvalidUTF8(t *testing.T) {
	tr := NewTracker()

	_, err := tr.Pre("\xff", "bad.js")
	assert.True(t, IsInvalidUTF8(err))
	assert.Equal(t, 0, tr.Pending())

	k, err := tr.Pre("ok", "good.js")
	require.NoError(t, err)
	_, err = tr.Post(k, "\xff")
	assert.True(t, IsInvalidUTF8(err))
	assert.Equal(t, 1, tr.Pending(), "record stays pending after rejected output")

	_, err = tr.Post(k, "ok")
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Pending())
}

func TestTracker_Discard(t *testing.T) {
	tr := NewTracker()
	k, err := tr.Pre("abc", "a.js")
	require.NoError(t, err)

	assert.True(t, tr.Discard(k))
	assert.False(t, tr.Discard(k))
	_, err = tr.Post(k, "abc")
	assert.True(t, IsUnmatchedPost(err))
}

func TestTracker_DefaultTokensAreUUIDv7(t *testing.T) {
	tr := NewTracker()
	k, err := tr.Pre("abc", "a.js")
	require.NoError(t, err)

	parsed, err := uuid.Parse(k.Instance)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestTracker_ConcurrentUnits(t *testing.T) {
	tr := NewTracker()
	const units = 64

	var wg sync.WaitGroup
	results := make([]Measurement, units)
	errs := make([]error, units)

	for i := 0; i < units; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := make([]byte, i+1)
			for j := range src {
				src[j] = 'x'
			}
			k, err := tr.Pre(string(src), fmt.Sprintf("u%d.js", i))
			if err != nil {
				errs[i] = err
				return
			}
			results[i], errs[i] = tr.Post(k, string(src[:1]))
		}(i)
	}
	wg.Wait()

	for i := 0; i < units; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, fmt.Sprintf("u%d.js", i), results[i].Identity)
		assert.Equal(t, i+1, results[i].OriginalBytes)
		assert.Equal(t, 1, results[i].CompiledBytes)
	}
	assert.Equal(t, 0, tr.Pending())
}
