package cache

import (
	"testing"

	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []issue.Issue{{Text: "teh", Type: issue.TypeSpelling, Suggestion: "the"}}

func TestGetPut(t *testing.T) {
	c := New()

	_, ok := c.Get("hello", []issue.Check{issue.CheckGrammar})
	assert.False(t, ok)

	c.Put("hello", []issue.Check{issue.CheckGrammar}, sample)
	got, ok := c.Get("hello", []issue.Check{issue.CheckGrammar})
	require.True(t, ok)
	assert.Equal(t, sample, got)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestKeyIgnoresCheckOrder(t *testing.T) {
	c := New()

	c.Put("hello", []issue.Check{issue.CheckGrammar, issue.CheckSpelling}, sample)
	_, ok := c.Get("hello", []issue.Check{issue.CheckSpelling, issue.CheckGrammar})
	assert.True(t, ok)
}

func TestKeyDistinguishesTextAndChecks(t *testing.T) {
	c := New()

	assert.NotEqual(t, c.Key("hello", []issue.Check{issue.CheckGrammar}), c.Key("hello ", []issue.Check{issue.CheckGrammar}))
	assert.NotEqual(t, c.Key("hello", []issue.Check{issue.CheckGrammar}), c.Key("hello", []issue.Check{issue.CheckStyle}))
	assert.NotEqual(t, c.Key("hello", nil), c.Key("hello", []issue.Check{issue.CheckGrammar}))
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	c := New()
	input := []issue.Issue{{Text: "a", Suggestion: "b"}}
	c.Put("text", nil, input)
	input[0].Text = "mutated"

	got, ok := c.Get("text", nil)
	require.True(t, ok)
	assert.Equal(t, "a", got[0].Text)

	got[0].Text = "mutated again"
	again, _ := c.Get("text", nil)
	assert.Equal(t, "a", again[0].Text)
}

func TestClear(t *testing.T) {
	c := New()
	c.Put("a", nil, sample)
	c.Put("b", nil, sample)
	require.Equal(t, 2, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a", nil)
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Clears)
}

func TestMaxEntriesEvictsOldest(t *testing.T) {
	c := New(WithMaxEntries(2))
	c.Put("a", nil, sample)
	c.Put("b", nil, sample)
	c.Put("a", nil, sample)
	c.Put("c", nil, sample)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a", nil)
	assert.False(t, ok, "oldest insertion is evicted first")
	_, ok = c.Get("b", nil)
	assert.True(t, ok)
	_, ok = c.Get("c", nil)
	assert.True(t, ok)
}
