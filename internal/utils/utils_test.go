package utils

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanksCoverAllPoints(t *testing.T) {
	require.NotEmpty(t, Ranks)
	assert.Equal(t, 0, Ranks[0].Min)
	for i := 1; i < len(Ranks); i++ {
		assert.Equal(t, Ranks[i-1].Max+1, Ranks[i].Min, "gap before level %d", Ranks[i].Level)
		assert.Equal(t, Ranks[i-1].Level+1, Ranks[i].Level)
	}
	assert.Less(t, Ranks[len(Ranks)-1].Max, 0, "top tier must be unbounded")

	for _, points := range []int{0, 1, 99, 100, 299, 4999, 5000, 1 << 30} {
		matches := 0
		for _, r := range Ranks {
			if r.Contains(points) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "points %d", points)
	}
}

func TestRankForCrossesTier(t *testing.T) {
	assert.Equal(t, "Freshman Scholar", RankFor(95).Name)
	assert.Equal(t, "Knowledge Seeker", RankFor(105).Name)
	assert.Equal(t, 10, RankFor(100000).Level)
	assert.Equal(t, 1, RankFor(-5).Level)

	r, ok := RankByLevel(2)
	require.True(t, ok)
	assert.Equal(t, 100, r.Min)
	_, ok = RankByLevel(11)
	assert.False(t, ok)
}

func TestParseID(t *testing.T) {
	id, ok := ParseID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"", "0", "-1", "abc", "1.5"} {
		_, ok := ParseID(bad)
		assert.False(t, ok, bad)
	}
	assert.Equal(t, 0, StringToInt("x"))
}

func TestLocalCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(4)

	c.Set(ctx, "fresh", []byte("a"), time.Minute)
	c.Set(ctx, "stale", []byte("b"), -time.Second)

	v, ok := c.Get(ctx, "fresh")
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), v)

	_, ok = c.Get(ctx, "stale")
	assert.False(t, ok)

	c.Delete(ctx, "fresh")
	_, ok = c.Get(ctx, "fresh")
	assert.False(t, ok)
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("**bold** <script>alert(1)</script>"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<script")

	assert.Empty(t, RenderMarkdown(""))
}

func TestEnhanceHTMLContent(t *testing.T) {
	out := string(EnhanceHTMLContent(`<p><img src="/x.png"/><a href="/files/units/1/a.pdf">notes</a><a href="https://example.com">x</a></p>`))
	assert.Contains(t, out, `loading="lazy"`)
	assert.Contains(t, out, `referrerpolicy="no-referrer"`)
	assert.Equal(t, 1, strings.Count(out, "download"))
}

func TestResourceScore(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	assert.Zero(t, ResourceScore(now, now, 0, 0))
	assert.Zero(t, ResourceScore(now, now, 0, 3), "dislikes never go below zero")

	fresh := ResourceScore(now.Add(-time.Hour), now, 5, 0)
	old := ResourceScore(now.Add(-30*24*time.Hour), now, 5, 0)
	assert.Greater(t, fresh, old)

	liked := ResourceScore(now, now, 10, 0)
	mixed := ResourceScore(now, now, 10, 4)
	assert.Greater(t, liked, mixed)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("correct horse", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}
