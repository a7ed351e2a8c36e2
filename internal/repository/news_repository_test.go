package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockgpt/internal/entity"
)

func TestParseFinvizTime(t *testing.T) {
	full := parseFinvizTime("Mar-14-24 09:35AM")
	assert.Equal(t, time.Date(2024, 3, 14, 9, 35, 0, 0, time.UTC), full)

	bare := parseFinvizTime("04:10PM")
	now := time.Now()
	assert.Equal(t, now.Year(), bare.Year())
	assert.Equal(t, 16, bare.Hour())
	assert.Equal(t, 10, bare.Minute())

	assert.True(t, parseFinvizTime("garbage").IsZero())
}

func TestDedupeArticlesKeepsFirstPerSource(t *testing.T) {
	articles := []entity.NewsArticle{
		{Headline: "Apple beats estimates", Source: "Yahoo Finance", Link: "a"},
		{Headline: "Apple beats estimates", Source: "Yahoo Finance", Link: "b"},
		{Headline: "Apple beats estimates", Source: "Finviz", Link: "c"},
		{Headline: "New iPhone announced", Source: "Finviz", Link: "d"},
	}

	out := dedupeArticles(articles)
	require.Len(t, out, 3)
	assert.Equal(t, "a", out[0].Link, "first occurrence wins")
	assert.Equal(t, "c", out[1].Link)
	assert.Equal(t, "d", out[2].Link)
}
