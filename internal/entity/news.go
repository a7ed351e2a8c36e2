package entity

import "time"

// NewsArticle is one headline gathered for a symbol.
type NewsArticle struct {
	Headline    string    `json:"headline"`
	Source      string    `json:"source"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_at"`
	Summary     string    `json:"summary,omitempty"`
}

// MarketIndex is the latest state of a broad market index, used as
// background context for the narrative prompt.
type MarketIndex struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	ChangePct  float64 `json:"change_pct"`
}
