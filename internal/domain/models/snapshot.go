package models

import "time"

// Holding is one portfolio position after a refresh. Quantity comes from
// configuration and is always set; the derived fields are nil when the fetch
// for the symbol failed.
type Holding struct {
	Quantity  float64  `json:"quantity"`
	Price     *float64 `json:"price"`
	DayChange *float64 `json:"dayChange"`
	YTDChange *float64 `json:"ytdChange"`
	Drawdown  *float64 `json:"drawdown"`
	Value     *float64 `json:"value"`
	Error     bool     `json:"error,omitempty"`
}

// PortfolioTotal aggregates only the holdings that fetched successfully.
type PortfolioTotal struct {
	Value     float64 `json:"value"`
	DayChange float64 `json:"dayChange"`
}

// PortfolioSection is the portfolio part of a snapshot.
type PortfolioSection struct {
	Holdings map[string]*Holding `json:"holdings,omitempty"`
	Total    PortfolioTotal      `json:"total"`
	Error    string              `json:"error,omitempty"`
}

// Indicator is a macro indicator with its short-window change and sparkline.
// Price and WindowChange are nil when the fetch failed.
type Indicator struct {
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Price        *float64  `json:"price"`
	WindowChange *float64  `json:"change4h"`
	Sparkline    []float64 `json:"sparkline"`
	Error        bool      `json:"error,omitempty"`
}

// MacroSection is the macro-indicator part of a snapshot.
type MacroSection struct {
	Items []*Indicator `json:"items"`
	Error string       `json:"error,omitempty"`
}

// NewsItem is one headline with its keyword relevance weight.
type NewsItem struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Published time.Time `json:"pubDate"`
	Source    string    `json:"source"`
	Weight    int       `json:"weight"`
}

// NewsSection is the ranked-news part of a snapshot.
type NewsSection struct {
	Items []*NewsItem `json:"items"`
	Error string      `json:"error,omitempty"`
}

// SocialPost is one post from a monitored account. Error marks an
// account-level fetch failure; such entries carry only the author.
type SocialPost struct {
	ID      string    `json:"id,omitempty"`
	Author  string    `json:"author"`
	Text    string    `json:"text,omitempty"`
	Summary string    `json:"summary,omitempty"`
	Posted  time.Time `json:"created_at"`
	Likes   int       `json:"like_count"`
	Error   bool      `json:"error,omitempty"`
}

// SocialSection is the social part of a snapshot.
type SocialSection struct {
	Items []*SocialPost `json:"items"`
	Error string        `json:"error,omitempty"`
}

// Snapshot is one fully assembled aggregation result. It is immutable once
// published; a new refresh produces a new Snapshot.
type Snapshot struct {
	Timestamp  time.Time         `json:"timestamp"`
	Portfolio  *PortfolioSection `json:"portfolio"`
	Macro      *MacroSection     `json:"macro"`
	News       *NewsSection      `json:"news"`
	Tweets     *SocialSection    `json:"tweets"`
	NextUpdate time.Time         `json:"nextUpdate"`
}

// UpdateNotice is pushed to subscribers after each refresh attempt.
type UpdateNotice struct {
	Status  string `json:"status"` // "success" or "error"
	Message string `json:"message,omitempty"`
}

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// PriceHistory is a raw price series from the quote upstream. Closes may
// contain nil entries for missing samples; they are excluded from all
// baseline and peak searches.
type PriceHistory struct {
	Symbol        string
	Current       float64
	PreviousClose float64
	Timestamps    []int64
	Closes        []*float64
}
