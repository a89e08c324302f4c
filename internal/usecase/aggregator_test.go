package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/pkg/config"
	xlogger "MacroPulse/pkg/logger"
)

var testNow = time.Date(2025, time.August, 30, 12, 0, 0, 0, time.UTC)

type fakeQuotes struct {
	daily  map[string]*models.PriceHistory
	hourly map[string]*models.PriceHistory
}

func (f *fakeQuotes) Daily(_ context.Context, symbol string) (*models.PriceHistory, error) {
	h, ok := f.daily[symbol]
	if !ok {
		return nil, fmt.Errorf("no daily data for %s", symbol)
	}
	return h, nil
}

func (f *fakeQuotes) Hourly(_ context.Context, symbol string) (*models.PriceHistory, error) {
	h, ok := f.hourly[symbol]
	if !ok {
		return nil, fmt.Errorf("no hourly data for %s", symbol)
	}
	return h, nil
}

type fakeNews struct {
	feeds map[string][]*models.NewsItem
}

func (f *fakeNews) Fetch(_ context.Context, name, _ string) ([]*models.NewsItem, error) {
	items, ok := f.feeds[name]
	if !ok {
		return nil, fmt.Errorf("feed %s unreachable", name)
	}
	return items, nil
}

type fakeSocial struct {
	accounts map[string][]*models.SocialPost
}

func (f *fakeSocial) Fetch(_ context.Context, account string) ([]*models.SocialPost, error) {
	posts, ok := f.accounts[account]
	if !ok {
		return nil, fmt.Errorf("account %s unreachable", account)
	}
	return posts, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordRefresh(string, string)    {}
func (noopMetrics) RecordFetchError(string)         {}
func (noopMetrics) RecordLastPrice(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)   {}
func (noopMetrics) SetSubscribers(int)              {}

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func newTestAggregator(t *testing.T, settings Settings, quotes *fakeQuotes, news *fakeNews, social *fakeSocial) *Aggregator {
	t.Helper()
	if quotes == nil {
		quotes = &fakeQuotes{}
	}
	if news == nil {
		news = &fakeNews{}
	}
	if social == nil {
		social = &fakeSocial{}
	}
	if settings.RecencyWindow == 0 {
		settings.RecencyWindow = 4 * time.Hour
	}
	if settings.TopNews == 0 {
		settings.TopNews = 5
	}
	if settings.TopSocial == 0 {
		settings.TopSocial = 5
	}
	if settings.SparklinePoints == 0 {
		settings.SparklinePoints = 24
	}
	if settings.IndicatorWindow == 0 {
		settings.IndicatorWindow = 4
	}
	a := NewAggregator(quotes, news, social, noopMetrics{}, testLogger(t), settings)
	a.now = func() time.Time { return testNow }
	return a
}

func TestAggregatePortfolioTotalsSkipFailures(t *testing.T) {
	feb := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC).Unix()
	mar := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC).Unix()
	quotes := &fakeQuotes{daily: map[string]*models.PriceHistory{
		"VWRA": {
			Symbol:        "VWRA",
			Current:       110,
			PreviousClose: 100,
			Timestamps:    []int64{feb, mar},
			Closes:        []*float64{fp(100), fp(120)},
		},
	}}
	settings := Settings{Holdings: []config.HoldingConfig{
		{Symbol: "VWRA", Quantity: 2},
		{Symbol: "BROKEN", Quantity: 3},
		{Symbol: "USD", Quantity: 500, Cash: true},
	}}
	a := newTestAggregator(t, settings, quotes, nil, nil)

	snap := a.Aggregate(context.Background())
	p := snap.Portfolio
	if p.Error != "" {
		t.Fatalf("unexpected section error %q", p.Error)
	}

	vwra := p.Holdings["VWRA"]
	if vwra == nil || vwra.Price == nil || *vwra.Price != 110 {
		t.Fatalf("unexpected VWRA holding %+v", vwra)
	}
	if vwra.DayChange == nil || *vwra.DayChange != 10 {
		t.Fatalf("expected dayChange 10, got %+v", vwra.DayChange)
	}
	if vwra.YTDChange == nil || *vwra.YTDChange != 10 {
		t.Fatalf("expected ytdChange 10, got %+v", vwra.YTDChange)
	}
	if vwra.Drawdown == nil || *vwra.Drawdown >= 0 {
		t.Fatalf("expected negative drawdown, got %+v", vwra.Drawdown)
	}

	broken := p.Holdings["BROKEN"]
	if broken == nil || !broken.Error || broken.Price != nil || broken.Value != nil {
		t.Fatalf("expected bare error marker, got %+v", broken)
	}

	cash := p.Holdings["USD"]
	if cash == nil || cash.Value == nil || *cash.Value != 500 {
		t.Fatalf("unexpected cash holding %+v", cash)
	}

	// VWRA 2*110 + cash 500; BROKEN excluded from both sides.
	if p.Total.Value != 720 {
		t.Fatalf("expected total 720, got %v", p.Total.Value)
	}
	want := (720.0 - 700.0) / 700.0 * 100
	if p.Total.DayChange != want {
		t.Fatalf("expected total dayChange %v, got %v", want, p.Total.DayChange)
	}
}

func TestAggregateNewsRankedByKeywordWeight(t *testing.T) {
	fresh := testNow.Add(-time.Hour)
	stale := testNow.Add(-6 * time.Hour)
	news := &fakeNews{feeds: map[string][]*models.NewsItem{
		"wires": {
			{Title: "Calm markets ahead", Published: fresh, Source: "wires"},
			{Title: "Fed set to raise rates again", Published: fresh, Source: "wires"},
			{Title: "Fed minutes released", Published: stale, Source: "wires"},
		},
	}}
	settings := Settings{
		Feeds:    []config.FeedConfig{{Name: "wires", URL: "http://example.com/rss"}, {Name: "down", URL: "http://example.com/down"}},
		Keywords: []string{"Fed", "rates"},
	}
	a := newTestAggregator(t, settings, nil, news, nil)

	snap := a.Aggregate(context.Background())
	n := snap.News
	if n.Error != "" {
		t.Fatalf("unexpected section error %q", n.Error)
	}
	if len(n.Items) != 2 {
		t.Fatalf("expected 2 fresh items, got %d", len(n.Items))
	}
	if n.Items[0].Title != "Fed set to raise rates again" || n.Items[0].Weight != 2 {
		t.Fatalf("unexpected top item %+v", n.Items[0])
	}
	if n.Items[1].Weight != 0 {
		t.Fatalf("expected weight 0 for unmatched title, got %d", n.Items[1].Weight)
	}
}

func TestAggregateNewsTopNCap(t *testing.T) {
	fresh := testNow.Add(-time.Minute)
	items := make([]*models.NewsItem, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, &models.NewsItem{Title: fmt.Sprintf("headline %d", i), Published: fresh})
	}
	news := &fakeNews{feeds: map[string][]*models.NewsItem{"wires": items}}
	settings := Settings{
		Feeds:   []config.FeedConfig{{Name: "wires", URL: "http://example.com/rss"}},
		TopNews: 5,
	}
	a := newTestAggregator(t, settings, nil, news, nil)

	if got := len(a.Aggregate(context.Background()).News.Items); got != 5 {
		t.Fatalf("expected 5 items, got %d", got)
	}
}

func TestAggregateSocialRankedByLikes(t *testing.T) {
	fresh := testNow.Add(-time.Hour)
	stale := testNow.Add(-10 * time.Hour)
	social := &fakeSocial{accounts: map[string][]*models.SocialPost{
		"RayDalio": {
			{ID: "1", Author: "RayDalio", Text: "cycles", Posted: fresh, Likes: 100},
			{ID: "2", Author: "RayDalio", Text: "old take", Posted: stale, Likes: 9000},
		},
		"elerianm": {
			{ID: "3", Author: "elerianm", Text: "inflation", Posted: fresh, Likes: 400},
		},
	}}
	settings := Settings{Accounts: []string{"RayDalio", "elerianm", "gone"}}
	a := newTestAggregator(t, settings, nil, nil, social)

	s := a.Aggregate(context.Background()).Tweets
	if s.Error != "" {
		t.Fatalf("unexpected section error %q", s.Error)
	}
	if len(s.Items) != 3 {
		t.Fatalf("expected 2 posts plus 1 error marker, got %d", len(s.Items))
	}
	if s.Items[0].ID != "3" || s.Items[1].ID != "1" {
		t.Fatalf("unexpected like ordering: %+v", s.Items)
	}
	last := s.Items[2]
	if !last.Error || last.Author != "gone" {
		t.Fatalf("expected error marker for failed account, got %+v", last)
	}
}

func TestAggregateIndicators(t *testing.T) {
	quotes := &fakeQuotes{hourly: map[string]*models.PriceHistory{
		"GC=F": {
			Symbol:  "GC=F",
			Current: 105,
			Closes:  []*float64{fp(100), nil, fp(102), fp(104)},
		},
	}}
	settings := Settings{Indicators: []config.IndicatorConfig{
		{Symbol: "GC=F", Name: "Gold"},
		{Symbol: "MISSING", Name: "Broken"},
	}}
	a := newTestAggregator(t, settings, quotes, nil, nil)

	m := a.Aggregate(context.Background()).Macro
	if len(m.Items) != 2 {
		t.Fatalf("expected 2 indicators, got %d", len(m.Items))
	}

	gold := m.Items[0]
	if gold.Symbol != "GC=F" || gold.Name != "Gold" {
		t.Fatalf("indicator order not preserved: %+v", m.Items)
	}
	if gold.WindowChange == nil || *gold.WindowChange != 5 {
		t.Fatalf("expected window change 5, got %+v", gold.WindowChange)
	}
	if len(gold.Sparkline) != 3 || gold.Sparkline[0] != 100 || gold.Sparkline[2] != 104 {
		t.Fatalf("unexpected sparkline %v", gold.Sparkline)
	}

	broken := m.Items[1]
	if !broken.Error || broken.Price != nil {
		t.Fatalf("expected error marker, got %+v", broken)
	}
}

type panicQuotes struct{}

func (panicQuotes) Daily(context.Context, string) (*models.PriceHistory, error) {
	panic("nil candle series")
}

func (panicQuotes) Hourly(context.Context, string) (*models.PriceHistory, error) {
	return nil, fmt.Errorf("no hourly data")
}

func TestAggregateSectionPanicBecomesMarker(t *testing.T) {
	news := &fakeNews{feeds: map[string][]*models.NewsItem{
		"wires": {{Title: "Calm markets ahead", Published: testNow.Add(-time.Hour), Source: "wires"}},
	}}
	settings := Settings{
		Holdings: []config.HoldingConfig{{Symbol: "VWRA", Quantity: 2}},
		Feeds:    []config.FeedConfig{{Name: "wires", URL: "http://example.com/rss"}},
	}
	settings.RecencyWindow = 4 * time.Hour
	settings.TopNews = 5
	settings.TopSocial = 5
	a := NewAggregator(panicQuotes{}, news, &fakeSocial{}, noopMetrics{}, testLogger(t), settings)
	a.now = func() time.Time { return testNow }

	snap := a.Aggregate(context.Background())
	if snap.Portfolio == nil || snap.Portfolio.Error == "" {
		t.Fatalf("expected portfolio error marker, got %+v", snap.Portfolio)
	}
	if snap.Portfolio.Holdings != nil {
		t.Fatalf("marker section should carry no holdings, got %+v", snap.Portfolio.Holdings)
	}
	if snap.News == nil || snap.News.Error != "" || len(snap.News.Items) != 1 {
		t.Fatalf("sibling news section should still publish, got %+v", snap.News)
	}
	if snap.Macro == nil || snap.Macro.Error != "" {
		t.Fatalf("sibling macro section should still publish, got %+v", snap.Macro)
	}
	if snap.Tweets == nil || snap.Tweets.Error != "" {
		t.Fatalf("sibling social section should still publish, got %+v", snap.Tweets)
	}
}

func TestAggregateNewsEqualWeightKeepsFetchOrder(t *testing.T) {
	fresh := testNow.Add(-time.Hour)
	news := &fakeNews{feeds: map[string][]*models.NewsItem{
		"wires": {
			{Title: "Fed pauses", Published: fresh, Source: "wires"},
			{Title: "Fed speaks", Published: fresh, Source: "wires"},
			{Title: "Fed to raise rates", Published: fresh, Source: "wires"},
		},
	}}
	settings := Settings{
		Feeds:    []config.FeedConfig{{Name: "wires", URL: "http://example.com/rss"}},
		Keywords: []string{"Fed", "rates"},
	}
	a := newTestAggregator(t, settings, nil, news, nil)

	n := a.Aggregate(context.Background()).News
	if len(n.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(n.Items))
	}
	if n.Items[0].Title != "Fed to raise rates" {
		t.Fatalf("expected heaviest item first, got %+v", n.Items[0])
	}
	if n.Items[1].Title != "Fed pauses" || n.Items[2].Title != "Fed speaks" {
		t.Fatalf("equal weights should keep fetch order, got %+v", n.Items)
	}
}

func TestAggregateRecencyExcludesCutoffBoundary(t *testing.T) {
	window := 4 * time.Hour
	atCutoff := testNow.Add(-window)
	justInside := atCutoff.Add(time.Second)
	news := &fakeNews{feeds: map[string][]*models.NewsItem{
		"wires": {
			{Title: "exactly four hours old", Published: atCutoff, Source: "wires"},
			{Title: "just inside the window", Published: justInside, Source: "wires"},
		},
	}}
	social := &fakeSocial{accounts: map[string][]*models.SocialPost{
		"RayDalio": {
			{ID: "1", Author: "RayDalio", Posted: atCutoff, Likes: 9000},
			{ID: "2", Author: "RayDalio", Posted: justInside, Likes: 1},
		},
	}}
	settings := Settings{
		Feeds:         []config.FeedConfig{{Name: "wires", URL: "http://example.com/rss"}},
		Accounts:      []string{"RayDalio"},
		RecencyWindow: window,
	}
	a := newTestAggregator(t, settings, nil, news, social)

	snap := a.Aggregate(context.Background())
	if len(snap.News.Items) != 1 || snap.News.Items[0].Title != "just inside the window" {
		t.Fatalf("item at the cutoff instant should be dropped, got %+v", snap.News.Items)
	}
	if len(snap.Tweets.Items) != 1 || snap.Tweets.Items[0].ID != "2" {
		t.Fatalf("post at the cutoff instant should be dropped, got %+v", snap.Tweets.Items)
	}
}

func TestAggregateStampsTimestamp(t *testing.T) {
	a := newTestAggregator(t, Settings{}, nil, nil, nil)
	snap := a.Aggregate(context.Background())
	if !snap.Timestamp.Equal(testNow) {
		t.Fatalf("expected timestamp %v, got %v", testNow, snap.Timestamp)
	}
	if !snap.NextUpdate.IsZero() {
		t.Fatalf("nextUpdate should be stamped by the refresher, got %v", snap.NextUpdate)
	}
}
