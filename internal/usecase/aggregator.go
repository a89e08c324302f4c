package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"MacroPulse/internal/analytics"
	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	"MacroPulse/pkg/config"
	xlogger "MacroPulse/pkg/logger"
)

// Settings is the immutable aggregation plan: what to fetch and how to rank
// it. It is fixed at construction; a config change requires a restart.
type Settings struct {
	Holdings        []config.HoldingConfig
	Indicators      []config.IndicatorConfig
	Feeds           []config.FeedConfig
	Keywords        []string
	Accounts        []string
	RecencyWindow   time.Duration
	TopNews         int
	TopSocial       int
	SparklinePoints int
	IndicatorWindow int
}

// Aggregator assembles one snapshot per run. The four sections are fetched
// concurrently and fail independently; a section that panics or whose
// upstream is down degrades to an error marker instead of failing the run.
type Aggregator struct {
	quotes   repository.QuoteSource
	news     repository.NewsSource
	social   repository.SocialSource
	metrics  repository.Metrics
	logger   *xlogger.Logger
	settings Settings
	now      func() time.Time
}

func NewAggregator(
	quotes repository.QuoteSource,
	news repository.NewsSource,
	social repository.SocialSource,
	metrics repository.Metrics,
	logger *xlogger.Logger,
	settings Settings,
) *Aggregator {
	return &Aggregator{
		quotes:   quotes,
		news:     news,
		social:   social,
		metrics:  metrics,
		logger:   logger,
		settings: settings,
		now:      time.Now,
	}
}

// Aggregate fetches all sections and assembles a snapshot. NextUpdate is left
// zero; the caller stamps it against the checkpoint schedule before
// publishing.
func (a *Aggregator) Aggregate(ctx context.Context) *models.Snapshot {
	started := time.Now()
	snap := &models.Snapshot{Timestamp: a.now().UTC()}

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); snap.Portfolio = a.portfolio(ctx) }()
	go func() { defer wg.Done(); snap.Macro = a.macro(ctx) }()
	go func() { defer wg.Done(); snap.News = a.headlines(ctx) }()
	go func() { defer wg.Done(); snap.Tweets = a.posts(ctx) }()
	wg.Wait()

	a.metrics.RecordLatency("aggregate", time.Since(started).Seconds())
	return snap
}

func (a *Aggregator) portfolio(ctx context.Context) (section *models.PortfolioSection) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("portfolio section panicked", xlogger.Any("panic", r))
			section = &models.PortfolioSection{Error: fmt.Sprintf("portfolio: %v", r)}
		}
	}()

	holdings := make(map[string]*models.Holding, len(a.settings.Holdings))
	results := make([]holdingResult, len(a.settings.Holdings))

	var trap panicTrap
	var wg sync.WaitGroup
	for i, hc := range a.settings.Holdings {
		if hc.Cash {
			// Cash is valued 1:1 and never moves.
			results[i] = holdingResult{
				holding: &models.Holding{
					Quantity:  hc.Quantity,
					Price:     fp(1),
					DayChange: fp(0),
					YTDChange: fp(0),
					Drawdown:  fp(0),
					Value:     fp(hc.Quantity),
				},
				today:     hc.Quantity,
				yesterday: hc.Quantity,
				ok:        true,
			}
			continue
		}

		wg.Add(1)
		go func(i int, hc config.HoldingConfig) {
			defer wg.Done()
			defer trap.capture()
			results[i] = a.holding(ctx, hc)
		}(i, hc)
	}
	wg.Wait()
	trap.rethrow()

	var today, yesterday float64
	for i, hc := range a.settings.Holdings {
		holdings[hc.Symbol] = results[i].holding
		if results[i].ok {
			today += results[i].today
			yesterday += results[i].yesterday
		}
	}

	total := models.PortfolioTotal{Value: today}
	if v, ok := analytics.DayChangePct(today, yesterday); ok {
		total.DayChange = v
	}

	return &models.PortfolioSection{Holdings: holdings, Total: total}
}

type holdingResult struct {
	holding   *models.Holding
	today     float64
	yesterday float64
	ok        bool
}

// panicTrap carries a panic out of worker goroutines and back into the
// section goroutine, where the section recover turns it into an error marker
// instead of crashing the process.
type panicTrap struct {
	mu sync.Mutex
	v  interface{}
}

func (p *panicTrap) capture() {
	if r := recover(); r != nil {
		p.mu.Lock()
		if p.v == nil {
			p.v = r
		}
		p.mu.Unlock()
	}
}

func (p *panicTrap) rethrow() {
	p.mu.Lock()
	v := p.v
	p.mu.Unlock()
	if v != nil {
		panic(v)
	}
}

func (a *Aggregator) holding(ctx context.Context, hc config.HoldingConfig) (res holdingResult) {
	hist, err := a.quotes.Daily(ctx, hc.Symbol)
	if err != nil {
		a.metrics.RecordFetchError("quotes")
		a.logger.Warn("holding fetch failed", xlogger.String("symbol", hc.Symbol), xlogger.Error(err))
		res.holding = &models.Holding{Quantity: hc.Quantity, Error: true}
		return res
	}

	h := &models.Holding{
		Quantity: hc.Quantity,
		Price:    fp(hist.Current),
		Value:    fp(hc.Quantity * hist.Current),
	}
	if v, ok := analytics.DayChangePct(hist.Current, hist.PreviousClose); ok {
		h.DayChange = fp(v)
	}
	yearStart := time.Date(a.now().UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if v, ok := analytics.YTDChangePct(hist.Timestamps, hist.Closes, hist.Current, hist.PreviousClose, yearStart); ok {
		h.YTDChange = fp(v)
	}
	if v, ok := analytics.DrawdownPct(hist.Closes, hist.Current); ok {
		h.Drawdown = fp(v)
	}
	a.metrics.RecordLastPrice(hc.Symbol, hist.Current)

	res.holding = h
	res.today = hc.Quantity * hist.Current
	res.yesterday = hc.Quantity * hist.PreviousClose
	res.ok = true
	return res
}

func (a *Aggregator) macro(ctx context.Context) (section *models.MacroSection) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("macro section panicked", xlogger.Any("panic", r))
			section = &models.MacroSection{Error: fmt.Sprintf("macro: %v", r)}
		}
	}()

	items := make([]*models.Indicator, len(a.settings.Indicators))
	var trap panicTrap
	var wg sync.WaitGroup
	for i, ic := range a.settings.Indicators {
		wg.Add(1)
		go func(i int, ic config.IndicatorConfig) {
			defer wg.Done()
			defer trap.capture()
			items[i] = a.indicator(ctx, ic)
		}(i, ic)
	}
	wg.Wait()
	trap.rethrow()

	return &models.MacroSection{Items: items}
}

func (a *Aggregator) indicator(ctx context.Context, ic config.IndicatorConfig) *models.Indicator {
	hist, err := a.quotes.Hourly(ctx, ic.Symbol)
	if err != nil {
		a.metrics.RecordFetchError("quotes")
		a.logger.Warn("indicator fetch failed", xlogger.String("symbol", ic.Symbol), xlogger.Error(err))
		return &models.Indicator{Symbol: ic.Symbol, Name: ic.Name, Error: true}
	}

	it := &models.Indicator{
		Symbol:    ic.Symbol,
		Name:      ic.Name,
		Price:     fp(hist.Current),
		Sparkline: analytics.SparklineTail(hist.Closes, a.settings.SparklinePoints),
	}
	if v, ok := analytics.WindowChangePct(hist.Closes, a.settings.IndicatorWindow, hist.Current); ok {
		it.WindowChange = fp(v)
	}
	a.metrics.RecordLastPrice(ic.Symbol, hist.Current)
	return it
}

func (a *Aggregator) headlines(ctx context.Context) (section *models.NewsSection) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("news section panicked", xlogger.Any("panic", r))
			section = &models.NewsSection{Error: fmt.Sprintf("news: %v", r)}
		}
	}()

	perFeed := make([][]*models.NewsItem, len(a.settings.Feeds))
	var trap panicTrap
	var wg sync.WaitGroup
	for i, feed := range a.settings.Feeds {
		wg.Add(1)
		go func(i int, feed config.FeedConfig) {
			defer wg.Done()
			defer trap.capture()
			items, err := a.news.Fetch(ctx, feed.Name, feed.URL)
			if err != nil {
				a.metrics.RecordFetchError("news")
				a.logger.Warn("feed fetch failed", xlogger.String("feed", feed.Name), xlogger.Error(err))
				return
			}
			perFeed[i] = items
		}(i, feed)
	}
	wg.Wait()
	trap.rethrow()

	cutoff := a.now().Add(-a.settings.RecencyWindow)
	items := make([]*models.NewsItem, 0, 32)
	for _, feedItems := range perFeed {
		for _, it := range feedItems {
			if !it.Published.After(cutoff) {
				continue
			}
			it.Weight = keywordWeight(it.Title, a.settings.Keywords)
			items = append(items, it)
		}
	}

	// Stable keeps feed order among equal weights.
	sort.SliceStable(items, func(i, j int) bool { return items[i].Weight > items[j].Weight })
	if len(items) > a.settings.TopNews {
		items = items[:a.settings.TopNews]
	}

	return &models.NewsSection{Items: items}
}

// keywordWeight counts the keywords present in title, case-insensitively.
func keywordWeight(title string, keywords []string) int {
	lower := strings.ToLower(title)
	weight := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			weight++
		}
	}
	return weight
}

func (a *Aggregator) posts(ctx context.Context) (section *models.SocialSection) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("social section panicked", xlogger.Any("panic", r))
			section = &models.SocialSection{Error: fmt.Sprintf("social: %v", r)}
		}
	}()

	perAccount := make([][]*models.SocialPost, len(a.settings.Accounts))
	failed := make([]bool, len(a.settings.Accounts))
	var trap panicTrap
	var wg sync.WaitGroup
	for i, account := range a.settings.Accounts {
		wg.Add(1)
		go func(i int, account string) {
			defer wg.Done()
			defer trap.capture()
			posts, err := a.social.Fetch(ctx, account)
			if err != nil {
				a.metrics.RecordFetchError("social")
				a.logger.Warn("account fetch failed", xlogger.String("account", account), xlogger.Error(err))
				failed[i] = true
				return
			}
			perAccount[i] = posts
		}(i, account)
	}
	wg.Wait()
	trap.rethrow()

	cutoff := a.now().Add(-a.settings.RecencyWindow)
	items := make([]*models.SocialPost, 0, 32)
	for _, posts := range perAccount {
		for _, p := range posts {
			if !p.Posted.After(cutoff) {
				continue
			}
			items = append(items, p)
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Likes > items[j].Likes })
	if len(items) > a.settings.TopSocial {
		items = items[:a.settings.TopSocial]
	}

	// Failed accounts stay visible as error markers after the ranked posts.
	for i, account := range a.settings.Accounts {
		if failed[i] {
			items = append(items, &models.SocialPost{Author: account, Error: true})
		}
	}

	return &models.SocialSection{Items: items}
}

func fp(v float64) *float64 { return &v }
