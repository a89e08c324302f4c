package analytics

import "time"

// Pure derived-metric math over a price series. Closes may contain nil
// entries for missing samples; those are excluded from baseline and peak
// searches rather than treated as zero. All functions report ok=false
// instead of dividing by a zero or absent baseline.

// DayChangePct returns the percentage move from previousClose to current.
func DayChangePct(current, previousClose float64) (float64, bool) {
	if previousClose == 0 {
		return 0, false
	}
	return (current - previousClose) / previousClose * 100, true
}

// YTDChangePct returns the percentage move from the first non-nil close at or
// after yearStart. When the series has no usable sample in the current year
// the previous close is the baseline.
func YTDChangePct(timestamps []int64, closes []*float64, current, previousClose float64, yearStart time.Time) (float64, bool) {
	baseline := previousClose
	cutoff := yearStart.Unix()
	for i, ts := range timestamps {
		if ts < cutoff {
			continue
		}
		if i < len(closes) && closes[i] != nil {
			baseline = *closes[i]
			break
		}
	}
	if baseline == 0 {
		return 0, false
	}
	return (current - baseline) / baseline * 100, true
}

// DrawdownPct returns the percentage decline of current from the highest
// close observed, with current itself included in the peak search. The
// result is always <= 0.
func DrawdownPct(closes []*float64, current float64) (float64, bool) {
	peak := current
	for _, c := range closes {
		if c != nil && *c > peak {
			peak = *c
		}
	}
	if peak == 0 {
		return 0, false
	}
	return (current - peak) / peak * 100, true
}

// WindowChangePct returns the percentage move from the close `window`
// positions back from the end of the series. Series shorter than the window
// fall back to their first usable sample.
func WindowChangePct(closes []*float64, window int, current float64) (float64, bool) {
	n := len(closes)
	if n == 0 {
		return 0, false
	}
	start := n - window
	if start < 0 {
		start = 0
	}
	for i := start; i < n; i++ {
		if closes[i] == nil || *closes[i] == 0 {
			continue
		}
		baseline := *closes[i]
		return (current - baseline) / baseline * 100, true
	}
	return 0, false
}

// SparklineTail returns the trailing non-nil closes in chronological order,
// capped at max points.
func SparklineTail(closes []*float64, max int) []float64 {
	out := make([]float64, 0, max)
	for i := len(closes) - 1; i >= 0 && len(out) < max; i-- {
		if closes[i] != nil {
			out = append(out, *closes[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
