package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHuntBreakthrough   BookmarkType = "hunt_breakthrough"
	BookmarkForageBreakthrough BookmarkType = "forage_breakthrough"
	BookmarkPredatorRecovery   BookmarkType = "predator_recovery"
	BookmarkPreyCrash          BookmarkType = "prey_crash"
	BookmarkStableEcosystem    BookmarkType = "stable_ecosystem"
	BookmarkExtinction         BookmarkType = "extinction"
)

// Bookmark marks a notable moment in the population dynamics.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int          `csv:"tick"`
	Season      string       `csv:"season"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"season", b.Season,
		"description", b.Description,
	)
}

// BookmarkDetector watches consecutive windows for booms, crashes and
// extinctions.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recentPredMin      int // minimum predator count since the last recovery
	recentPreyPeak     int // peak prey count since the last crash
	stableWindowsCount int // consecutive windows with stable populations
	predSeen           bool
	preyExtinct        bool
	predExtinct        bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable ecosystem detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	add := func(b *Bookmark) {
		if b != nil {
			b.Season = stats.Season
			bookmarks = append(bookmarks, *b)
		}
	}

	add(bd.checkExtinction(stats))
	if bd.historyFull || bd.historyIdx > 0 {
		add(bd.checkHuntBreakthrough(stats))
		add(bd.checkForageBreakthrough(stats))
		add(bd.checkPredatorRecovery(stats))
		add(bd.checkPreyCrash(stats))
		add(bd.checkStableEcosystem(stats))
	}

	bd.addToHistory(stats)

	if stats.PredCount < bd.recentPredMin || bd.recentPredMin == 0 {
		bd.recentPredMin = stats.PredCount
	}
	if stats.PreyCount > bd.recentPreyPeak {
		bd.recentPreyPeak = stats.PreyCount
	}
	if stats.PredCount > 0 {
		bd.predSeen = true
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the recorded windows, oldest first.
func (bd *BookmarkDetector) getHistory() []WindowStats {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	out := make([]WindowStats, 0, bd.historySize)
	out = append(out, bd.history[bd.historyIdx:]...)
	return append(out, bd.history[:bd.historyIdx]...)
}

// checkExtinction fires once when a species that was present dies out.
func (bd *BookmarkDetector) checkExtinction(stats WindowStats) *Bookmark {
	var gone string
	switch {
	case stats.PreyCount == 0 && !bd.preyExtinct && bd.recentPreyPeak > 0:
		bd.preyExtinct = true
		gone = "prey"
	case stats.PredCount == 0 && !bd.predExtinct && bd.predSeen:
		bd.predExtinct = true
		gone = "predators"
	default:
		return nil
	}
	return &Bookmark{
		Type:        BookmarkExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("All %s died out (%d prey, %d predators left)", gone, stats.PreyCount, stats.PredCount),
	}
}

func (bd *BookmarkDetector) checkHuntBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	kills := make([]float64, len(history))
	for i, h := range history {
		kills[i] = float64(h.PreyHunted)
	}
	avg := stat.Mean(kills, nil)
	if avg == 0 {
		return nil
	}

	if float64(stats.PreyHunted) > avg*2.0 && stats.PreyHunted >= 3 {
		return &Bookmark{
			Type:        BookmarkHuntBreakthrough,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d kills is %.1fx average (%.1f)", stats.PreyHunted, float64(stats.PreyHunted)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkForageBreakthrough(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	forage := make([]float64, len(history))
	for i, h := range history {
		forage[i] = float64(h.ForageEvents)
	}
	avg := stat.Mean(forage, nil)
	if avg == 0 {
		return nil
	}

	if float64(stats.ForageEvents) > avg*2.0 && stats.ForageEvents >= 10 {
		return &Bookmark{
			Type:        BookmarkForageBreakthrough,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d meals is %.1fx average (%.1f)", stats.ForageEvents, float64(stats.ForageEvents)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPredatorRecovery(stats WindowStats) *Bookmark {
	if bd.recentPredMin == 0 || bd.recentPredMin > 3 {
		return nil
	}

	threshold := bd.recentPredMin * 3
	if stats.PredCount >= threshold && stats.PredCount >= 6 {
		oldMin := bd.recentPredMin
		bd.recentPredMin = stats.PredCount

		return &Bookmark{
			Type:        BookmarkPredatorRecovery,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Predator population recovered from %d to %d", oldMin, stats.PredCount),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPreyCrash(stats WindowStats) *Bookmark {
	if bd.recentPreyPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - float64(stats.PreyCount)/float64(bd.recentPreyPeak)
	if dropPercent > 0.30 && stats.PreyCount < bd.recentPreyPeak-10 {
		oldPeak := bd.recentPreyPeak
		bd.recentPreyPeak = stats.PreyCount

		return &Bookmark{
			Type:        BookmarkPreyCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Prey crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.PreyCount),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkStableEcosystem(stats WindowStats) *Bookmark {
	if stats.PreyCount < 10 || stats.PredCount < 3 {
		bd.stableWindowsCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	prey := make([]float64, len(recent))
	pred := make([]float64, len(recent))
	for i, h := range recent {
		prey[i] = float64(h.PreyCount)
		pred[i] = float64(h.PredCount)
	}

	// Low variance: coefficient of variation < 20%
	if coefVar(prey) < 0.2 && coefVar(pred) < 0.2 {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	if bd.stableWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkStableEcosystem,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Stable ecosystem with %d prey, %d predators over 5+ windows", stats.PreyCount, stats.PredCount),
		}
	}
	return nil
}

func coefVar(x []float64) float64 {
	mean, std := stat.PopMeanStdDev(x, nil)
	if mean == 0 {
		return 0
	}
	return std / mean
}
