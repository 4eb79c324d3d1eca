package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_HuntBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Steady history of a couple of kills per window
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick: i * 300,
			PreyCount:     80,
			PredCount:     10,
			PreyHunted:    2,
		})
	}

	// 4x the average
	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 1500,
		Season:        "summer",
		PreyCount:     80,
		PredCount:     10,
		PreyHunted:    8,
	})

	if !hasBookmark(bookmarks, BookmarkHuntBreakthrough) {
		t.Fatal("expected hunt_breakthrough bookmark")
	}
	for _, bm := range bookmarks {
		if bm.Season != "summer" || bm.Tick != 1500 {
			t.Errorf("bookmark %+v should carry the window's season and end tick", bm)
		}
	}
}

func TestBookmarkDetector_ForageBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: i * 300, PreyCount: 80, PredCount: 10, ForageEvents: 10})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1500, PreyCount: 80, PredCount: 10, ForageEvents: 30})
	if !hasBookmark(bookmarks, BookmarkForageBreakthrough) {
		t.Error("expected forage_breakthrough bookmark")
	}
}

func TestBookmarkDetector_PreyCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Build up prey population
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick: i * 300,
			PreyCount:     100,
			PredCount:     10,
		})
	}

	// 50% drop
	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 1500,
		PreyCount:     50,
		PredCount:     10,
	})

	if !hasBookmark(bookmarks, BookmarkPreyCrash) {
		t.Error("expected prey_crash bookmark")
	}
}

func TestBookmarkDetector_PredatorRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Start with low predator count
	bd.Check(WindowStats{
		WindowEndTick: 0,
		PreyCount:     100,
		PredCount:     2,
	})

	// Predator population recovers (3x+)
	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 300,
		PreyCount:     100,
		PredCount:     8,
	})

	if !hasBookmark(bookmarks, BookmarkPredatorRecovery) {
		t.Error("expected predator_recovery bookmark")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := -1
	count := 0
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: i * 300,
			PreyCount:     100,
			PredCount:     20,
		})
		if hasBookmark(bookmarks, BookmarkStableEcosystem) {
			if fired < 0 {
				fired = i
			}
			count++
		}
	}

	// Four windows of history, then five consecutive stable checks
	if fired != 8 {
		t.Errorf("stable_ecosystem fired at window %d, want 8", fired)
	}
	if count != 1 {
		t.Errorf("stable_ecosystem fired %d times, want exactly once", count)
	}
}

func TestBookmarkDetector_Extinction(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndTick: 0, PreyCount: 50, PredCount: 5})

	bookmarks := bd.Check(WindowStats{WindowEndTick: 300, PreyCount: 50, PredCount: 0})
	if !hasBookmark(bookmarks, BookmarkExtinction) {
		t.Fatal("expected extinction bookmark when predators die out")
	}

	// Reported once per species
	bookmarks = bd.Check(WindowStats{WindowEndTick: 600, PreyCount: 60, PredCount: 0})
	if hasBookmark(bookmarks, BookmarkExtinction) {
		t.Error("predator extinction should only be reported once")
	}

	bookmarks = bd.Check(WindowStats{WindowEndTick: 900, PreyCount: 0, PredCount: 0})
	if !hasBookmark(bookmarks, BookmarkExtinction) {
		t.Error("expected extinction bookmark when prey die out")
	}
}

func TestBookmarkDetector_NoExtinctionWithoutPopulation(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bookmarks := bd.Check(WindowStats{WindowEndTick: 0})
	if len(bookmarks) != 0 {
		t.Errorf("empty first window should not trigger bookmarks, got %v", bookmarks)
	}
}
