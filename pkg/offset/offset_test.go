package offset

import (
	"testing"
)

func TestCandidates(t *testing.T) {
	c := Candidates()
	if len(c) != 25 {
		t.Fatalf("got %d candidates, want 25", len(c))
	}
	for i, o := range c {
		if o != MinOffset+i {
			t.Fatalf("candidate %d = %d, want %d", i, o, MinOffset+i)
		}
	}
}

func TestScore(t *testing.T) {
	t.Run("Empty histogram scores zero", func(t *testing.T) {
		var h [24]int
		for _, o := range Candidates() {
			if fit := Score(h, o); fit.Fraction != 0.0 || fit.Total != 0 {
				t.Errorf("offset %d: got %+v, want zero", o, fit)
			}
		}
	})

	t.Run("Negative offset wraps", func(t *testing.T) {
		// 2 UTC at UTC-5 is 21 local, outside the window.
		// 14 UTC at UTC-5 is 9 local, inside.
		var h [24]int
		h[2] = 1
		h[14] = 3
		fit := Score(h, -5)
		if fit.BusinessPosts != 3 || fit.Total != 4 || fit.Fraction != 0.75 {
			t.Errorf("got %+v, want 3/4", fit)
		}
	})

	t.Run("Window end is exclusive", func(t *testing.T) {
		var h [24]int
		h[17] = 1 // 17 local at UTC+0
		h[9] = 1  // 9 local at UTC+0
		fit := Score(h, 0)
		if fit.BusinessPosts != 1 {
			t.Errorf("got %d business posts, want 1", fit.BusinessPosts)
		}
	})

	t.Run("UTC-12 from 1am", func(t *testing.T) {
		var h [24]int
		h[1] = 5 // 13 local
		if fit := Score(h, -12); fit.Fraction != 1.0 {
			t.Errorf("got %+v, want all posts inside window", fit)
		}
	})
}

func TestScoreBoundsAndExactness(t *testing.T) {
	h := [24]int{3, 0, 7, 1, 0, 0, 2, 9, 4, 4, 1, 0, 13, 5, 8, 2, 0, 0, 6, 3, 1, 0, 2, 11}
	for _, o := range Candidates() {
		fit := Score(h, o)
		if fit.Fraction < 0 || fit.Fraction > 1 {
			t.Errorf("offset %d fraction %v out of [0,1]", o, fit.Fraction)
		}
		if fit.Fraction != float64(fit.BusinessPosts)/float64(fit.Total) {
			t.Errorf("offset %d fraction %v != %d/%d", o, fit.Fraction, fit.BusinessPosts, fit.Total)
		}
	}
}

func TestSelectBest(t *testing.T) {
	t.Run("Perfect 9-5 group at UTC-5", func(t *testing.T) {
		var h [24]int
		// 100 posts over UTC hours 14..21: 12 or 13 per hour.
		for i := range 100 {
			h[14+i%8]++
		}
		best := SelectBest(h)
		if best.Offset != -5 || best.Fraction != 1.0 {
			t.Errorf("got %+v, want offset -5 with score 1.0", best)
		}
	})

	t.Run("Zero posts", func(t *testing.T) {
		var h [24]int
		best := SelectBest(h)
		if best.Offset != -12 || best.Fraction != 0.0 {
			t.Errorf("got %+v, want offset -12 with score 0", best)
		}
	})

	t.Run("Ties go to the lowest offset", func(t *testing.T) {
		// UTC 7 is in the window for +2..+9, UTC 11 for -2..+5,
		// UTC 14 for -5..+2 and UTC 4 for +5..+12. Only +2 and +5
		// cover three of the four posts.
		var h [24]int
		h[7] = 1
		h[11] = 1
		h[14] = 1
		h[4] = 1

		for _, fit := range Sweep(h) {
			switch fit.Offset {
			case 2, 5:
				if fit.Fraction != 0.75 {
					t.Fatalf("offset %d scored %v, want 0.75", fit.Offset, fit.Fraction)
				}
			default:
				if fit.Fraction >= 0.75 {
					t.Fatalf("offset %d scored %v, want less than 0.75", fit.Offset, fit.Fraction)
				}
			}
		}

		best := SelectBest(h)
		if best.Offset != 2 || best.Fraction != 0.75 {
			t.Errorf("got %+v, want offset +2 with score 0.75", best)
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		h := [24]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
		first := SelectBest(h)
		for range 20 {
			if got := SelectBest(h); got != first {
				t.Fatalf("SelectBest changed from %+v to %+v", first, got)
			}
		}
	})
}

func TestRanked(t *testing.T) {
	var h [24]int
	h[7] = 1
	h[11] = 1
	h[14] = 1
	h[4] = 1

	top := Ranked(h, 3)
	if len(top) != 3 {
		t.Fatalf("got %d fits, want 3", len(top))
	}
	if top[0].Offset != 2 || top[1].Offset != 5 {
		t.Errorf("top two = %d, %d; want 2, 5", top[0].Offset, top[1].Offset)
	}
	if top[0] != SelectBest(h) {
		t.Errorf("Ranked first %+v differs from SelectBest", top[0])
	}
	if all := Ranked(h, -1); len(all) != 25 {
		t.Errorf("Ranked(-1) returned %d fits, want 25", len(all))
	}
}
