package sleep

import "testing"

func TestQuietest(t *testing.T) {
	tests := []struct {
		name   string
		counts func() [24]int
		want   Window
		ok     bool
	}{
		{
			name: "too little data",
			counts: func() [24]int {
				var c [24]int
				c[10] = 5
				return c
			},
			ok: false,
		},
		{
			name: "silent night wrapping midnight",
			counts: func() [24]int {
				var c [24]int
				for h := range 24 {
					c[h] = 10
				}
				// 22:00 through 05:59 UTC are silent.
				for _, h := range []int{22, 23, 0, 1, 2, 3, 4, 5} {
					c[h] = 0
				}
				return c
			},
			want: Window{StartUTC: 22, Hours: 8, Posts: 0},
			ok:   true,
		},
		{
			name: "quiet afternoon with stray posts",
			counts: func() [24]int {
				var c [24]int
				for h := range 24 {
					c[h] = 20
				}
				for h := 12; h < 18; h++ {
					c[h] = 1
				}
				return c
			},
			want: Window{StartUTC: 12, Hours: 6, Posts: 6},
			ok:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quietest(tt.counts())
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Quietest = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWindowHours(t *testing.T) {
	w := Window{StartUTC: 22, Hours: 8}
	for _, h := range []int{22, 23, 0, 5} {
		if !w.Contains(h) {
			t.Errorf("Contains(%d) = false", h)
		}
	}
	for _, h := range []int{6, 12, 21} {
		if w.Contains(h) {
			t.Errorf("Contains(%d) = true", h)
		}
	}
	if (Window{}).Contains(0) {
		t.Error("zero window contains nothing")
	}
	if got := w.LocalStart(3); got != 1 {
		t.Errorf("LocalStart(+3) = %d, want 1", got)
	}
	if got := w.LocalEnd(3); got != 9 {
		t.Errorf("LocalEnd(+3) = %d, want 9", got)
	}
}
