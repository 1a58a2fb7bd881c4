package pagination

import (
	"testing"
	"time"
)

func TestSinglePage(t *testing.T) {
	p := NewSinglePage(map[string]any{"param": ""})

	params, ok := p.Next()
	if !ok {
		t.Fatal("Next() ok = false on first call")
	}
	if params["param"] != "" {
		t.Errorf("params = %v, want param present", params)
	}
	p.Observe(16)

	if _, ok := p.Next(); ok {
		t.Error("Next() ok = true after single page")
	}
}

func TestSinglePage_NilParams(t *testing.T) {
	p := NewSinglePage(nil)

	params, ok := p.Next()
	if !ok {
		t.Fatal("Next() ok = false on first call")
	}
	if params == nil {
		t.Error("params = nil, want empty map")
	}
}

func TestSinglePage_CopiesParams(t *testing.T) {
	base := map[string]any{"WithLines": 1}
	p := NewSinglePage(base)

	params, _ := p.Next()
	params["WithLines"] = 2

	if base["WithLines"] != 1 {
		t.Error("Next() returned the underlying params map")
	}
}

func TestPageNumber(t *testing.T) {
	p := NewPageNumber("Page")

	// Three non-empty pages, then an empty one.
	counts := []int{10, 10, 3, 0}
	var pages []int
	for {
		params, ok := p.Next()
		if !ok {
			break
		}
		pages = append(pages, params["Page"].(int))
		p.Observe(counts[len(pages)-1])
	}

	want := []int{1, 2, 3, 4}
	if len(pages) != len(want) {
		t.Fatalf("fetched %d pages, want %d", len(pages), len(want))
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page[%d] = %d, want %d", i, pages[i], want[i])
		}
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewDateWindow_Validation(t *testing.T) {
	start, end := day(2024, 1, 1), day(2024, 3, 31)

	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		interval int
		wantErr  bool
	}{
		{name: "valid", start: start, end: end, interval: 30},
		{name: "interval at cap", start: start, end: end, interval: 90},
		{name: "interval too small", start: start, end: end, interval: 0, wantErr: true},
		{name: "interval over cap", start: start, end: end, interval: 91, wantErr: true},
		{name: "end before start", start: end, end: start, interval: 30, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDateWindow(tt.start, tt.end, tt.interval, DateTypeChanged)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDateWindow() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDateWindow_Windows(t *testing.T) {
	w, err := NewDateWindow(day(2024, 1, 1), day(2024, 2, 14), 30, DateTypeChanged)
	if err != nil {
		t.Fatalf("NewDateWindow() error = %v", err)
	}

	type window struct{ start, end string }
	var got []window
	for {
		params, ok := w.Next()
		if !ok {
			break
		}
		got = append(got, window{params["PeriodStart"].(string), params["PeriodEnd"].(string)})
		if dt := params["DateType"].(int); dt != 1 {
			t.Errorf("DateType = %d, want 1", dt)
		}
		w.Observe(0) // empty windows must not end the traversal
	}

	want := []window{
		{"20240101", "20240130"},
		{"20240131", "20240214"},
	}
	if len(got) != len(want) {
		t.Fatalf("windows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("window[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestDateWindow_SingleDay(t *testing.T) {
	d := day(2024, 3, 7)
	w, err := NewDateWindow(d, d, 7, DateTypeDocument)
	if err != nil {
		t.Fatalf("NewDateWindow() error = %v", err)
	}

	params, ok := w.Next()
	if !ok {
		t.Fatal("Next() ok = false for single-day period")
	}
	if params["PeriodStart"] != "20240307" || params["PeriodEnd"] != "20240307" {
		t.Errorf("params = %v", params)
	}
	w.Observe(5)

	if _, ok := w.Next(); ok {
		t.Error("Next() ok = true after final window")
	}
}

func TestDateWindow_WindowsAreContiguous(t *testing.T) {
	start, end := day(2024, 1, 1), day(2024, 12, 31)
	w, err := NewDateWindow(start, end, 90, DateTypeChanged)
	if err != nil {
		t.Fatalf("NewDateWindow() error = %v", err)
	}

	var prevEnd time.Time
	first := true
	for {
		params, ok := w.Next()
		if !ok {
			break
		}
		ws, _ := time.Parse("20060102", params["PeriodStart"].(string))
		we, _ := time.Parse("20060102", params["PeriodEnd"].(string))

		if first {
			if !ws.Equal(start) {
				t.Errorf("first window starts %v, want %v", ws, start)
			}
			first = false
		} else if !ws.Equal(prevEnd.AddDate(0, 0, 1)) {
			t.Errorf("window start %v not contiguous with previous end %v", ws, prevEnd)
		}
		prevEnd = we
		w.Observe(1)
	}

	if !prevEnd.Equal(end) {
		t.Errorf("last window ends %v, want %v", prevEnd, end)
	}
}
