package v4l2

import "testing"

func TestClampToDefaultWithinBounds(t *testing.T) {
	def := Rect{Left: 0, Top: 0, Width: 1920, Height: 1080}
	rect := Rect{Left: 100, Top: 100, Width: 640, Height: 480}

	got := clampToDefault(rect, def)
	if got != rect {
		t.Fatalf("clampToDefault() = %+v, want unchanged %+v", got, rect)
	}
}

func TestClampToDefaultTrimsOverflow(t *testing.T) {
	def := Rect{Left: 0, Top: 0, Width: 640, Height: 480}
	rect := Rect{Left: 500, Top: 400, Width: 640, Height: 480}

	got := clampToDefault(rect, def)
	want := Rect{Left: 500, Top: 400, Width: 140, Height: 80}
	if got != want {
		t.Fatalf("clampToDefault() = %+v, want %+v", got, want)
	}
}

func TestClampToDefaultFullyOutsideYieldsDefault(t *testing.T) {
	def := Rect{Left: 0, Top: 0, Width: 640, Height: 480}
	rect := Rect{Left: 1000, Top: 1000, Width: 100, Height: 100}

	got := clampToDefault(rect, def)
	if got != def {
		t.Fatalf("clampToDefault() = %+v, want default %+v", got, def)
	}
}

func TestClampToDefaultNegativeLeftTopClampedToDefaultOrigin(t *testing.T) {
	def := Rect{Left: 10, Top: 20, Width: 640, Height: 480}
	rect := Rect{Left: -5, Top: -5, Width: 100, Height: 100}

	got := clampToDefault(rect, def)
	want := Rect{Left: 10, Top: 20, Width: 100, Height: 100}
	if got != want {
		t.Fatalf("clampToDefault() = %+v, want %+v", got, want)
	}
}
