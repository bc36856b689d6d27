package container

import "testing"

type item struct {
	id       string
	released bool
}

func newIntContainer() *Container[*item] {
	return New(Params[*item]{
		Compare: func(e *item, key any) bool { return e.id == key.(string) },
		Release: func(e *item) { e.released = true },
	})
}

func TestAddAndNbElements(t *testing.T) {
	c := newIntContainer()
	unlock := c.Lock()
	c.Add(&item{id: "a"})
	c.Add(&item{id: "b"})
	n := c.NbElements()
	unlock()

	if n != 2 {
		t.Fatalf("NbElements() = %d, want 2", n)
	}
}

func TestRemoveFoundAndNotFound(t *testing.T) {
	c := newIntContainer()
	a := &item{id: "a"}
	unlock := c.Lock()
	c.Add(a)
	c.Add(&item{id: "b"})
	unlock()

	unlock = c.Lock()
	ok := c.Remove("a")
	n := c.NbElements()
	unlock()

	if !ok {
		t.Fatal("Remove(\"a\") = false, want true")
	}
	if n != 1 {
		t.Fatalf("NbElements() after remove = %d, want 1", n)
	}
	if !a.released {
		t.Fatal("Release callback was not invoked on removed element")
	}

	unlock = c.Lock()
	ok = c.Remove("missing")
	unlock()
	if ok {
		t.Fatal("Remove(\"missing\") = true, want false")
	}
}

func TestRemoveFromEmpty(t *testing.T) {
	c := newIntContainer()
	unlock := c.Lock()
	ok := c.Remove("anything")
	unlock()
	if ok {
		t.Fatal("Remove on empty container = true, want false")
	}
}

func TestRemoveAll(t *testing.T) {
	c := newIntContainer()
	items := []*item{{id: "a"}, {id: "b"}, {id: "c"}}
	unlock := c.Lock()
	for _, it := range items {
		c.Add(it)
	}
	c.RemoveAll()
	n := c.NbElements()
	unlock()

	if n != 0 {
		t.Fatalf("NbElements() after RemoveAll = %d, want 0", n)
	}
	for _, it := range items {
		if !it.released {
			t.Fatalf("element %s not released by RemoveAll", it.id)
		}
	}
}

// TestGetElementCursorOrderAndReset verifies the cursor walks elements in
// insertion order within one Lock/Unlock bracket, and that a fresh Lock
// resets it to the head again (P6: add/remove symmetry plus a stable browse
// order is relied on by the listener container during frame delivery).
func TestGetElementCursorOrderAndReset(t *testing.T) {
	c := newIntContainer()
	unlock := c.Lock()
	c.Add(&item{id: "a"})
	c.Add(&item{id: "b"})
	c.Add(&item{id: "c"})
	unlock()

	unlock = c.Lock()
	var got []string
	for {
		e, ok := c.GetElement()
		if !ok {
			break
		}
		got = append(got, e.id)
		if len(got) == 3 {
			break
		}
	}
	unlock()

	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	// A fresh Lock must reset the cursor back to the head.
	unlock = c.Lock()
	first, ok := c.GetElement()
	unlock()
	if !ok || first.id != "a" {
		t.Fatalf("cursor not reset after new Lock: got %v, ok=%v", first, ok)
	}
}

func TestGetElementOnEmpty(t *testing.T) {
	c := newIntContainer()
	unlock := c.Lock()
	_, ok := c.GetElement()
	unlock()
	if ok {
		t.Fatal("GetElement on empty container returned ok=true")
	}
}

func TestBrowseElementsOrderAndUserData(t *testing.T) {
	c := newIntContainer()
	unlock := c.Lock()
	c.Add(&item{id: "a"})
	c.Add(&item{id: "b"})
	unlock()

	var visited []string
	var seenUserData []any
	unlock = c.Lock()
	c.params.Browse = func(e *item, userData any) {
		visited = append(visited, e.id)
		seenUserData = append(seenUserData, userData)
	}
	c.BrowseElements("marker")
	unlock()

	if len(visited) != 2 || visited[0] != "a" || visited[1] != "b" {
		t.Fatalf("BrowseElements visited %v, want [a b]", visited)
	}
	for _, ud := range seenUserData {
		if ud != "marker" {
			t.Fatalf("BrowseElements userData = %v, want \"marker\"", ud)
		}
	}
}

func TestBrowseElementsNilCallbackIsNoop(t *testing.T) {
	c := New[*item](Params[*item]{})
	unlock := c.Lock()
	c.Add(&item{id: "a"})
	c.BrowseElements(nil)
	unlock()
}
