package service

import "testing"

func TestDiversityCollector_ArtistCap(t *testing.T) {
	c := NewDiversityCollector(20, 2, nil, nil, nil)

	if !c.TryAdd(td("t1", "Song One", "Artist A", 2020)) {
		t.Fatal("first track should be accepted")
	}
	if !c.TryAdd(td("t2", "Song Two", "Artist A", 2020)) {
		t.Fatal("second track by same artist should be accepted at cap 2")
	}
	if c.TryAdd(td("t3", "Song Three", "Artist A", 2020)) {
		t.Error("third track by same artist should be rejected")
	}
	if !c.TryAdd(td("t4", "Song Four", "Artist B", 2020)) {
		t.Error("track by a different artist should be accepted")
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 accepted, got %d", c.Len())
	}
}

func TestDiversityCollector_ArtistCapCaseInsensitive(t *testing.T) {
	c := NewDiversityCollector(20, 1, nil, nil, nil)

	c.TryAdd(td("t1", "Song One", "The Band", 0))
	if c.TryAdd(td("t2", "Song Two", "the band", 0)) {
		t.Error("artist cap should be case-insensitive")
	}
}

func TestDiversityCollector_TitleDedup(t *testing.T) {
	c := NewDiversityCollector(20, 5, nil, nil, nil)

	if !c.TryAdd(td("t1", "Song Name", "Artist A", 0)) {
		t.Fatal("original should be accepted")
	}
	if c.TryAdd(td("t2", "Song Name (Remix)", "Artist B", 0)) {
		t.Error("parenthetical variant should be rejected")
	}
	if c.TryAdd(td("t3", "Song Name - Radio Edit", "Artist C", 0)) {
		t.Error("dash-qualified variant should be rejected")
	}
	if c.TryAdd(td("t4", "song name", "Artist D", 0)) {
		t.Error("case variant should be rejected")
	}
	if !c.TryAdd(td("t5", "Another Song", "Artist B", 0)) {
		t.Error("distinct title should be accepted")
	}
}

func TestDiversityCollector_RejectsSeedsAndDuplicates(t *testing.T) {
	c := NewDiversityCollector(20, 5, []string{"seed1", "seed2"}, nil, nil)

	if c.TryAdd(td("seed1", "Seed Song", "Artist A", 0)) {
		t.Error("seed track id should be rejected")
	}
	if !c.TryAdd(td("t1", "Song One", "Artist A", 0)) {
		t.Fatal("non-seed track should be accepted")
	}
	if c.TryAdd(td("t1", "Song One", "Artist A", 0)) {
		t.Error("duplicate id should be rejected")
	}
	if c.TryAdd(td("", "No ID", "Artist B", 0)) {
		t.Error("empty id should be rejected")
	}
}

func TestDiversityCollector_YearFilter(t *testing.T) {
	minYear, maxYear := 2000, 2010
	c := NewDiversityCollector(20, 5, nil, &minYear, &maxYear)

	if c.TryAdd(td("t1", "Too Old", "Artist A", 1999)) {
		t.Error("track before minYear should be rejected")
	}
	if c.TryAdd(td("t2", "Too New", "Artist B", 2011)) {
		t.Error("track after maxYear should be rejected")
	}
	if !c.TryAdd(td("t3", "In Range", "Artist C", 2005)) {
		t.Error("in-range track should be accepted")
	}
	// Unknown release year passes the filter rather than dropping the track.
	if !c.TryAdd(td("t4", "No Year", "Artist D", 0)) {
		t.Error("track without release year should be accepted")
	}
}

func TestDiversityCollector_Target(t *testing.T) {
	c := NewDiversityCollector(2, 5, nil, nil, nil)

	c.TryAdd(td("t1", "One", "A", 0))
	c.TryAdd(td("t2", "Two", "B", 0))
	if !c.Full() {
		t.Fatal("collector should be full at target")
	}
	if c.TryAdd(td("t3", "Three", "C", 0)) {
		t.Error("track beyond target should be rejected")
	}

	accepted := c.Accepted()
	if len(accepted) != 2 {
		t.Fatalf("expected 2 accepted, got %d", len(accepted))
	}
	if accepted[0].ID != "t1" || accepted[1].ID != "t2" {
		t.Error("accepted tracks should keep acceptance order")
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Song Name", "song name"},
		{"Song Name (Remix)", "song name"},
		{"Song Name - Radio Edit", "song name"},
		{"Song Name (feat. Someone) - Live", "song name"},
		{"  Padded  ", "padded"},
	}
	for _, tc := range cases {
		if got := NormalizeTitle(tc.in); got != tc.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
