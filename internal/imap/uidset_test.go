package imap

import "testing"

func TestUIDSetRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   []uint32
		want string
	}{
		{"single", []uint32{5}, "5"},
		{"contiguous run", []uint32{1, 2, 3, 4, 5}, "1:5"},
		{"mixed", []uint32{1, 2, 3, 7, 10, 11}, "1:3,7,10:11"},
		{"dedup and unordered", []uint32{5, 3, 5, 4, 3}, "3:5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewUIDSet(tt.in...)
			if got := s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseUIDSet(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1:5,7,10:*", want: "1:5,7,10:*"},
		{in: "304,319:320", want: "304,319:320"},
		{in: "42", want: "42"},
		{in: "5:1", want: "1:5"}, // reversed range is normalised
		{in: "", wantErr: true},
		{in: "1,,2", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := ParseUIDSet(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseUIDSet(%q): %v", tt.in, err)
			}
			if got := s.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUIDSetContainsAndEach(t *testing.T) {
	s := NewUIDSet(1, 2, 3, 10)
	if !s.Contains(2) || s.Contains(5) {
		t.Fatalf("Contains behaved unexpectedly")
	}
	var got []uint32
	s.Each(func(id uint32) { got = append(got, id) })
	want := []uint32{1, 2, 3, 10}
	if len(got) != len(want) {
		t.Fatalf("Each produced %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each produced %v, want %v", got, want)
		}
	}
}

func TestUIDSetWithStar(t *testing.T) {
	s := NewUIDSet(1, 2).WithStar(10)
	if got := s.String(); got != "1:2,10:*" {
		t.Fatalf("String() = %q", got)
	}
	if !s.Contains(500) {
		t.Fatal("open-ended range should contain any id >= its start")
	}
}

func TestEnumerateSubsets(t *testing.T) {
	// Non-contiguous ids don't range-compress, so each token ("1", "3", "5", ...)
	// stays separate and a tight byte budget forces multiple chunks.
	ids := make([]uint32, 0, 50)
	for id := uint32(1); id <= 100; id += 2 {
		ids = append(ids, id)
	}
	s := NewUIDSet(ids...)
	chunks := EnumerateSubsets(s, 10)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for a tight budget, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.String()) > 10 {
			t.Errorf("chunk %q exceeds budget of 10 bytes", c.String())
		}
	}

	// The union of every chunk must reconstruct the full set's membership.
	seen := make(map[uint32]bool)
	for _, c := range chunks {
		c.Each(func(id uint32) { seen[id] = true })
	}
	for _, id := range ids {
		if !seen[id] {
			t.Fatalf("uid %d missing from chunked output", id)
		}
	}
}

func TestEnumerateSubsetsEmpty(t *testing.T) {
	if got := EnumerateSubsets(UIDSet{}, 100); got != nil {
		t.Fatalf("expected nil for empty set, got %v", got)
	}
}
