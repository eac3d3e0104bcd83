package chunking

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

func TestNewSplitterRejectsBadParameters(t *testing.T) {
	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -1, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSplitter(tc.size, tc.overlap)
			if err == nil {
				t.Fatalf("expected error for size=%d overlap=%d", tc.size, tc.overlap)
			}
			if !domain.IsKind(err, domain.ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestSplitScenario2400Chars(t *testing.T) {
	splitter, err := NewSplitter(1000, 200)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}

	text := strings.Repeat("a", 2400)
	chunks, err := splitter.Split("d1", text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	wantOffsets := [][2]int{{0, 1000}, {800, 1800}, {1600, 2400}}
	for i, want := range wantOffsets {
		if chunks[i].Start != want[0] || chunks[i].End != want[1] {
			t.Fatalf("chunk %d offsets = [%d,%d), want [%d,%d)", i, chunks[i].Start, chunks[i].End, want[0], want[1])
		}
		if chunks[i].ID != domain.ChunkID("d1", i) {
			t.Fatalf("chunk %d id = %s", i, chunks[i].ID)
		}
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	splitter, err := NewSplitter(50, 10)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}

	text := strings.Repeat("insurance policy clause text. ", 20)
	first, err := splitter.Split("doc", text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	second, err := splitter.Split("doc", text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !reflect.DeepEqual(first[i], second[i]) {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitCoversFullTextWithoutGaps(t *testing.T) {
	splitter, err := NewSplitter(37, 9)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}

	text := strings.Repeat("клаузула policy текст ", 41)
	runes := []rune(text)
	chunks, err := splitter.Split("doc", text)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) == 0 {
		t.Fatalf("expected chunks")
	}

	if chunks[0].Start != 0 {
		t.Fatalf("first chunk starts at %d", chunks[0].Start)
	}
	if chunks[len(chunks)-1].End != len(runes) {
		t.Fatalf("last chunk ends at %d, want %d", chunks[len(chunks)-1].End, len(runes))
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Start > chunks[i-1].End {
			t.Fatalf("gap between chunk %d and %d", i-1, i)
		}
		if got := chunks[i-1].End - chunks[i].Start; got != splitter.Overlap {
			t.Fatalf("overlap at boundary %d = %d, want %d", i, got, splitter.Overlap)
		}
		if chunks[i].Text != string(runes[chunks[i].Start:chunks[i].End]) {
			t.Fatalf("chunk %d text does not match its offsets", i)
		}
	}
}

func TestSplitEmptyTextYieldsNoChunks(t *testing.T) {
	splitter, err := NewSplitter(100, 20)
	if err != nil {
		t.Fatalf("NewSplitter() error = %v", err)
	}
	chunks, err := splitter.Split("doc", "")
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}
