package analyzer

import (
	"strings"
	"testing"
)

// benchmarkContent generates a realistic article body for benchmarking.
func benchmarkContent(size int) string {
	sb := strings.Builder{}
	sb.Grow(size)

	paragraphs := []string{
		"The global fintech market size was valued at $2.5 billion in 2023 and is expected to grow at a CAGR of 18%.",
		"Customer demand for embedded payments is a key driver of adoption among mid-market businesses.",
		"Competitors include Stripe, Adyen and Square, which together hold a significant market share.",
		"Regulatory compliance remains a major challenge for new entrants in the payments sector.",
		"Emerging trends such as open banking and real-time settlement point to further innovation.",
	}

	for sb.Len() < size {
		for _, p := range paragraphs {
			sb.WriteString(p)
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func BenchmarkFindTermMatches_SmallContent(b *testing.B) {
	content := benchmarkContent(1024)
	terms := []string{"fintech", "payments", "open banking", "compliance"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, "https://example.com/blog/test", "example.com", terms)
	}
}

func BenchmarkFindTermMatches_LargeContent(b *testing.B) {
	content := benchmarkContent(100 * 1024)
	terms := []string{"fintech", "payments", "open banking", "compliance", "market share", "innovation"}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		FindTermMatches(content, "https://example.com/blog/test", "example.com", terms)
	}
}

func BenchmarkSplit(b *testing.B) {
	content := benchmarkContent(50 * 1024)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		Split(content)
	}
}

func BenchmarkKeyPoints(b *testing.B) {
	content := benchmarkContent(50 * 1024)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		KeyPoints(content)
	}
}

func TestFindTermMatchesBasic(t *testing.T) {
	content := "Fintech adoption is rising. Fintech startups raised funds. Compliance is important."
	terms := []string{"fintech", "compliance", "absent"}

	results := FindTermMatches(content, "https://example.com", "example.com", terms)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Term != "fintech" || results[0].Count != 2 || len(results[0].Sentences) != 2 {
		t.Errorf("fintech: unexpected match %+v", results[0])
	}
	if results[1].Term != "compliance" || results[1].Count != 1 {
		t.Errorf("compliance: unexpected match %+v", results[1])
	}
	if results[1].Sentences[0] != "Compliance is important." {
		t.Errorf("expected original sentence, got %q", results[1].Sentences[0])
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"First sentence. Second one! Third?", []string{"First sentence.", "Second one!", "Third?"}},
		{"Valued at $2.5 billion. Growing fast", []string{"Valued at $2.5 billion.", "Growing fast"}},
		{"Wait... what?! Yes.", []string{"Wait...", "what?!", "Yes."}},
		{"   ", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := Texts(Split(tt.in))
		if len(got) != len(tt.want) {
			t.Errorf("Split(%q) = %q, want %q", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Split(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestWindow(t *testing.T) {
	text := "0123456789"
	if got := Window(text, 5, 2, 3); got != "34567" {
		t.Errorf("Window() = %q", got)
	}
	if got := Window(text, 1, 100, 100); got != text {
		t.Errorf("Window() should clamp, got %q", got)
	}
	// Never splits a multi-byte rune.
	if got := Window("aé b", 2, 0, 1); got != "é" {
		t.Errorf("Window() = %q, want %q", got, "é")
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"a"}, 3, "b", "a", "", "c", "d")
	want := []string{"a", "b", "c"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Unique() = %v, want %v", got, want)
	}
}

func TestKeyPoints(t *testing.T) {
	text := "Short one. " +
		"According to the report, the market grew by 12% last year as buyers moved online. " +
		"This sentence is long enough to qualify but carries no signal at all whatsoever. "
	got := KeyPoints(text)
	if len(got) != 1 || !strings.HasPrefix(got[0], "According to the report") {
		t.Errorf("KeyPoints() = %q", got)
	}
}

func TestKeySentences(t *testing.T) {
	long := "The market size for embedded finance products has expanded quickly across North America and Europe over the last five years."
	got := KeySentences("Too short about market size. " + long)
	if len(got) != 1 || got[0] != long {
		t.Errorf("KeySentences() = %q", got)
	}
}
