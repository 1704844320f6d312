package abnormal

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/scanbook/internal/alphabet"
)

func TestCollector_RecordsPagesPerWord(t *testing.T) {
	c := NewCollector(Vocabulary{Known: NewWordSet("hello")}, alphabet.Default)
	c.Scan("hello wrold", 5)

	if got := c.Index().Pages("wrold"); !reflect.DeepEqual(got, []int{5}) {
		t.Fatalf("expected [5], got %v", got)
	}

	c.Scan("Wrold again", 6)
	if got := c.Index().Pages("wrold"); !reflect.DeepEqual(got, []int{5, 6}) {
		t.Errorf("expected [5 6], got %v", got)
	}
}

func TestCollector_NoVocabularyIsNoop(t *testing.T) {
	c := NewCollector(Vocabulary{}, alphabet.Default)
	c.Scan("anything at all", 1)
	if len(c.Index()) != 0 {
		t.Errorf("expected empty index, got %v", c.Index())
	}
	if c.Enabled() {
		t.Error("expected collector to be disabled")
	}
}

func TestCollector_SkipsShortAndKnownWords(t *testing.T) {
	vocab := Vocabulary{
		Known:     NewWordSet("casa"),
		Ignore:    NewWordSet("ibid"),
		Secondary: NewWordSet("the"),
	}
	c := NewCollector(vocab, alphabet.Default)
	c.Scan("a CASA ibid, The x 42 zzz", 3)

	words := c.Index().Words("es")
	if !reflect.DeepEqual(words, []string{"zzz"}) {
		t.Errorf("expected [zzz], got %v", words)
	}
}

func TestTokenize_AccentsAndSeparators(t *testing.T) {
	// The first word uses a combining acute accent.
	got := Tokenize("Cafe\u0301, ÑANDÚ-12años", alphabet.Default)
	want := []string{"café", "ñandú", "años"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIndex_ReportFormat(t *testing.T) {
	idx := Index{}
	idx.Add("zeta", 9)
	idx.Add("alfa", 12)
	idx.Add("alfa", 3)
	idx.Add("alfa", 12)

	lines := idx.Report("es")
	want := []string{"alfa: 3, 12", "zeta: 9"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("expected %v, got %v", want, lines)
	}
	if got := idx.ReportText("es"); got != "alfa: 3, 12\nzeta: 9\n" {
		t.Errorf("unexpected report text %q", got)
	}
}

func TestIndex_ReportIsLocaleAware(t *testing.T) {
	idx := Index{}
	for _, w := range []string{"oso", "ñu", "nube", "árbol", "zorro"} {
		idx.Add(w, 1)
	}
	got := idx.Words("es")
	want := []string{"árbol", "nube", "ñu", "oso", "zorro"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIndex_EmptyReport(t *testing.T) {
	idx := Index{}
	if got := idx.ReportText("es"); got != "" {
		t.Errorf("expected empty report, got %q", got)
	}
}

func TestIndex_ReportHTML(t *testing.T) {
	idx := Index{}
	idx.Add("wrold", 4)
	html, err := idx.ReportHTML("es", "Mi libro")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(html)
	if !strings.Contains(s, "<strong>wrold</strong>: 4") {
		t.Errorf("expected word entry in html, got %s", s)
	}
	if !strings.Contains(s, "<h1>Abnormal words: Mi libro</h1>") {
		t.Errorf("expected heading in html, got %s", s)
	}
}

func TestIndex_ReportHTMLTitleIsLiteral(t *testing.T) {
	html, err := Index{}.ReportHTML("es", "*Cien* años_de_soledad <1967>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(html)
	if strings.Contains(s, "<em>") {
		t.Errorf("expected no emphasis from the title, got %s", s)
	}
	if !strings.Contains(s, "<h1>Abnormal words: *Cien* años_de_soledad &lt;1967&gt;</h1>") {
		t.Errorf("expected literal title in heading, got %s", s)
	}
}
