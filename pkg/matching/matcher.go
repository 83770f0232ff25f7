// pkg/matching/matcher.go
package matching

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/Clean1ines/sp2ytm/pkg/api"
)

// Весовые коэффициенты: название и исполнители важнее общей строки.
const (
	titleWeight  = 0.4
	artistWeight = 0.4
	fullWeight   = 0.2
)

// Incomparable возвращается для отсутствующего кандидата и всегда ниже любой оценки.
const Incomparable = -1.0

// Score возвращает релевантность кандидата исходному треку в [0,1].
func Score(src api.SourceTrack, c *api.Candidate) float64 {
	if c == nil {
		return Incomparable
	}
	srcTitle := strings.ToLower(src.Title)
	srcArtists := strings.ToLower(strings.Join(src.Artists, ", "))
	candTitle := strings.ToLower(c.Title)
	candArtists := strings.ToLower(strings.Join(c.ArtistNames(), ", "))

	titleSim := Jaccard(WordSet(srcTitle), WordSet(candTitle))
	artistSim := Jaccard(WordSet(srcArtists), WordSet(candArtists))
	fullSim := SequenceRatio(srcTitle+" "+srcArtists, candTitle+" "+candArtists)

	return titleWeight*titleSim + artistWeight*artistSim + fullWeight*fullSim
}

// WordSet разбивает строку по пробельным символам.
func WordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// Jaccard: |A∩B| / |A∪B|; для пустого объединения 0.
func Jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// SequenceRatio считает посимвольный ratio по самым длинным совпадающим блокам
// 2*M / (len(a)+len(b)), 1 для двух пустых строк.
func SequenceRatio(a, b string) float64 {
	m := difflib.NewMatcher(splitChars(a), splitChars(b))
	return m.Ratio()
}

func splitChars(s string) []string {
	chars := make([]string, 0, len(s))
	for _, r := range s {
		chars = append(chars, string(r))
	}
	return chars
}
