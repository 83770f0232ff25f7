// pkg/matching/matching.go
package matching

import (
	"strings"

	"github.com/xrash/smetrics"
)

// Similarity возвращает процент совпадения двух строк (0..100) по расстоянию Вагнера–Фишера.
func Similarity(s1, s2 string) int {
	s1 = strings.ToLower(strings.TrimSpace(s1))
	s2 = strings.ToLower(strings.TrimSpace(s2))
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 100
	}
	distance := smetrics.WagnerFischer(s1, s2, 1, 1, 2)
	score := 100 - (distance * 100 / maxLen)
	if score < 0 {
		return 0
	}
	return score
}

// Closest находит наиболее похожий вариант. Для пустого списка возвращает "", 0.
func Closest(name string, options []string) (string, int) {
	best, bestScore := "", 0
	for _, opt := range options {
		if s := Similarity(name, opt); best == "" || s > bestScore {
			best, bestScore = opt, s
		}
	}
	return best, bestScore
}
