// pkg/sync/chooser.go
package sync

import (
	"context"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/Clean1ines/sp2ytm/pkg/api"
)

// Skip означает выбор «пропустить трек».
const Skip = -1

const promptMessage = "Select song number to add to playlist (or press Enter to skip):"

// Chooser выбирает индекс кандидата для трека. Индекс вне диапазона считается неверным выбором.
type Chooser interface {
	Choose(ctx context.Context, track api.SourceTrack, results api.RankedResults) (int, error)
}

// ChooserFunc позволяет использовать функцию как Chooser.
type ChooserFunc func(ctx context.Context, track api.SourceTrack, results api.RankedResults) (int, error)

func (f ChooserFunc) Choose(ctx context.Context, track api.SourceTrack, results api.RankedResults) (int, error) {
	return f(ctx, track, results)
}

// PromptChooser спрашивает номер в терминале.
type PromptChooser struct {
	ask func(message string) (string, error)
}

func NewPromptChooser() *PromptChooser {
	return &PromptChooser{ask: askSurvey}
}

func askSurvey(message string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message}, &answer)
	return answer, err
}

func (c *PromptChooser) Choose(ctx context.Context, _ api.SourceTrack, _ api.RankedResults) (int, error) {
	if err := ctx.Err(); err != nil {
		return Skip, err
	}
	answer, err := c.ask(promptMessage)
	if err != nil {
		return Skip, err
	}
	return ParseChoice(answer), nil
}

// ParseChoice переводит ответ пользователя в индекс: пустая строка и не-цифры означают Skip.
func ParseChoice(answer string) int {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return Skip
	}
	for _, r := range answer {
		if r < '0' || r > '9' {
			return Skip
		}
	}
	n, err := strconv.Atoi(answer)
	if err != nil {
		// слишком длинное число заведомо вне диапазона
		return int(^uint(0) >> 1)
	}
	return n
}
