package sync

import (
	"fmt"
	"strings"
	"time"
)

// PlaylistReport хранит итог переноса одного плейлиста или Liked Music.
type PlaylistReport struct {
	Name       string   `json:"name"`
	PlaylistID string   `json:"playlist_id,omitempty"`
	Tracks     int      `json:"tracks"`
	Local      int      `json:"local"`
	Stats      Stats    `json:"stats"`
	Added      []string `json:"added,omitempty"`
	Failed     []string `json:"failed,omitempty"`
	Actual     int64    `json:"actual"`
	Verified   bool     `json:"verified"`
	Error      string   `json:"error,omitempty"`
}

// Report хранит итог одного запуска.
type Report struct {
	ID         string           `json:"id"`
	Mode       Mode             `json:"mode"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Playlists  []PlaylistReport `json:"playlists"`
	Liked      *PlaylistReport  `json:"liked,omitempty"`
}

// Summary возвращает короткий текст для консоли и Telegram.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Запуск %s (%s)\n", r.ID, r.Mode)
	all := r.Playlists
	if r.Liked != nil {
		all = append(append([]PlaylistReport{}, all...), *r.Liked)
	}
	for _, p := range all {
		fmt.Fprintf(&b, "• %s: выбрано %d из %d, добавлено %d", p.Name, p.Stats.Selected, p.Tracks, len(p.Added))
		if len(p.Failed) > 0 {
			fmt.Fprintf(&b, ", ошибок %d", len(p.Failed))
		}
		if p.Error != "" {
			fmt.Fprintf(&b, " (ошибка: %s)", p.Error)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
