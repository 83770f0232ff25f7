// pkg/api/ytmusic.go
package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/raitonoberu/ytmusic"
	"github.com/tidwall/gjson"
)

// searchPage возвращает первую страницу выдачи ytmusic для запроса.
type searchPage func(query string) (any, error)

// YTMusicSearch ищет песни и видео в YouTube Music.
type YTMusicSearch struct {
	pages map[Kind]searchPage
}

func NewYTMusicSearch() *YTMusicSearch {
	return &YTMusicSearch{
		pages: map[Kind]searchPage{
			KindSong: func(q string) (any, error) {
				return ytmusic.TrackSearch(q).Next()
			},
			KindVideo: func(q string) (any, error) {
				return ytmusic.VideoSearch(q).Next()
			},
		},
	}
}

// Search выполняет запрос в указанном потоке. Библиотека не принимает контекст,
// поэтому отмена проверяется до запроса.
func (s *YTMusicSearch) Search(ctx context.Context, query string, kind Kind) ([]Candidate, error) {
	page, ok := s.pages[kind]
	if !ok {
		return nil, fmt.Errorf("неизвестный тип поиска: %s", kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := page(query)
	if err != nil {
		return nil, fmt.Errorf("ytmusic: %w", err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return parseCandidates(raw, kind), nil
}

func resultPath(kind Kind) string {
	if kind == KindVideo {
		return "videos"
	}
	return "tracks"
}

// parseCandidates разбирает JSON страницы выдачи в кандидатов.
func parseCandidates(raw []byte, kind Kind) []Candidate {
	items := gjson.GetBytes(raw, resultPath(kind)).Array()
	out := make([]Candidate, 0, len(items))
	for _, item := range items {
		c := Candidate{
			Kind:  kind,
			Title: item.Get("title").String(),
		}
		if id := item.Get("videoId").String(); id != "" {
			c.ID = StringPtr(id)
		}
		for _, name := range item.Get("artists.#.name").Array() {
			c.Artists = append(c.Artists, Artist{Name: name.String()})
		}
		if album := item.Get("album.name"); album.Exists() && album.String() != "" {
			c.Album = &Album{Name: album.String()}
		}
		if d := formatDuration(item.Get("duration")); d != "" {
			c.Duration = StringPtr(d)
		}
		out = append(out, c)
	}
	return out
}

// formatDuration переводит секунды в m:ss, строку оставляет как есть.
func formatDuration(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		sec := v.Int()
		if sec <= 0 {
			return ""
		}
		if sec >= 3600 {
			return fmt.Sprintf("%d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
		}
		return fmt.Sprintf("%d:%02d", sec/60, sec%60)
	case gjson.String:
		return v.String()
	default:
		return ""
	}
}
