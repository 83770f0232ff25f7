// pkg/api/interface.go
package api

import (
	"context"
	"strings"
)

// Kind обозначает поток выдачи каталога, из которого пришёл кандидат.
type Kind string

const (
	KindSong  Kind = "song"
	KindVideo Kind = "video"
)

// SearchService ищет в целевом каталоге. Результаты уже упорядочены
// релевантностью самого сервиса.
type SearchService interface {
	Search(ctx context.Context, query string, kind Kind) ([]Candidate, error)
}

// PlaylistService определяет операции изменения библиотеки в целевом сервисе.
type PlaylistService interface {
	CreatePlaylist(ctx context.Context, name, description string) (string, error)
	AddItems(ctx context.Context, playlistID string, ids []string) (Outcome, error)
	RateLike(ctx context.Context, videoID string) error
	ItemCount(ctx context.Context, playlistID string) (int64, error)
}

// SourceTrack описывает трек из экспорта, который переносим.
type SourceTrack struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
}

// DisplayName используется и как текст запроса, и как сторона сравнения.
func (t SourceTrack) DisplayName() string {
	return t.Title + " " + strings.Join(t.Artists, ", ")
}

type Artist struct {
	Name string `json:"name"`
}

type Album struct {
	Name string `json:"name"`
}

// Candidate описывает запись каталога из выдачи поиска. Отсутствующие поля равны nil.
type Candidate struct {
	Kind     Kind     `json:"kind"`
	ID       *string  `json:"id,omitempty"`
	Title    string   `json:"title"`
	Artists  []Artist `json:"artists"`
	Album    *Album   `json:"album,omitempty"`
	Duration *string  `json:"duration,omitempty"`
}

// VideoID возвращает идентификатор, если по записи можно что-то сделать.
func (c Candidate) VideoID() (string, bool) {
	if c.ID == nil || *c.ID == "" {
		return "", false
	}
	return *c.ID, true
}

func (c Candidate) ArtistNames() []string {
	names := make([]string, 0, len(c.Artists))
	for _, a := range c.Artists {
		names = append(names, a.Name)
	}
	return names
}

func (c Candidate) AlbumName(fallback string) string {
	if c.Album == nil || c.Album.Name == "" {
		return fallback
	}
	return c.Album.Name
}

func (c Candidate) DurationText(fallback string) string {
	if c.Duration == nil || *c.Duration == "" {
		return fallback
	}
	return *c.Duration
}

// RankedResults хранит итоговый список кандидатов; индекс 0 показывается первым.
type RankedResults []Candidate

// Outcome хранит результат добавления элементов в плейлист.
type Outcome struct {
	Added  []string
	Failed []string
}

// StringPtr нужен для необязательных полей.
func StringPtr(s string) *string { return &s }
