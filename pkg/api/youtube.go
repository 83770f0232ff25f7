// pkg/api/youtube.go
package api

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const defaultPrivacy = "private"

// YouTubeService изменяет библиотеку пользователя через YouTube Data API.
type YouTubeService struct {
	svc     *youtube.Service
	privacy string
}

// NewYouTubeService создаёт сервис поверх уже авторизованного HTTP-клиента.
func NewYouTubeService(ctx context.Context, httpClient *http.Client, privacy string, opts ...option.ClientOption) (*YouTubeService, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания YouTube сервиса: %w", err)
	}
	if privacy == "" {
		privacy = defaultPrivacy
	}
	return &YouTubeService{svc: svc, privacy: privacy}, nil
}

// CreatePlaylist создаёт пустой плейлист и возвращает его идентификатор.
func (s *YouTubeService) CreatePlaylist(ctx context.Context, name, description string) (string, error) {
	pl := &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       name,
			Description: description,
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: s.privacy},
	}
	created, err := s.svc.Playlists.Insert([]string{"snippet", "status"}, pl).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("ошибка создания плейлиста %q: %w", name, err)
	}
	return created.Id, nil
}

// AddItems добавляет видео по одному; ошибка возвращается только если не добавлено ничего.
func (s *YouTubeService) AddItems(ctx context.Context, playlistID string, ids []string) (Outcome, error) {
	var out Outcome
	var lastErr error
	for _, videoID := range ids {
		item := &youtube.PlaylistItem{
			Snippet: &youtube.PlaylistItemSnippet{
				PlaylistId: playlistID,
				ResourceId: &youtube.ResourceId{
					Kind:    "youtube#video",
					VideoId: videoID,
				},
			},
		}
		if _, err := s.svc.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
			out.Failed = append(out.Failed, videoID)
			lastErr = err
			continue
		}
		out.Added = append(out.Added, videoID)
	}
	if len(out.Added) == 0 && lastErr != nil {
		return out, fmt.Errorf("ошибка добавления видео: %w", lastErr)
	}
	return out, nil
}

// RateLike ставит «нравится», видео попадает в Liked Music.
func (s *YouTubeService) RateLike(ctx context.Context, videoID string) error {
	if err := s.svc.Videos.Rate(videoID, "like").Context(ctx).Do(); err != nil {
		return fmt.Errorf("ошибка оценки видео %s: %w", videoID, err)
	}
	return nil
}

// ItemCount возвращает фактическое число элементов плейлиста.
func (s *YouTubeService) ItemCount(ctx context.Context, playlistID string) (int64, error) {
	resp, err := s.svc.Playlists.List([]string{"contentDetails"}).Id(playlistID).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil {
		return 0, fmt.Errorf("плейлист %s не найден", playlistID)
	}
	return resp.Items[0].ContentDetails.ItemCount, nil
}
