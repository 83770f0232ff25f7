// pkg/sync/sync.go
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Clean1ines/sp2ytm/pkg/api"
	"github.com/Clean1ines/sp2ytm/pkg/export"
	"github.com/Clean1ines/sp2ytm/pkg/logging"
)

// Mode задаёт режим выбора треков.
type Mode string

const (
	ModeAdd     Mode = "add"
	ModeAutoAdd Mode = "auto-add"
	ModeDryRun  Mode = "dry-run"
)

const (
	DefaultSuffix     = " (from Spotify)"
	DefaultAttempts   = 3
	DefaultRetryDelay = 500 * time.Millisecond
)

var (
	ErrNoChooser   = errors.New("интерактивный режим требует способ выбора")
	ErrUnknownMode = errors.New("неизвестный режим")
)

// ParseMode проверяет имя режима.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAdd, ModeAutoAdd, ModeDryRun:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Resolver ищет ранжированных кандидатов для трека.
type Resolver interface {
	Resolve(ctx context.Context, src api.SourceTrack) (api.RankedResults, error)
}

// ReportSink сохраняет отчёт о запуске.
type ReportSink interface {
	SaveReport(ctx context.Context, id string, report any) error
}

// Notifier отправляет итог запуска пользователю.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Stats хранит счётчики этапа выбора.
type Stats struct {
	Searched  int `json:"searched"`
	Selected  int `json:"selected"`
	NoResults int `json:"no_results"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Syncer переносит плейлисты выгрузки в целевой сервис.
type Syncer struct {
	resolver  Resolver
	playlists api.PlaylistService
	chooser   Chooser
	sink      ReportSink
	notifier  Notifier
	out       io.Writer
	logger    *logging.Logger

	suffix   string
	attempts int
	delay    time.Duration
}

type Option func(*Syncer)

func WithChooser(c Chooser) Option { return func(s *Syncer) { s.chooser = c } }

func WithReportSink(sink ReportSink) Option { return func(s *Syncer) { s.sink = sink } }

func WithNotifier(n Notifier) Option { return func(s *Syncer) { s.notifier = n } }

func WithOutput(w io.Writer) Option { return func(s *Syncer) { s.out = w } }

func WithLogger(l *logging.Logger) Option { return func(s *Syncer) { s.logger = l } }

func WithSuffix(suffix string) Option { return func(s *Syncer) { s.suffix = suffix } }

// WithAddRetry задаёт число попыток добавления и фиксированную паузу между ними.
func WithAddRetry(attempts int, delay time.Duration) Option {
	return func(s *Syncer) {
		if attempts > 0 {
			s.attempts = attempts
		}
		if delay >= 0 {
			s.delay = delay
		}
	}
}

func New(r Resolver, p api.PlaylistService, opts ...Option) *Syncer {
	s := &Syncer{
		resolver:  r,
		playlists: p,
		out:       os.Stdout,
		logger:    logging.Nop(),
		suffix:    DefaultSuffix,
		attempts:  DefaultAttempts,
		delay:     DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Syncer) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Syncer) checkMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	if mode == ModeAdd && s.chooser == nil {
		return ErrNoChooser
	}
	return nil
}

// SelectTracks ищет каждый трек и выбирает кандидата согласно режиму.
// Ошибки отдельных треков не прерывают обход; прерывают только отмена контекста и ошибка выбора.
func (s *Syncer) SelectTracks(ctx context.Context, mode Mode, tracks []api.SourceTrack) ([]string, Stats, error) {
	return s.selectTracks(ctx, mode, tracks, nil, len(tracks))
}

// selectTracks нумерует треки по positions (номер в исходном плейлисте из total), если они заданы.
func (s *Syncer) selectTracks(ctx context.Context, mode Mode, tracks []api.SourceTrack, positions []int, total int) ([]string, Stats, error) {
	var stats Stats
	if err := s.checkMode(mode); err != nil {
		return nil, stats, err
	}
	var ids []string
	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return ids, stats, err
		}
		pos := i + 1
		if positions != nil {
			pos = positions[i]
		}
		artists := strings.Join(track.Artists, ", ")
		if mode == ModeDryRun {
			s.printf("\n🔍 [%d/%d] %s – %s\n", pos, total, track.Title, artists)
		} else {
			s.printf("\n🔍 [%d/%d] Searching: %s – %s\n", pos, total, track.Title, artists)
		}
		stats.Searched++

		results, err := s.resolver.Resolve(ctx, track)
		if err != nil {
			if ctx.Err() != nil {
				return ids, stats, ctx.Err()
			}
			s.logger.Warnf("Ошибка поиска %q: %v", track.DisplayName(), err)
			s.printf("❌ Search failed: %v\n", err)
			stats.Failed++
			continue
		}
		if len(results) == 0 {
			s.printf("❌ No results found.\n")
			stats.NoResults++
			continue
		}
		s.printf("%s\n", RenderCandidates(results))

		switch mode {
		case ModeDryRun:
			continue
		case ModeAutoAdd:
			first := results[0]
			id, ok := first.VideoID()
			if !ok {
				s.printf("⚠️ First result has no videoId.\n")
				stats.Skipped++
				continue
			}
			ids = append(ids, id)
			stats.Selected++
			s.printf("✅ Auto-selected: %s – %s\n", first.Title, strings.Join(first.ArtistNames(), ", "))
		case ModeAdd:
			idx, err := s.chooser.Choose(ctx, track, results)
			if err != nil {
				return ids, stats, fmt.Errorf("ошибка выбора для %q: %w", track.DisplayName(), err)
			}
			switch {
			case idx == Skip:
				s.printf("⏭ Skipped.\n")
				stats.Skipped++
			case idx < 0 || idx >= len(results):
				s.printf("⚠️ Invalid choice.\n")
				stats.Skipped++
			default:
				id, ok := results[idx].VideoID()
				if !ok {
					s.printf("⚠️ No videoId found.\n")
					stats.Skipped++
					continue
				}
				ids = append(ids, id)
				stats.Selected++
				s.printf("✅ Selected: %s\n", results[idx].Title)
			}
		}
	}
	return ids, stats, nil
}

// MigratePlaylist переносит один плейлист: выбор, создание, добавление и проверка числа элементов.
func (s *Syncer) MigratePlaylist(ctx context.Context, mode Mode, pl export.Playlist) (PlaylistReport, error) {
	rep := PlaylistReport{Name: pl.Name, Tracks: len(pl.Tracks)}
	if mode == ModeDryRun {
		s.printf("\n📝 Simulating playlist: %s\n", pl.Name)
	} else {
		s.printf("\n📝 Processing playlist: %s\n", pl.Name)
	}
	s.printf("   Description: %s\n   Number of tracks: %d\n", pl.Description, len(pl.Tracks))

	tracks := make([]api.SourceTrack, 0, len(pl.Tracks))
	positions := make([]int, 0, len(pl.Tracks))
	for i, it := range pl.Tracks {
		if it.Local() {
			s.printf("⏭ Skipping local track: %s\n", it.Name())
			rep.Local++
			continue
		}
		tracks = append(tracks, it.SourceTrack())
		positions = append(positions, i+1)
	}

	ids, stats, err := s.selectTracks(ctx, mode, tracks, positions, len(pl.Tracks))
	rep.Stats = stats
	if err != nil {
		rep.Error = err.Error()
		return rep, err
	}
	if mode == ModeDryRun {
		return rep, nil
	}
	if len(ids) == 0 {
		s.printf("⏭ No valid songs found, skipping playlist creation\n")
		return rep, nil
	}

	s.printf("\n📦 Creating playlist with %d songs...\n", len(ids))
	playlistID, err := s.playlists.CreatePlaylist(ctx, pl.Name+s.suffix, pl.Description)
	if err != nil {
		s.printf("❌ Failed to create playlist '%s'\n", pl.Name)
		rep.Error = err.Error()
		return rep, err
	}
	rep.PlaylistID = playlistID
	s.printf("✅ Created empty playlist: %s\n", playlistID)

	rep.Added, rep.Failed = s.addWithRetry(ctx, playlistID, ids)
	s.printf("Total songs added: %d/%d\n", len(rep.Added), len(ids))

	actual, err := s.playlists.ItemCount(ctx, playlistID)
	if err != nil {
		s.logger.Warnf("Не удалось проверить плейлист %s: %v", playlistID, err)
		s.printf("⚠️ Failed to verify playlist: %v\n", err)
		return rep, nil
	}
	rep.Actual = actual
	rep.Verified = actual == int64(len(rep.Added))
	s.printf("🔍 Playlist verification: Expected %d songs, actual: %d\n", len(rep.Added), actual)
	return rep, nil
}

// addWithRetry добавляет видео по одному, не более s.attempts попыток с фиксированной паузой.
func (s *Syncer) addWithRetry(ctx context.Context, playlistID string, ids []string) (added, failed []string) {
	for _, id := range ids {
		ok := false
		for attempt := 1; attempt <= s.attempts; attempt++ {
			out, err := s.playlists.AddItems(ctx, playlistID, []string{id})
			if err == nil && len(out.Added) == 1 {
				s.printf("✅ Added song: %s (attempt %d)\n", id, attempt)
				ok = true
				break
			}
			s.logger.Warnf("Ошибка добавления %s (попытка %d): %v", id, attempt, err)
			if attempt < s.attempts && sleepCtx(ctx, s.delay) != nil {
				break
			}
		}
		if ok {
			added = append(added, id)
			continue
		}
		s.printf("❌ Failed to add song after %d attempts: %s\n", s.attempts, id)
		failed = append(failed, id)
	}
	return added, failed
}

// LikeTracks выбирает треки и ставит им «нравится», чтобы они попали в Liked Music.
func (s *Syncer) LikeTracks(ctx context.Context, mode Mode, tracks []api.SourceTrack) (PlaylistReport, error) {
	rep := PlaylistReport{Name: "Liked Music", Tracks: len(tracks)}
	ids, stats, err := s.SelectTracks(ctx, mode, tracks)
	rep.Stats = stats
	if err != nil {
		rep.Error = err.Error()
		return rep, err
	}
	if mode == ModeDryRun {
		return rep, nil
	}
	for _, id := range ids {
		if err := s.playlists.RateLike(ctx, id); err != nil {
			s.logger.Warnf("Ошибка оценки %s: %v", id, err)
			rep.Failed = append(rep.Failed, id)
			continue
		}
		rep.Added = append(rep.Added, id)
	}
	s.printf("Total songs liked: %d/%d\n", len(rep.Added), len(ids))
	return rep, nil
}

// Run переносит все плейлисты и, если передан, список для Liked Music.
// Ошибка одного плейлиста не прерывает запуск.
func (s *Syncer) Run(ctx context.Context, mode Mode, playlists []export.Playlist, liked []api.SourceTrack) (*Report, error) {
	if err := s.checkMode(mode); err != nil {
		return nil, err
	}
	report := &Report{ID: uuid.NewString(), Mode: mode, StartedAt: time.Now()}
	s.logger.Infof("Запуск %s: режим %s, плейлистов %d", report.ID, mode, len(playlists))

	for _, pl := range playlists {
		rep, err := s.MigratePlaylist(ctx, mode, pl)
		report.Playlists = append(report.Playlists, rep)
		if err != nil {
			s.logger.Errorf("Ошибка переноса плейлиста %q: %v", pl.Name, err)
			if ctx.Err() != nil {
				return s.finish(ctx, report), ctx.Err()
			}
		}
	}
	if len(liked) > 0 {
		rep, err := s.LikeTracks(ctx, mode, liked)
		report.Liked = &rep
		if err != nil {
			s.logger.Errorf("Ошибка переноса Liked Music: %v", err)
			if ctx.Err() != nil {
				return s.finish(ctx, report), ctx.Err()
			}
		}
	}
	return s.finish(ctx, report), nil
}

func (s *Syncer) finish(ctx context.Context, report *Report) *Report {
	report.FinishedAt = time.Now()
	// отчёт сохраняем даже при отмене запуска
	saveCtx := context.WithoutCancel(ctx)
	if s.sink != nil {
		if err := s.sink.SaveReport(saveCtx, report.ID, report); err != nil {
			s.logger.Errorf("Ошибка сохранения отчёта %s: %v", report.ID, err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(saveCtx, report.Summary()); err != nil {
			s.logger.Warnf("Ошибка отправки отчёта: %v", err)
		}
	}
	s.logger.Infof("Запуск %s завершён", report.ID)
	return report
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
