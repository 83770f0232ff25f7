package sync

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Clean1ines/sp2ytm/pkg/api"
	"github.com/Clean1ines/sp2ytm/pkg/export"
)

type fakeResolver struct {
	results map[string]api.RankedResults
	errs    map[string]error
}

func (f *fakeResolver) Resolve(_ context.Context, src api.SourceTrack) (api.RankedResults, error) {
	if err := f.errs[src.Title]; err != nil {
		return nil, err
	}
	return f.results[src.Title], nil
}

type fakePlaylists struct {
	created   []string
	calls     map[string]int
	failFor   map[string]int // сколько первых попыток для id завершатся ошибкой
	added     []string
	liked     []string
	createErr error
}

func newFakePlaylists() *fakePlaylists {
	return &fakePlaylists{calls: map[string]int{}, failFor: map[string]int{}}
}

func (f *fakePlaylists) CreatePlaylist(_ context.Context, name, _ string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, name)
	return "PL1", nil
}

func (f *fakePlaylists) AddItems(_ context.Context, _ string, ids []string) (api.Outcome, error) {
	id := ids[0]
	f.calls[id]++
	if f.calls[id] <= f.failFor[id] {
		return api.Outcome{Failed: ids}, errors.New("backend error")
	}
	f.added = append(f.added, id)
	return api.Outcome{Added: ids}, nil
}

func (f *fakePlaylists) RateLike(_ context.Context, id string) error {
	f.liked = append(f.liked, id)
	return nil
}

func (f *fakePlaylists) ItemCount(context.Context, string) (int64, error) {
	return int64(len(f.added)), nil
}

type fakeSink struct {
	ids []string
}

func (f *fakeSink) SaveReport(_ context.Context, id string, _ any) error {
	f.ids = append(f.ids, id)
	return nil
}

func song(id, title string) api.Candidate {
	c := api.Candidate{Kind: api.KindSong, Title: title, Artists: []api.Artist{{Name: "Artist"}}}
	if id != "" {
		c.ID = api.StringPtr(id)
	}
	return c
}

func item(title string, local bool) export.Item {
	return export.Item{Track: &export.Track{Name: title, Artists: []api.Artist{{Name: "Artist"}}}, IsLocal: local}
}

func newTestSyncer(r Resolver, p api.PlaylistService, opts ...Option) (*Syncer, *bytes.Buffer) {
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithAddRetry(3, 0)}, opts...)
	return New(r, p, opts...), &out
}

func fixedChooser(choices ...int) Chooser {
	i := 0
	return ChooserFunc(func(context.Context, api.SourceTrack, api.RankedResults) (int, error) {
		c := choices[i]
		i++
		return c, nil
	})
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"add", "auto-add", "dry-run"} {
		if m, err := ParseMode(s); err != nil || string(m) != s {
			t.Errorf("Режим %q должен разбираться: %v", s, err)
		}
	}
	if _, err := ParseMode("sync"); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Ожидалась ErrUnknownMode, получено %v", err)
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", Skip},
		{"  ", Skip},
		{"abc", Skip},
		{"-1", Skip},
		{"0", 0},
		{" 3 ", 3},
	}
	for _, tt := range tests {
		if got := ParseChoice(tt.in); got != tt.want {
			t.Errorf("ParseChoice(%q) = %d, ожидалось %d", tt.in, got, tt.want)
		}
	}
}

func TestPromptChooserUsesAnswer(t *testing.T) {
	c := &PromptChooser{ask: func(msg string) (string, error) {
		if !strings.Contains(msg, "Enter to skip") {
			t.Errorf("Неожиданный текст вопроса: %q", msg)
		}
		return "1", nil
	}}
	if idx, err := c.Choose(context.Background(), api.SourceTrack{}, nil); err != nil || idx != 1 {
		t.Errorf("Ожидался индекс 1, получено %d (%v)", idx, err)
	}
}

func TestSelectTracksAutoAdd(t *testing.T) {
	r := &fakeResolver{
		results: map[string]api.RankedResults{
			"A": {song("a1", "A"), song("a2", "A live")},
			"B": {song("", "B")},
		},
		errs: map[string]error{"C": errors.New("search down")},
	}
	s, out := newTestSyncer(r, newFakePlaylists())
	tracks := []api.SourceTrack{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}}

	ids, stats, err := s.SelectTracks(context.Background(), ModeAutoAdd, tracks)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(ids) != 1 || ids[0] != "a1" {
		t.Errorf("Должен выбираться первый кандидат: %v", ids)
	}
	if stats.Searched != 4 || stats.Selected != 1 || stats.Skipped != 1 || stats.Failed != 1 || stats.NoResults != 1 {
		t.Errorf("Неверная статистика: %+v", stats)
	}
	if !strings.Contains(out.String(), "[1/4] Searching: A") {
		t.Errorf("Нет строки прогресса: %s", out.String())
	}
	if !strings.Contains(out.String(), "First result has no videoId") {
		t.Errorf("Нет предупреждения о videoId: %s", out.String())
	}
}

func TestSelectTracksInteractive(t *testing.T) {
	r := &fakeResolver{results: map[string]api.RankedResults{
		"A": {song("a1", "A"), song("a2", "A live")},
		"B": {song("b1", "B")},
		"C": {song("c1", "C")},
		"D": {song("", "D")},
	}}
	s, out := newTestSyncer(r, newFakePlaylists(), WithChooser(fixedChooser(1, Skip, 5, 0)))
	tracks := []api.SourceTrack{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}}

	ids, stats, err := s.SelectTracks(context.Background(), ModeAdd, tracks)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(ids) != 1 || ids[0] != "a2" {
		t.Errorf("Ожидался выбор a2, получено %v", ids)
	}
	if stats.Skipped != 3 {
		t.Errorf("Ожидалось 3 пропуска, получено %+v", stats)
	}
	for _, msg := range []string{"Skipped.", "Invalid choice.", "No videoId found."} {
		if !strings.Contains(out.String(), msg) {
			t.Errorf("Нет сообщения %q", msg)
		}
	}
}

func TestSelectTracksRequiresChooser(t *testing.T) {
	s, _ := newTestSyncer(&fakeResolver{}, newFakePlaylists())
	if _, _, err := s.SelectTracks(context.Background(), ModeAdd, nil); !errors.Is(err, ErrNoChooser) {
		t.Errorf("Ожидалась ErrNoChooser, получено %v", err)
	}
}

func TestSelectTracksChooserErrorStops(t *testing.T) {
	r := &fakeResolver{results: map[string]api.RankedResults{"A": {song("a1", "A")}}}
	boom := errors.New("interrupt")
	s, _ := newTestSyncer(r, newFakePlaylists(), WithChooser(ChooserFunc(
		func(context.Context, api.SourceTrack, api.RankedResults) (int, error) { return Skip, boom },
	)))
	if _, _, err := s.SelectTracks(context.Background(), ModeAdd, []api.SourceTrack{{Title: "A"}}); !errors.Is(err, boom) {
		t.Errorf("Ошибка выбора должна прерывать обход, получено %v", err)
	}
}

func TestMigratePlaylistRetriesAndVerifies(t *testing.T) {
	r := &fakeResolver{results: map[string]api.RankedResults{
		"A": {song("a1", "A")},
		"B": {song("b1", "B")},
		"C": {song("c1", "C")},
	}}
	p := newFakePlaylists()
	p.failFor["b1"] = 2 // успех на третьей попытке
	p.failFor["c1"] = 5 // никогда
	s, out := newTestSyncer(r, p)

	pl := export.Playlist{Name: "Road Trip", Description: "лето", Tracks: []export.Item{
		item("A", false), item("local.mp3", true), item("B", false), item("C", false),
	}}
	rep, err := s.MigratePlaylist(context.Background(), ModeAutoAdd, pl)
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(p.created) != 1 || p.created[0] != "Road Trip (from Spotify)" {
		t.Errorf("Неверное имя плейлиста: %v", p.created)
	}
	if p.calls["b1"] != 3 || p.calls["c1"] != 3 {
		t.Errorf("Ожидалось по 3 попытки, получено %v", p.calls)
	}
	if len(rep.Added) != 2 || len(rep.Failed) != 1 || rep.Failed[0] != "c1" {
		t.Errorf("Неверный результат добавления: %+v", rep)
	}
	if rep.Local != 1 || !rep.Verified || rep.Actual != 2 {
		t.Errorf("Неверная проверка плейлиста: %+v", rep)
	}
	if !strings.Contains(out.String(), "Total songs added: 2/3") {
		t.Errorf("Нет итоговой строки: %s", out.String())
	}
}

func TestMigratePlaylistNumbersByPlaylistPosition(t *testing.T) {
	r := &fakeResolver{results: map[string]api.RankedResults{
		"A": {song("a1", "A")},
		"B": {song("b1", "B")},
	}}
	s, out := newTestSyncer(r, newFakePlaylists())

	pl := export.Playlist{Name: "Road Trip", Tracks: []export.Item{
		item("local.mp3", true), item("A", false), item("B", false),
	}}
	if _, err := s.MigratePlaylist(context.Background(), ModeDryRun, pl); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	for _, want := range []string{"[2/3] A – Artist", "[3/3] B – Artist"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Нет строки %q: %s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "[1/2]") {
		t.Errorf("Номер должен учитывать локальные треки: %s", out.String())
	}
}

func TestMigratePlaylistDryRunCreatesNothing(t *testing.T) {
	r := &fakeResolver{results: map[string]api.RankedResults{"A": {song("a1", "A")}}}
	p := newFakePlaylists()
	s, out := newTestSyncer(r, p)

	rep, err := s.MigratePlaylist(context.Background(), ModeDryRun, export.Playlist{Name: "X", Tracks: []export.Item{item("A", false)}})
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(p.created) != 0 || rep.Stats.Selected != 0 {
		t.Errorf("Пробный запуск не должен ничего создавать: %+v", rep)
	}
	if !strings.Contains(out.String(), "Simulating playlist: X") {
		t.Errorf("Нет заголовка пробного запуска: %s", out.String())
	}
}

func TestMigratePlaylistNoSelectionSkipsCreation(t *testing.T) {
	p := newFakePlaylists()
	s, _ := newTestSyncer(&fakeResolver{}, p)
	if _, err := s.MigratePlaylist(context.Background(), ModeAutoAdd, export.Playlist{Name: "X", Tracks: []export.Item{item("A", false)}}); err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(p.created) != 0 {
		t.Errorf("Плейлист без треков не должен создаваться")
	}
}

func TestLikeTracks(t *testing.T) {
	r := &fakeResolver{results: map[string]api.RankedResults{"A": {song("a1", "A")}, "B": {song("b1", "B")}}}
	p := newFakePlaylists()
	s, _ := newTestSyncer(r, p)
	rep, err := s.LikeTracks(context.Background(), ModeAutoAdd, []api.SourceTrack{{Title: "A"}, {Title: "B"}})
	if err != nil {
		t.Fatalf("Неожиданная ошибка: %v", err)
	}
	if len(p.liked) != 2 || len(rep.Added) != 2 {
		t.Errorf("Ожидалось 2 оценки, получено %v", p.liked)
	}
}

func TestRunContinuesAfterPlaylistFailure(t *testing.T) {
	r := &fakeResolver{results: map[string]api.RankedResults{"A": {song("a1", "A")}}}
	p := newFakePlaylists()
	p.createErr = errors.New("quota exceeded")
	sink := &fakeSink{}
	s, _ := newTestSyncer(r, p, WithReportSink(sink))

	pls := []export.Playlist{
		{Name: "One", Tracks: []export.Item{item("A", false)}},
		{Name: "Two", Tracks: []export.Item{item("A", false)}},
	}
	report, err := s.Run(context.Background(), ModeAutoAdd, pls, []api.SourceTrack{{Title: "A"}})
	if err != nil {
		t.Fatalf("Ошибка одного плейлиста не должна прерывать запуск: %v", err)
	}
	if len(report.Playlists) != 2 || report.Playlists[0].Error == "" || report.Playlists[1].Error == "" {
		t.Errorf("Оба плейлиста должны попасть в отчёт с ошибкой: %+v", report.Playlists)
	}
	if report.Liked == nil || len(report.Liked.Added) != 1 {
		t.Errorf("Liked Music должен обрабатываться: %+v", report.Liked)
	}
	if len(sink.ids) != 1 || sink.ids[0] != report.ID || report.ID == "" {
		t.Errorf("Отчёт должен сохраняться под своим id: %v", sink.ids)
	}
	if !strings.Contains(report.Summary(), "One") {
		t.Errorf("Сводка должна содержать имя плейлиста: %s", report.Summary())
	}
}

func TestRenderCandidates(t *testing.T) {
	if RenderCandidates(nil) != "" {
		t.Errorf("Пустой список не должен рисоваться")
	}
	got := RenderCandidates(api.RankedResults{song("a1", "Yesterday")})
	for _, want := range []string{"Yesterday", "Unknown Album", "Unknown", "song"} {
		if !strings.Contains(got, want) {
			t.Errorf("В таблице нет %q:\n%s", want, got)
		}
	}
}
