// app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	stdsync "sync"

	"github.com/mattn/go-isatty"

	"github.com/Clean1ines/sp2ytm/pkg/api"
	"github.com/Clean1ines/sp2ytm/pkg/api/client"
	"github.com/Clean1ines/sp2ytm/pkg/config"
	"github.com/Clean1ines/sp2ytm/pkg/export"
	"github.com/Clean1ines/sp2ytm/pkg/logging"
	"github.com/Clean1ines/sp2ytm/pkg/oauth"
	"github.com/Clean1ines/sp2ytm/pkg/resolver"
	"github.com/Clean1ines/sp2ytm/pkg/storage"
	"github.com/Clean1ines/sp2ytm/pkg/sync"
	"github.com/Clean1ines/sp2ytm/pkg/telegram"
)

// app собирает зависимости одной команды.
type app struct {
	cfg    *config.Config
	logger *logging.Logger
	out    io.Writer

	mu      stdsync.Mutex
	bot     *telegram.Bot
	store   *storage.Store
	closers []func() error
}

func newApp(ctx context.Context, out io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(ctx, cfg.ProjectID, os.Stderr)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, out: out}
	a.closers = append(a.closers, logger.Close)
	return a, nil
}

// Close освобождает ресурсы в обратном порядке.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			fmt.Fprintf(os.Stderr, "ошибка закрытия: %v\n", err)
		}
	}
}

// migrateOptions описывает, что и как переносить.
type migrateOptions struct {
	Mode     sync.Mode
	File     string
	Auth     string
	Playlist string
	Liked    string
}

func (a *app) playlistService(ctx context.Context, authPath string) (*api.YouTubeService, error) {
	cfg := oauth.Config(a.cfg.YouTubeClientID, a.cfg.YouTubeClientSecret)
	ts, err := oauth.TokenSource(ctx, cfg, authPath)
	if err != nil {
		return nil, fmt.Errorf("нет токена YouTube (выполните команду auth): %w", err)
	}
	httpClient := oauth.HTTPClient(ts, client.New(client.DefaultConcurrencyLimit))
	return api.NewYouTubeService(ctx, httpClient, a.cfg.PlaylistPrivacy)
}

// chooser выбирает способ интерактивного выбора: Telegram, если настроен, иначе терминал.
func (a *app) chooser(mode sync.Mode) (sync.Chooser, sync.Notifier, error) {
	var notifier sync.Notifier
	bot, err := a.telegramBot()
	if err != nil {
		return nil, nil, err
	}
	if bot != nil {
		notifier = bot
	}
	if mode != sync.ModeAdd {
		return nil, notifier, nil
	}
	if bot != nil {
		return bot, notifier, nil
	}
	if fd := os.Stdin.Fd(); isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return sync.NewPromptChooser(), notifier, nil
	}
	return nil, nil, fmt.Errorf("%w: нет терминала и не настроен Telegram", sync.ErrNoChooser)
}

// telegramBot создаёт бота один раз на всё время жизни app.
func (a *app) telegramBot() (*telegram.Bot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bot != nil || !a.cfg.TelegramEnabled() {
		return a.bot, nil
	}
	bot, err := telegram.NewBot(a.cfg.TelegramToken, a.cfg.TelegramChatID, a.cfg.ChoiceTimeout, a.logger)
	if err != nil {
		return nil, err
	}
	a.bot = bot
	a.closers = append(a.closers, bot.Close)
	return bot, nil
}

func (a *app) reportStore(ctx context.Context) (*storage.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store != nil || a.cfg.RedisAddr == "" {
		return a.store, nil
	}
	store, err := storage.NewStore(ctx, a.cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	return store, nil
}

// migrate выполняет перенос согласно опциям и возвращает отчёт.
func (a *app) migrate(ctx context.Context, opts migrateOptions) (*sync.Report, error) {
	var playlists []export.Playlist
	if opts.File != "" {
		doc, err := export.Load(opts.File)
		if err != nil {
			return nil, err
		}
		playlists = doc.Playlists
		if opts.Playlist != "" {
			pl, err := doc.Find(opts.Playlist)
			if err != nil {
				return nil, err
			}
			playlists = []export.Playlist{*pl}
		}
	}
	var liked []api.SourceTrack
	if opts.Liked != "" {
		tracks, err := export.LoadSongs(opts.Liked)
		if err != nil {
			return nil, err
		}
		liked = tracks
	}
	if len(playlists) == 0 && len(liked) == 0 {
		return nil, errors.New("нечего переносить")
	}

	chooser, notifier, err := a.chooser(opts.Mode)
	if err != nil {
		return nil, err
	}
	syncOpts := []sync.Option{
		sync.WithOutput(a.out),
		sync.WithLogger(a.logger),
		sync.WithSuffix(a.cfg.PlaylistSuffix),
		sync.WithAddRetry(a.cfg.AddAttempts, a.cfg.AddRetryDelay),
	}
	if chooser != nil {
		syncOpts = append(syncOpts, sync.WithChooser(chooser))
	}
	if notifier != nil {
		syncOpts = append(syncOpts, sync.WithNotifier(notifier))
	}
	store, err := a.reportStore(ctx)
	if err != nil {
		a.logger.Warnf("Отчёт не будет сохранён: %v", err)
	} else if store != nil {
		syncOpts = append(syncOpts, sync.WithReportSink(store))
	}

	var playlistSvc api.PlaylistService
	if opts.Mode != sync.ModeDryRun {
		svc, err := a.playlistService(ctx, opts.Auth)
		if err != nil {
			return nil, err
		}
		playlistSvc = svc
	}

	res := resolver.New(api.NewYTMusicSearch(), resolver.WithLimit(a.cfg.SearchLimit))
	syncer := sync.New(res, playlistSvc, syncOpts...)
	return syncer.Run(ctx, opts.Mode, playlists, liked)
}
