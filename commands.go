// commands.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Clean1ines/sp2ytm/pkg/export"
	"github.com/Clean1ines/sp2ytm/pkg/health"
	"github.com/Clean1ines/sp2ytm/pkg/oauth"
	"github.com/Clean1ines/sp2ytm/pkg/pubsub"
	"github.com/Clean1ines/sp2ytm/pkg/sync"
)

func newExtractCommand() *cobra.Command {
	var file, playlist, txtPath, jsonPath string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Сохранить песни одного плейлиста в songs.txt и songs.json",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := export.Load(file)
			if err != nil {
				return err
			}
			songs, err := export.ExtractSongs(doc, playlist)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if txtPath != "" {
				if err := export.WriteSongsTXT(txtPath, songs); err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ Saved %d songs to '%s' (TXT)\n", len(songs), txtPath)
			}
			if jsonPath != "" {
				if err := export.WriteSongsJSON(jsonPath, songs); err != nil {
					return err
				}
				fmt.Fprintf(out, "✅ Saved %d songs to '%s' (JSON)\n", len(songs), jsonPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "playlists.json", "JSON file with playlists")
	cmd.Flags().StringVar(&playlist, "playlist", "Liked Songs", "Playlist to extract")
	cmd.Flags().StringVar(&txtPath, "txt", "songs.txt", "Text output (empty to skip)")
	cmd.Flags().StringVar(&jsonPath, "json", "songs.json", "JSON output (empty to skip)")
	return cmd
}

func newAuthCommand() *cobra.Command {
	var authPath string
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Получить OAuth-токен YouTube и сохранить его в файл",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.YouTubeClientID == "" || a.cfg.YouTubeClientSecret == "" {
				return errors.New("YOUTUBE_CLIENT_ID и YOUTUBE_CLIENT_SECRET должны быть заданы")
			}

			cfg := oauth.Config(a.cfg.YouTubeClientID, a.cfg.YouTubeClientSecret)
			fmt.Fprintf(cmd.OutOrStdout(), "Откройте адрес и разрешите доступ:\n%s\n\n", oauth.AuthURL(cfg, uuid.NewString()))

			var code string
			prompt := &survey.Input{Message: "Код из адреса перенаправления (параметр code):"}
			if err := survey.AskOne(prompt, &code, survey.WithValidator(survey.Required)); err != nil {
				return err
			}
			if _, err := oauth.Exchange(cmd.Context(), cfg, code, authPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Токен сохранён в %s\n", authPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&authPath, "auth", "oauth.json", "Where to store the OAuth token")
	return cmd
}

func newReportCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Показать отчёт о переносе (по умолчанию последний)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.reportStore(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("REDIS_ADDRESS не задан")
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			var report sync.Report
			if err := store.LoadReport(cmd.Context(), id, &report); err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			renderReport(cmd.OutOrStdout(), &report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func renderReport(w io.Writer, report *sync.Report) {
	fmt.Fprintf(w, "Запуск %s (%s), %s\n", report.ID, report.Mode, report.FinishedAt.Format(time.RFC3339))
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Playlist", "Tracks", "Selected", "Added", "Failed", "Verified", "Error"})
	rows := report.Playlists
	if report.Liked != nil {
		rows = append(append([]sync.PlaylistReport{}, rows...), *report.Liked)
	}
	for _, p := range rows {
		tw.AppendRow(table.Row{
			p.Name,
			p.Tracks,
			p.Stats.Selected,
			len(p.Added),
			len(p.Failed),
			strconv.FormatBool(p.Verified),
			p.Error,
		})
	}
	tw.Render()
}

func newEnqueueCommand() *cobra.Command {
	var task pubsub.Task
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Поставить перенос в очередь Pub/Sub для воркера",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			ps, err := pubsub.InitPubSubClient(cmd.Context(), a.cfg.ProjectID, a.cfg.PubSubTopic, a.cfg.PubSubSubscription, a.logger)
			if err != nil {
				return err
			}
			defer ps.Close()

			id, err := ps.PublishTask(cmd.Context(), task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Задача %s поставлена в очередь\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&task.File, "file", "playlists.json", "JSON file with playlists (as seen by the worker)")
	cmd.Flags().StringVar(&task.Playlist, "playlist", "", "Migrate only the playlist with this name")
	cmd.Flags().StringVar(&task.Liked, "liked", "", "Songs JSON file to add to Liked Music")
	cmd.Flags().StringVar(&task.Mode, "mode", string(sync.ModeAutoAdd), "Selection mode: add, auto-add or dry-run")
	return cmd
}

func newWorkerCommand() *cobra.Command {
	var authPath string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Обрабатывать задачи из Pub/Sub",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer a.Close()
			if a.cfg.ProjectID == "" {
				return errors.New("GOOGLE_CLOUD_PROJECT не задан")
			}
			ps, err := pubsub.InitPubSubClient(ctx, a.cfg.ProjectID, a.cfg.PubSubTopic, a.cfg.PubSubSubscription, a.logger)
			if err != nil {
				return err
			}
			defer ps.Close()

			checks := map[string]health.Check{}
			if store, err := a.reportStore(ctx); err != nil {
				return err
			} else if store != nil {
				checks["redis"] = store.Ping
			}
			srv := &http.Server{
				Addr:         ":" + a.cfg.Port,
				Handler:      healthMux(checks),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Errorf("Ошибка HTTP-сервера: %v", err)
				}
			}()
			defer srv.Shutdown(context.WithoutCancel(ctx))

			a.logger.Infof("Воркер слушает %s, воркеров %d", a.cfg.PubSubSubscription, a.cfg.Workers)
			return ps.StartWorkerPool(ctx, a.cfg.Workers, func(ctx context.Context, task pubsub.Task) error {
				return handleTask(ctx, a, task, authPath)
			})
		},
	}
	cmd.Flags().StringVar(&authPath, "auth", "oauth.json", "Path to the YouTube OAuth token")
	return cmd
}

func healthMux(checks map[string]health.Check) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", health.Handler(checks))
	return mux
}

// handleTask выполняет задачу; постоянные ошибки не возвращают её в очередь.
func handleTask(ctx context.Context, a *app, task pubsub.Task, authPath string) error {
	mode, err := sync.ParseMode(task.Mode)
	if err != nil {
		return nil
	}
	report, err := a.migrate(ctx, migrateOptions{
		Mode:     mode,
		File:     task.File,
		Auth:     authPath,
		Playlist: task.Playlist,
		Liked:    task.Liked,
	})
	if report != nil {
		a.logger.Infof("Задача %s: %s", task.ID, report.Summary())
	}
	if err != nil && isPermanent(err) {
		a.logger.Errorf("Задача %s отброшена: %v", task.ID, err)
		return nil
	}
	return err
}

func isPermanent(err error) bool {
	return errors.Is(err, export.ErrPlaylistNotFound) ||
		errors.Is(err, sync.ErrNoChooser) ||
		errors.Is(err, os.ErrNotExist)
}
