// pkg/export/export.go
package export

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Clean1ines/sp2ytm/pkg/api"
	"github.com/Clean1ines/sp2ytm/pkg/matching"
)

const (
	UnknownTitle = "Unknown Title"
	UnknownAlbum = "Unknown Album"

	// минимальная похожесть, при которой предлагается другое имя плейлиста
	suggestThreshold = 50
)

var ErrPlaylistNotFound = errors.New("плейлист не найден")

// Document описывает выгрузку библиотеки Spotify (playlists.json).
type Document struct {
	Playlists []Playlist `json:"playlists"`
}

type Playlist struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tracks      []Item `json:"tracks"`
}

// Item описывает элемент плейлиста; локальные файлы помечены is_local.
type Item struct {
	Track   *Track `json:"track"`
	IsLocal bool   `json:"is_local"`
}

type Track struct {
	Name    string       `json:"name"`
	Artists []api.Artist `json:"artists"`
	Album   *api.Album   `json:"album"`
}

// Song хранит плоскую запись для songs.json / songs.txt.
type Song struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album"`
}

// Load читает выгрузку с диска.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}
	return &doc, nil
}

// Local сообщает, что элемент нельзя искать: локальный файл или трек без названия.
func (it Item) Local() bool {
	return it.IsLocal || it.Track == nil || strings.TrimSpace(it.Track.Name) == ""
}

// Name возвращает название трека для сообщений о пропуске.
func (it Item) Name() string {
	if it.Track == nil {
		return ""
	}
	return it.Track.Name
}

func (it Item) SourceTrack() api.SourceTrack {
	if it.Track == nil {
		return api.SourceTrack{}
	}
	artists := make([]string, 0, len(it.Track.Artists))
	for _, a := range it.Track.Artists {
		artists = append(artists, a.Name)
	}
	return api.SourceTrack{Title: it.Track.Name, Artists: artists}
}

// Names возвращает имена всех плейлистов в порядке выгрузки.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Playlists))
	for _, p := range d.Playlists {
		names = append(names, p.Name)
	}
	return names
}

// Find ищет плейлист по точному имени. При промахе в ошибку добавляется ближайшее имя.
func (d *Document) Find(name string) (*Playlist, error) {
	for i := range d.Playlists {
		if d.Playlists[i].Name == name {
			return &d.Playlists[i], nil
		}
	}
	if best, score := matching.Closest(name, d.Names()); best != "" && score >= suggestThreshold {
		return nil, fmt.Errorf("%w: %q (возможно, %q?)", ErrPlaylistNotFound, name, best)
	}
	return nil, fmt.Errorf("%w: %q", ErrPlaylistNotFound, name)
}

// ExtractSongs превращает плейлист в плоский список песен с подстановкой пропущенных полей.
func ExtractSongs(doc *Document, name string) ([]Song, error) {
	pl, err := doc.Find(name)
	if err != nil {
		return nil, err
	}
	songs := make([]Song, 0, len(pl.Tracks))
	for _, it := range pl.Tracks {
		song := Song{Title: UnknownTitle, Artists: []string{}, Album: UnknownAlbum}
		if it.Track != nil {
			if it.Track.Name != "" {
				song.Title = it.Track.Name
			}
			for _, a := range it.Track.Artists {
				song.Artists = append(song.Artists, a.Name)
			}
			if it.Track.Album != nil && it.Track.Album.Name != "" {
				song.Album = it.Track.Album.Name
			}
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// WriteSongsTXT пишет по строке на песню: "title – a, b | Album: x".
func WriteSongsTXT(path string, songs []Song) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, s := range songs {
		fmt.Fprintf(w, "%s – %s | Album: %s\n", s.Title, strings.Join(s.Artists, ", "), s.Album)
	}
	return w.Flush()
}

// WriteSongsJSON сохраняет песни с отступами и без экранирования не-ASCII символов.
func WriteSongsJSON(path string, songs []Song) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(songs)
}

// LoadSongs читает songs.json, сформированный WriteSongsJSON.
func LoadSongs(path string) ([]api.SourceTrack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	var songs []Song
	if err := json.Unmarshal(data, &songs); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}
	tracks := make([]api.SourceTrack, 0, len(songs))
	for _, s := range songs {
		if s.Title == "" || s.Title == UnknownTitle {
			continue
		}
		tracks = append(tracks, api.SourceTrack{Title: s.Title, Artists: s.Artists})
	}
	return tracks, nil
}
