// pkg/resolver/resolver.go
package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Clean1ines/sp2ytm/pkg/api"
	"github.com/Clean1ines/sp2ytm/pkg/matching"
)

// DefaultLimit задаёт, сколько результатов берём из каждого потока.
const DefaultLimit = 5

// Resolver подбирает кандидатов в целевом каталоге для одного исходного трека.
type Resolver struct {
	search api.SearchService
	limit  int
}

type Option func(*Resolver)

// WithLimit задаёт лимит на поток; значения <= 0 игнорируются.
func WithLimit(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.limit = n
		}
	}
}

func New(search api.SearchService, opts ...Option) *Resolver {
	r := &Resolver{search: search, limit: DefaultLimit}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve ищет трек в потоках песен и видео и сливает их попарно.
// Ошибки поиска не перехватываются: решение о пропуске трека принимает вызывающий.
func (r *Resolver) Resolve(ctx context.Context, src api.SourceTrack) (api.RankedResults, error) {
	query := src.DisplayName()

	var songs, videos []api.Candidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		songs, err = r.fetch(gctx, query, api.KindSong)
		return err
	})
	g.Go(func() error {
		var err error
		videos, err = r.fetch(gctx, query, api.KindVideo)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Interleave(src, songs, videos), nil
}

func (r *Resolver) fetch(ctx context.Context, query string, kind api.Kind) ([]api.Candidate, error) {
	results, err := r.search.Search(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("поиск %s: %w", kind, err)
	}
	if len(results) > r.limit {
		results = results[:r.limit]
	}
	return results, nil
}

// scoredPair живёт только внутри одного шага слияния.
type scoredPair struct {
	candidate *api.Candidate
	score     float64
}

// Interleave сливает два потока: на шаге i сравниваются только i-е элементы,
// более релевантный идёт первым, при равенстве первой идёт песня.
func Interleave(src api.SourceTrack, songs, videos []api.Candidate) api.RankedResults {
	n := len(songs)
	if len(videos) > n {
		n = len(videos)
	}
	out := make(api.RankedResults, 0, len(songs)+len(videos))
	for i := 0; i < n; i++ {
		for _, c := range order(src, at(songs, i), at(videos, i)) {
			out = append(out, *c)
		}
	}
	return out
}

func order(src api.SourceTrack, song, video *api.Candidate) []*api.Candidate {
	switch {
	case song != nil && video != nil:
		s := scoredPair{song, matching.Score(src, song)}
		v := scoredPair{video, matching.Score(src, video)}
		if s.score >= v.score {
			return []*api.Candidate{s.candidate, v.candidate}
		}
		return []*api.Candidate{v.candidate, s.candidate}
	case song != nil:
		return []*api.Candidate{song}
	case video != nil:
		return []*api.Candidate{video}
	default:
		return nil
	}
}

// at возвращает nil за пределами списка.
func at(list []api.Candidate, i int) *api.Candidate {
	if i < 0 || i >= len(list) {
		return nil
	}
	return &list[i]
}
