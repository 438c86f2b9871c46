package metadata

import (
	"context"
	"log/slog"

	"ludex/internal/config"
	"ludex/internal/library"
	"ludex/internal/logging"
	"ludex/internal/match"
	"ludex/internal/providers"
	"ludex/internal/scanner"
	"ludex/internal/services"
)

// ImageCache persists remote artwork locally. A failed cache returns the
// original URL so the record always carries something renderable.
type ImageCache interface {
	Cache(ctx context.Context, url, gameID, kind string) (string, error)
}

// Service resolves scanned games against external catalogs in priority
// order and merges their partial metadata into a library record.
type Service struct {
	providers []providers.Provider
	images    ImageCache
	threshold float64
	logger    *slog.Logger
}

// NewService creates an orchestrator over the given providers. Order is the
// consultation priority; the first provider whose ranked search clears the
// acceptance threshold wins the match.
func NewService(provs []providers.Provider, images ImageCache, threshold float64, logger *slog.Logger) *Service {
	if threshold <= 0 {
		threshold = config.DefaultAcceptThreshold
	}
	return &Service{
		providers: provs,
		images:    images,
		threshold: threshold,
		logger:    logging.NewComponentLogger(logger, "metadata"),
	}
}

// Resolve searches catalogs for the scanned game, merges descriptions and
// artwork from every provider that recognizes it, and returns the library
// record. A scan no provider can match comes back with an ambiguous status
// rather than an error; that is a valid negative result.
func (s *Service) Resolve(ctx context.Context, scanned *scanner.ScannedGameResult) (*library.GameRecord, error) {
	record := &library.GameRecord{
		ID:          scanned.UUID,
		Source:      scanned.Source,
		Title:       scanned.Title,
		InstallPath: scanned.InstallPath,
		ExePath:     scanned.ExePath,
		AppID:       scanned.AppID,
		Status:      scanner.StatusAmbiguous,
	}

	hint := providers.Hint{Source: string(scanned.Source), AppID: scanned.AppID}
	input := match.Input{Title: scanned.Title, Source: string(scanned.Source), ExternalID: scanned.AppID}

	best, provider := s.findMatch(ctx, input, hint)
	if best == nil {
		s.logger.Info("no acceptable match",
			logging.String("title", scanned.Title),
			logging.String("source", string(scanned.Source)))
		return record, nil
	}

	record.Provider = provider.Name()
	record.ProviderID = best.Candidate.ID
	record.Confidence = best.Confidence
	if best.Candidate.Title != "" {
		record.Title = best.Candidate.Title
	}
	record.Status = scanner.StatusMatched

	ids := s.resolveProviderIDs(ctx, provider.Name(), best, hint)
	s.mergeDescriptions(ctx, record, ids)
	s.mergeArtwork(ctx, record, ids, hint)
	record.Status = scanner.StatusReady
	return record, nil
}

// findMatch consults providers in priority order until one produces a
// candidate the match engine accepts.
func (s *Service) findMatch(ctx context.Context, input match.Input, hint providers.Hint) (*match.Result, providers.Provider) {
	for _, provider := range s.providers {
		if !provider.Available() {
			continue
		}
		results, err := provider.Search(ctx, input.Title, hint)
		if err != nil {
			s.logSearchFailure(provider.Name(), err)
			continue
		}
		if len(results) == 0 {
			continue
		}

		ranked, ok := match.Rank(input, candidates(results), s.threshold)
		if !ok {
			continue
		}
		s.logger.Debug("match accepted",
			logging.String("provider", provider.Name()),
			logging.String("candidate", ranked[0].Candidate.Title),
			logging.Float64("confidence", ranked[0].Confidence))
		return &ranked[0], provider
	}
	return nil, nil
}

// candidates converts provider search results for the match engine. Only the
// storefront shares the launcher's id namespace, so its ids corroborate a
// scanned Steam app id.
func candidates(results []providers.SearchResult) []match.Candidate {
	out := make([]match.Candidate, 0, len(results))
	for _, result := range results {
		candidate := match.Candidate{
			ID:     result.ID,
			Title:  result.Title,
			Source: result.Provider,
		}
		if result.Provider == config.ServiceSteamStore {
			candidate.ExternalID = result.ID
			candidate.TrustedID = true
		}
		out = append(out, candidate)
	}
	return out
}

// resolveProviderIDs maps each available provider to its own id for the
// matched game. The winning provider's id is known; the storefront reuses
// the scanned app id; the rest are located by re-searching the matched
// title.
func (s *Service) resolveProviderIDs(ctx context.Context, matchedProvider string, best *match.Result, hint providers.Hint) map[string]string {
	ids := map[string]string{matchedProvider: best.Candidate.ID}
	title := best.Candidate.Title
	input := match.Input{Title: title, Source: hint.Source, ExternalID: hint.AppID}

	for _, provider := range s.providers {
		name := provider.Name()
		if _, done := ids[name]; done || !provider.Available() {
			continue
		}
		if name == config.ServiceSteamStore {
			if hint.Source == string(scanner.SourceSteam) && hint.AppID != "" {
				ids[name] = hint.AppID
			}
			continue
		}
		results, err := provider.Search(ctx, title, hint)
		if err != nil {
			s.logSearchFailure(name, err)
			continue
		}
		ranked, ok := match.Rank(input, candidates(results), s.threshold)
		if !ok {
			continue
		}
		ids[name] = ranked[0].Candidate.ID
	}
	return ids
}

// mergeDescriptions fills record description fields from providers in
// priority order, first non-empty field wins.
func (s *Service) mergeDescriptions(ctx context.Context, record *library.GameRecord, ids map[string]string) {
	for _, provider := range s.providers {
		id, ok := ids[provider.Name()]
		if !ok || !provider.Available() {
			continue
		}
		desc, err := provider.Description(ctx, id)
		if err != nil {
			s.logger.Warn("description fetch failed",
				logging.String("provider", provider.Name()),
				logging.Error(err))
			continue
		}
		if desc == nil {
			continue
		}
		if record.Summary == "" {
			record.Summary = desc.Summary
		}
		if len(record.Genres) == 0 {
			record.Genres = desc.Genres
		}
		if len(record.Developers) == 0 {
			record.Developers = desc.Developers
		}
		if len(record.Publishers) == 0 {
			record.Publishers = desc.Publishers
		}
		if record.ReleaseDate == "" {
			record.ReleaseDate = desc.ReleaseDate
		}
		if record.Website == "" {
			record.Website = desc.Website
		}
		if record.Rating == 0 {
			record.Rating = desc.Rating
		}
	}
}

// mergeArtwork fills artwork fields the same way, then routes every kept URL
// through the image cache.
func (s *Service) mergeArtwork(ctx context.Context, record *library.GameRecord, ids map[string]string, hint providers.Hint) {
	for _, provider := range s.providers {
		id, ok := ids[provider.Name()]
		if !ok || !provider.Available() {
			continue
		}
		art, err := provider.Artwork(ctx, id, hint)
		if err != nil {
			s.logger.Warn("artwork fetch failed",
				logging.String("provider", provider.Name()),
				logging.Error(err))
			continue
		}
		if art == nil {
			continue
		}
		if record.CoverURL == "" {
			record.CoverURL = art.CoverURL
		}
		if record.HeroURL == "" {
			record.HeroURL = art.HeroURL
		}
		if len(record.Screenshots) == 0 {
			record.Screenshots = art.Screenshots
		}
		if record.CoverURL != "" && record.HeroURL != "" && len(record.Screenshots) > 0 {
			break
		}
	}

	record.CoverURL = s.cacheURL(ctx, record.CoverURL, record.ID, "cover")
	record.HeroURL = s.cacheURL(ctx, record.HeroURL, record.ID, "hero")
	for i, url := range record.Screenshots {
		record.Screenshots[i] = s.cacheURL(ctx, url, record.ID, "screenshot")
	}
}

// cacheURL stores the image locally when a cache is wired; a cache failure
// keeps the original URL.
func (s *Service) cacheURL(ctx context.Context, url, gameID, kind string) string {
	if url == "" || s.images == nil {
		return url
	}
	local, err := s.images.Cache(ctx, url, gameID, kind)
	if err != nil {
		s.logger.Warn("image cache failed",
			logging.String("url", url),
			logging.Error(err))
		return url
	}
	return local
}

func (s *Service) logSearchFailure(provider string, err error) {
	switch {
	case services.IsRateLimited(err):
		s.logger.Warn("provider rate limited, failing over", logging.String("provider", provider))
	case services.IsAuth(err):
		s.logger.Warn("provider authentication failed", logging.String("provider", provider))
	default:
		s.logger.Warn("provider search failed",
			logging.String("provider", provider),
			logging.Error(err))
	}
}
