package library

import (
	"time"

	"ludex/internal/scanner"
)

// GameRecord is one resolved (or pending) library entry. It carries enough
// launcher detail (source, app id, executable) for an external shell to
// dispatch a launch without consulting the original scan.
type GameRecord struct {
	ID          string         `json:"id"`
	Source      scanner.Source `json:"source"`
	Title       string         `json:"title"`
	InstallPath string         `json:"installPath,omitempty"`
	ExePath     string         `json:"exePath,omitempty"`
	AppID       string         `json:"appId,omitempty"`

	Provider   string  `json:"provider,omitempty"`
	ProviderID string  `json:"providerId,omitempty"`
	Confidence float64 `json:"confidence"`

	Summary     string   `json:"summary,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Developers  []string `json:"developers,omitempty"`
	Publishers  []string `json:"publishers,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Website     string   `json:"website,omitempty"`
	Rating      float64  `json:"rating,omitempty"`

	CoverURL    string   `json:"coverUrl,omitempty"`
	HeroURL     string   `json:"heroUrl,omitempty"`
	Screenshots []string `json:"screenshots,omitempty"`

	Status    scanner.Status `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
