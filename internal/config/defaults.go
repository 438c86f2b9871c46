package config

const (
	defaultDataDir       = "~/.local/share/ludex"
	defaultImageCacheDir = "~/.local/share/ludex/images"
	defaultLibraryPath   = "~/.local/share/ludex/library.db"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"

	defaultRAWGBaseURL       = "https://api.rawg.io/api"
	defaultIGDBBaseURL       = "https://api.igdb.com/v4"
	defaultIGDBTokenURL      = "https://id.twitch.tv/oauth2/token"
	defaultSteamGridBaseURL  = "https://www.steamgriddb.com/api/v2"
	defaultSteamStoreBaseURL = "https://store.steampowered.com/api"

	defaultGlobalFloorMS = 100
	defaultMaxInFlight   = 4

	// DefaultAcceptThreshold is the minimum confidence a ranked candidate
	// needs before it is accepted without manual resolution.
	DefaultAcceptThreshold = 0.3
)

// Service tags used by the rate-limit coordinator. The store endpoint is the
// strictest upstream, so it carries the most conservative floor.
const (
	ServiceRAWG       = "rawg"
	ServiceIGDB       = "igdb"
	ServiceSteamGrid  = "steamgrid"
	ServiceSteamStore = "steamstore"
)

func defaultServiceIntervals() map[string]int {
	return map[string]int{
		ServiceRAWG:       250,
		ServiceIGDB:       300,
		ServiceSteamGrid:  250,
		ServiceSteamStore: 1500,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:     defaultDataDir,
			ImageCache:  defaultImageCacheDir,
			LibraryPath: defaultLibraryPath,
		},
		Sources: Sources{
			SteamEnabled:  true,
			EpicEnabled:   true,
			GOGEnabled:    true,
			AmazonEnabled: true,
		},
		Providers: Providers{
			Priority: []string{ServiceRAWG, ServiceIGDB, ServiceSteamGrid, ServiceSteamStore},
			RAWG: RAWG{
				BaseURL: defaultRAWGBaseURL,
			},
			IGDB: IGDB{
				BaseURL:  defaultIGDBBaseURL,
				TokenURL: defaultIGDBTokenURL,
			},
			SteamGrid: SteamGrid{
				BaseURL: defaultSteamGridBaseURL,
			},
			SteamStore: SteamStore{
				Enabled: true,
				BaseURL: defaultSteamStoreBaseURL,
			},
		},
		RateLimit: RateLimit{
			GlobalFloorMS:      defaultGlobalFloorMS,
			ServiceIntervalsMS: defaultServiceIntervals(),
			MaxInFlight:        defaultMaxInFlight,
		},
		Matching: Matching{
			AcceptThreshold: DefaultAcceptThreshold,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
