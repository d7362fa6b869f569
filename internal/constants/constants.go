// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort          = "8080"
	DefaultDBPath        = "plexsage.db"
	DefaultPlexURL       = "http://127.0.0.1:32400"
	DefaultPlexLibrary   = "Music"
	DefaultLLMURL        = "https://api.openai.com/v1"
	DefaultLLMModel      = "gpt-4o-mini"
	DefaultHTTPTimeout   = 2 * time.Minute
	DefaultLLMTimeout    = 3 * time.Minute
	DefaultRetryCount    = 3
	DefaultRetryBase     = 1 * time.Second
	DefaultCacheMaxAge   = 24 * time.Hour
	DefaultSyncBatchSize = 500
	DefaultMaxTracksToAI = 500
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	SourceStatsTTL       = 10 * time.Minute
	ShutdownTimeout      = 10 * time.Second
)

// Matching
const (
	// FuzzThreshold is the minimum 0-100 similarity for both title and artist.
	FuzzThreshold = 60.0
	// UnlimitedPoolSize bounds the pool sent to the model when MAX_TRACKS_TO_AI is 0.
	UnlimitedPoolSize = 2000
	// LiveOverfetchFactor pads random upstream samples so dropping live rows
	// still leaves enough entries.
	LiveOverfetchFactor = 1.3
)

// Plex
const (
	PlexPageSize        = 500
	PlexTypeAlbum       = 9
	PlexTypeTrack       = 10
	PlexHeaderToken     = "X-Plex-Token"
	PlexHeaderClientID  = "X-Plex-Client-Identifier"
	PlexHeaderProduct   = "X-Plex-Product"
	PlexProduct         = "plexsage"
	PlexClientID        = "plexsage"
	PlexHeaderPageStart = "X-Plex-Container-Start"
	PlexHeaderPageSize  = "X-Plex-Container-Size"
)

// Database
const (
	EntriesTable = "entries"
)

// HTTP Status Codes
const (
	StatusOK                 = 200
	StatusAccepted           = 202
	StatusBadRequest         = 400
	StatusConflict           = 409
	StatusInternalError      = 500
	StatusServiceUnavailable = 503
)

// MIME Types
const (
	MimeTypeJSON = "application/json"
)
