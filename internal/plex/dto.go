package plex

// MediaContainer is the root container for Plex API responses
type MediaContainer struct {
	Size              int         `json:"size"`
	TotalSize         int         `json:"totalSize,omitempty"`
	Offset            int         `json:"offset,omitempty"`
	MachineIdentifier string      `json:"machineIdentifier,omitempty"`
	Directory         []Directory `json:"Directory,omitempty"`
	Metadata          []Metadata  `json:"Metadata,omitempty"`
}

// Directory is a library section or a filter choice (genre, decade)
type Directory struct {
	Key   string `json:"key"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title"`
}

// Tag is a Plex tag reference such as a genre
type Tag struct {
	Tag string `json:"tag"`
}

// Metadata is an album or a track
type Metadata struct {
	RatingKey        string   `json:"ratingKey"`
	ParentRatingKey  string   `json:"parentRatingKey,omitempty"`
	Type             string   `json:"type"`
	Title            string   `json:"title"`
	GrandparentTitle string   `json:"grandparentTitle,omitempty"`
	ParentTitle      string   `json:"parentTitle,omitempty"`
	Genre            []Tag    `json:"Genre,omitempty"`
	UserRating       *float64 `json:"userRating,omitempty"`
	Duration         int64    `json:"duration,omitempty"`
	Year             int      `json:"year,omitempty"`
	ParentYear       int      `json:"parentYear,omitempty"`
}

// APIResponse wraps the MediaContainer for JSON unmarshaling
type APIResponse struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}
