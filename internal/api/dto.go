package api

// sectionDTO is one entry of the section list response
type sectionDTO struct {
	ID        string `json:"ID"`
	Title     string `json:"Title"`
	Type      string `json:"Type"`
	TotalSize int    `json:"TotalSize"`
}

// sectionItemsResponse is one page of a section's items
type sectionItemsResponse struct {
	MediaItems []mediaItemDTO `json:"MediaItems"`
	TotalSize  int            `json:"TotalSize"`
}

type mediaItemDTO struct {
	RatingKey       string     `json:"RatingKey"`
	Type            string     `json:"Type"`
	Title           string     `json:"Title"`
	SortTitle       string     `json:"SortTitle"`
	Year            int        `json:"Year"`
	LibraryTitle    string     `json:"LibraryTitle"`
	ExistInDatabase bool       `json:"ExistInDatabase"`
	AddedAt         int64      `json:"AddedAt"`
	UpdatedAt       int64      `json:"UpdatedAt"`
	Movie           *movieDTO  `json:"Movie,omitempty"`
	Series          *seriesDTO `json:"Series,omitempty"`
}

type movieDTO struct {
	File struct {
		Path     string `json:"Path"`
		Size     int64  `json:"Size"`
		Duration int64  `json:"Duration"`
	} `json:"File"`
}

type seriesDTO struct {
	SeasonCount  int `json:"SeasonCount"`
	EpisodeCount int `json:"EpisodeCount"`
}

// errorResponse is the backend's error body
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
