package api

import "github.com/auracli/aura/internal/domain"

// MapSections converts the section list response to domain sections
func MapSections(dtos []sectionDTO) []domain.LibrarySection {
	sections := make([]domain.LibrarySection, 0, len(dtos))
	for _, d := range dtos {
		sections = append(sections, domain.LibrarySection{
			ID:        d.ID,
			Title:     d.Title,
			Type:      d.Type,
			TotalSize: d.TotalSize,
		})
	}
	return sections
}

// MapMediaItems converts a page of items, filling LibraryTitle from the
// owning section when the backend omits it
func MapMediaItems(dtos []mediaItemDTO, section domain.LibrarySection) []*domain.MediaItem {
	items := make([]*domain.MediaItem, 0, len(dtos))
	for _, d := range dtos {
		item := &domain.MediaItem{
			RatingKey:       d.RatingKey,
			Type:            mapMediaType(d.Type, section.Type),
			Title:           d.Title,
			SortTitle:       d.SortTitle,
			Year:            d.Year,
			LibraryTitle:    d.LibraryTitle,
			ExistInDatabase: d.ExistInDatabase,
			AddedAt:         d.AddedAt,
			UpdatedAt:       d.UpdatedAt,
		}
		if item.LibraryTitle == "" {
			item.LibraryTitle = section.Title
		}
		if d.Movie != nil {
			item.Movie = &domain.MovieInfo{File: domain.MediaFile{
				Path:     d.Movie.File.Path,
				Size:     d.Movie.File.Size,
				Duration: d.Movie.File.Duration,
			}}
		}
		if d.Series != nil {
			item.Series = &domain.SeriesInfo{
				SeasonCount:  d.Series.SeasonCount,
				EpisodeCount: d.Series.EpisodeCount,
			}
		}
		items = append(items, item)
	}
	return items
}

func mapMediaType(itemType, sectionType string) domain.MediaType {
	t := itemType
	if t == "" {
		t = sectionType
	}
	if t == "show" {
		return domain.MediaTypeShow
	}
	return domain.MediaTypeMovie
}
