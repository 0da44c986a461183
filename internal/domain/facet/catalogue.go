package facet

import "github.com/okian/playmedia/internal/domain/model"

// Facet keys.
const (
	KeyNationality = "nationality"
	KeySport       = "sport"
	KeyFileType    = "fileType"
)

func nationality(e model.Entity) (string, bool) {
	return e.Nationality, e.Nationality != ""
}

func sport(e model.Entity) (string, bool) {
	return e.SportID, e.SportID != ""
}

func sportName(e model.Entity) string { return e.SportName }

func fileType(e model.Entity) (string, bool) {
	if e.File == nil || e.File.Type == "" {
		return "", false
	}
	return e.File.Type, true
}

// AthleteFacets returns the nationality and sport facets.
func AthleteFacets() []Definition {
	return []Definition{
		{Key: KeyNationality, Label: "Nationality", Extract: nationality},
		{Key: KeySport, Label: "Sport", Extract: sport, Display: sportName},
	}
}

// MediaFacets returns the file type facet.
func MediaFacets() []Definition {
	return []Definition{
		{Key: KeyFileType, Label: "File type", Extract: fileType},
	}
}

// ForKind returns the facet catalogue for kind. Sports have no facets.
func ForKind(kind model.Kind) []Definition {
	switch kind {
	case model.KindAthlete:
		return AthleteFacets()
	case model.KindMedia:
		return MediaFacets()
	default:
		return nil
	}
}
