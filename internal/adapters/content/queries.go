package content

import (
	"strings"

	"github.com/okian/playmedia/internal/domain/model"
)

const athletesQuery = `query {
  data: allAthlete {
    results {
      id
      athleteName
      nationality
      sport { results { id } }
    }
  }
}`

const sportsQuery = `query {
  data: allSport {
    results {
      id
      title
    }
  }
}`

const mediaQuery = `query {
  data: allMedia {
    results {
      id
      name
      description
      fileUrl
      fileType
      fileWidth
      fileHeight
    }
  }
}`

type results[T any] struct {
	Data struct {
		Results []T `json:"results"`
	} `json:"data"`
}

type idRef struct {
	ID string `json:"id"`
}

type athleteDoc struct {
	ID          string `json:"id"`
	AthleteName string `json:"athleteName"`
	Nationality string `json:"nationality"`
	Sport       struct {
		Results []idRef `json:"results"`
	} `json:"sport"`
}

func (d athleteDoc) entity() model.Entity {
	e := model.Entity{
		ID:          d.ID,
		Kind:        model.KindAthlete,
		Name:        d.AthleteName,
		Nationality: strings.TrimSpace(d.Nationality),
	}
	if len(d.Sport.Results) > 0 {
		e.SportID = d.Sport.Results[0].ID
	}
	return e
}

type sportDoc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func (d sportDoc) entity() model.Entity {
	return model.Entity{ID: d.ID, Kind: model.KindSport, Name: d.Title}
}

type mediaDoc struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	FileURL     string `json:"fileUrl"`
	FileType    string `json:"fileType"`
	FileWidth   int    `json:"fileWidth"`
	FileHeight  int    `json:"fileHeight"`
}

func (d mediaDoc) entity() model.Entity {
	e := model.Entity{
		ID:          d.ID,
		Kind:        model.KindMedia,
		Name:        d.Name,
		Description: d.Description,
	}
	if d.FileURL != "" {
		e.File = &model.File{URL: d.FileURL, Type: d.FileType, Width: d.FileWidth, Height: d.FileHeight}
	}
	return e
}
