package recommender

import "google.golang.org/genai"

func ptr[T any](v T) *T {
	return &v
}

func stringList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func tagList() *genai.Schema {
	s := stringList()
	s.MinItems = ptr[int64](4)
	s.MaxItems = ptr[int64](7)
	return s
}

func selectionFiltersSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"skill":     stringList(),
			"level":     stringList(),
			"purpose":   stringList(),
			"classSize": stringList(),
			"time":      stringList(),
			"theme":     stringList(),
		},
		Required: []string{"skill", "level", "purpose", "classSize", "time", "theme"},
	}
}

// recommendationSchema describes a RecommendationBatch
func recommendationSchema() *genai.Schema {
	item := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"ranking":              {Type: genai.TypeNumber},
			"game_title":           {Type: genai.TypeString},
			"tags":                 tagList(),
			"thumbnail_image":      {Type: genai.TypeString},
			"summary_en":           {Type: genai.TypeString},
			"summary_localized":    {Type: genai.TypeString},
			"grammar_focus":        {Type: genai.TypeString},
			"grammar_focus_reason": {Type: genai.TypeString},
		},
		Required: []string{"ranking", "game_title", "tags", "thumbnail_image", "summary_en", "summary_localized"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"screen":          {Type: genai.TypeInteger},
			"filters":         selectionFiltersSchema(),
			"recommendations": {Type: genai.TypeArray, Items: item},
		},
		Required: []string{"screen", "filters", "recommendations"},
	}
}

// detailSchema describes a GameDetail
func detailSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"screen":           {Type: genai.TypeInteger},
			"game_title":       {Type: genai.TypeString},
			"icon":             {Type: genai.TypeString},
			"illustration":     {Type: genai.TypeString},
			"tags":             tagList(),
			"materials":        {Type: genai.TypeString},
			"game_description": {Type: genai.TypeString},
			"how_to_play":      stringList(),
			"teacher_directions": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"simple":  stringList(),
					"medium":  stringList(),
					"complex": stringList(),
				},
				Required: []string{"simple", "medium", "complex"},
			},
			"student_interactions": stringList(),
			"caution":              {Type: genai.TypeString},
		},
		Required: []string{
			"game_title", "icon", "illustration", "how_to_play", "teacher_directions",
			"student_interactions", "materials", "game_description", "caution",
		},
	}
}
