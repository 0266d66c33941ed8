package model

// TagArea is a structured category, distinct from free-text tags.
type TagArea struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	Color       string `json:"color"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// Label renders the area as "emoji name".
func (a TagArea) Label() string {
	if a.Emoji == "" {
		return a.Name
	}
	return a.Emoji + " " + a.Name
}

// NewTagArea holds the fields for creating a TagArea.
type NewTagArea struct {
	Name        string
	Emoji       string
	Color       string
	Description string
}

// TagAreaPatch describes a partial update of a TagArea.
type TagAreaPatch struct {
	Name        *string
	Emoji       *string
	Color       *string
	Description *string
}

// BookmarkTag links a bookmark to a tag area.
type BookmarkTag struct {
	BookmarkID string `json:"bookmark_id"`
	TagAreaID  string `json:"tag_area_id"`
}
