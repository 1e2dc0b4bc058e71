package domain

// Movie is a single suggestion returned by the recommendation service.
//
// It is a value: the client never mutates a Movie it received, it only
// copies it into the shortlist or drops it.
type Movie struct {
	// ID is the catalog identifier (Letterboxd film id). Uniqueness within
	// the shortlist is decided on this field alone.
	ID string `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// URL points to the film's detail page.
	URL string `json:"url"`

	// ImageData is either an inline data URI or a remote poster reference.
	// Empty when the service could not resolve a poster.
	ImageData string `json:"image_data,omitempty"`
}

// Valid reports whether the movie carries an identifier.
func (m Movie) Valid() bool {
	return m.ID != ""
}

// IDs returns the identifiers of movies, in order.
func IDs(movies []Movie) []string {
	ids := make([]string, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	return ids
}
