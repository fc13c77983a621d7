package shazam

// searchResponse is the JSON response for /search. The "tracks" object is
// omitted entirely when nothing matches.
type searchResponse struct {
	Tracks *struct {
		Hits []hit `json:"hits"`
	} `json:"tracks"`
}

type hit struct {
	Track track `json:"track"`
}

type track struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	URL      string `json:"url"`
	Images   struct {
		Background string `json:"background"`
		CoverArt   string `json:"coverart"`
		CoverArtHQ string `json:"coverarthq"`
	} `json:"images"`
	Hub struct {
		Actions []struct {
			Name string `json:"name"`
			Type string `json:"type"`
			URI  string `json:"uri"`
		} `json:"actions"`
	} `json:"hub"`
}
