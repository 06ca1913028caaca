package domain

// PreviewHQMP3 is the Freesound preview key used for playback.
const PreviewHQMP3 = "preview-hq-mp3"

// Sound is one candidate returned by a sound search.
type Sound struct {
	Name     string
	URL      string
	Username string
	Previews map[string]string
}

// PreviewURL returns the high quality mp3 preview, or "" when the result has none.
func (s Sound) PreviewURL() string {
	if s.Previews == nil {
		return ""
	}
	return s.Previews[PreviewHQMP3]
}
