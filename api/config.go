package api

// Config is the API server configuration.
type Config struct {
	// Address to listen on (e.g., ":8000")
	ListenAddr string

	// StaticDir holds index.html and the browser client assets.
	// It is served only if it exists.
	StaticDir string

	// BodyLimit caps request bodies in bytes. Zero uses fiber's default.
	BodyLimit int

	// GenerateAudioVoice is the voice used by POST /generate-audio/.
	GenerateAudioVoice string
}
