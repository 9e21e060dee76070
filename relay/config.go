package relay

import "github.com/papercomputeco/reportrelay/pkg/upstream"

// DefaultBodyLimit caps request bodies when Config.BodyLimit is unset.
// Image requests carry several base64 photos.
const DefaultBodyLimit = 64 << 20

// Config is the relay server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// BodyLimit is the maximum request body size in bytes.
	// Zero or negative uses DefaultBodyLimit.
	BodyLimit int

	// Upstream chat completions API
	Upstream upstream.Config
}

func (c Config) bodyLimit() int {
	if c.BodyLimit <= 0 {
		return DefaultBodyLimit
	}
	return c.BodyLimit
}
