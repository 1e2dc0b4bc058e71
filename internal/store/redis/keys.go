package redis

const (
	// KeyPrefixShortlist is the prefix for persisted shortlists
	KeyPrefixShortlist = "boxdpick:shortlist:"
	// DefaultShortlistName is used when no name is configured
	DefaultShortlistName = "default"
)

// ShortlistKey returns the Redis key holding the shortlist called name
func ShortlistKey(name string) string {
	if name == "" {
		name = DefaultShortlistName
	}
	return KeyPrefixShortlist + name
}
