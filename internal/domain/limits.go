package domain

import "strings"

const (
	// MaxUsernames is the number of handles accepted in one request.
	MaxUsernames = 5
	// MaxShortlist is the capacity of the shortlist.
	MaxShortlist = 5
	// MinMovies and MaxMovies bound the number of suggestions per request.
	MinMovies = 1
	MaxMovies = 5
	// MaxExcluded is the largest exclusion set the service accepts.
	MaxExcluded = MaxShortlist
)

// User-facing messages.
const (
	MsgTooManyUsernames  = "Maximum 5 usernames allowed. Please try again."
	MsgShortlistFull     = "Shortlist is full (maximum 5 movies)"
	MsgAlreadyShortlist  = "This movie is already in your shortlist"
	MsgInvalidMovie      = "This movie cannot be added to the shortlist"
	MsgUnableToConnect   = "Unable to connect to the server. Please try again later."
	MsgRecommendationErr = "Failed to get movie recommendations"
)

// SplitUsernames splits raw input on runs of whitespace and drops empty tokens.
// Order and repeated handles are kept as typed.
// Examples: "alice  bob " -> ["alice", "bob"]
//
//	"   " -> []
func SplitUsernames(raw string) []string {
	fields := strings.Fields(raw)
	if fields == nil {
		return []string{}
	}
	return fields
}
