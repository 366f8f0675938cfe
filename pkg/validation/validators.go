package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jamesprial/go-reddit-listings/pkg/types"
)

// Regular expressions for validating Reddit data formats
var (
	// base36Regex matches base36 encoded IDs (0-9, a-z)
	base36Regex = regexp.MustCompile(`^[0-9a-z]+$`)

	// subredditRegex matches valid subreddit names (3-21 chars, alphanumeric + underscore)
	subredditRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,21}$`)

	// usernameRegex matches valid Reddit usernames (3-20 chars, alphanumeric + underscore + hyphen)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

	// fullnameRegex matches Reddit fullname IDs (type prefix + base36 ID)
	// Format: t[1-6]_[base36_id]
	fullnameRegex = regexp.MustCompile(`^t[1-6]_[0-9a-z]+$`)
)

// IsValidBase36 checks if a string is a valid base36 encoded ID
func IsValidBase36(s string) bool {
	return s != "" && base36Regex.MatchString(s)
}

// IsValidSubreddit checks if a string is a valid subreddit name
func IsValidSubreddit(s string) bool {
	return subredditRegex.MatchString(s)
}

// IsValidUsername checks if a string is a valid Reddit username
func IsValidUsername(s string) bool {
	return usernameRegex.MatchString(s)
}

// IsValidFullname checks if a string is a valid Reddit fullname ID
func IsValidFullname(s string) bool {
	return fullnameRegex.MatchString(s)
}

// ParseID36 interprets id as a base36 number. Ids that are not base36, such
// as moderation log entries, report ok == false.
func ParseID36(id string) (n uint64, ok bool) {
	if id == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(id, 36, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseFullname36 parses the base36 suffix of a fullname such as "t3_5".
func ParseFullname36(fullname string) (uint64, bool) {
	_, suffix, found := strings.Cut(fullname, "_")
	if !found {
		return 0, false
	}
	return ParseID36(suffix)
}

// LinkFullname returns id with the link ("t3_") prefix, adding it when missing.
func LinkFullname(id string) string {
	prefix := types.KindLink + "_"
	if strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}

// IsMalformed reports whether an entity came back with a placeholder id
// instead of a real one.
func IsMalformed(e types.RedditObject) bool {
	return e.GetID() == types.MalformedID || !IsValidBase36(e.GetID())
}
