package domain

import "strings"

// Platform holds the per-network budgets.
type Platform struct {
	Name      string
	CharLimit int
	MaxTags   int
}

const (
	defaultCharLimit = 2200
	defaultMaxTags   = 30
)

var platforms = map[string]Platform{
	"instagram": {Name: "instagram", CharLimit: 2200, MaxTags: 30},
	"linkedin":  {Name: "linkedin", CharLimit: 3000, MaxTags: 10},
	"twitter":   {Name: "twitter", CharLimit: 280, MaxTags: 5},
	"facebook":  {Name: "facebook", CharLimit: 63206, MaxTags: 8},
}

// LookupPlatform returns the budgets for name. Unknown platforms get the
// instagram budgets under their own name.
func LookupPlatform(name string) Platform {
	if p, ok := platforms[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return Platform{Name: name, CharLimit: defaultCharLimit, MaxTags: defaultMaxTags}
}

func KnownPlatform(name string) bool {
	_, ok := platforms[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// PlatformNames lists the configured platforms.
func PlatformNames() []string {
	return []string{"instagram", "linkedin", "twitter", "facebook"}
}
