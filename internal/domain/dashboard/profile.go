package dashboard

import (
	"fmt"
	"strings"
)

// Profile selects the client-specific response shape.
type Profile string

const (
	ProfileMobile Profile = "mobile"
	ProfileWeb    Profile = "web"
)

func ParseProfile(raw string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(raw))) {
	case ProfileMobile:
		return ProfileMobile, nil
	case ProfileWeb:
		return ProfileWeb, nil
	default:
		return "", fmt.Errorf("unknown client profile %q (want mobile or web)", raw)
	}
}

func (p Profile) String() string { return string(p) }

// ServiceName is the name reported by the health route, e.g. "mobile-bff".
func (p Profile) ServiceName() string { return string(p) + "-bff" }

// Route names used in cache keys.
const (
	RouteDashboard = "dashboard"
	RouteUser      = "user"
)

// Request identifies one aggregation: which entity, for which client.
type Request struct {
	Profile Profile
	Route   string
	UserID  int
}

// CacheKey is namespaced as {profile}:{route}:{id}.
func (r Request) CacheKey() string {
	return fmt.Sprintf("%s:%s:%d", r.Profile, r.Route, r.UserID)
}
