package profiles

import "github.com/movieflix/backend/internal/models"

var defaultAvatars = map[string][]string{
	models.ProfileTypeAdult: {
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Felix",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Aneka",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Zack",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Molly",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Bandit",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Chloe",
	},
	models.ProfileTypeKids: {
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Baby1",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Baby2",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Baby3",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Baby4",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Baby5",
		"https://api.dicebear.com/7.x/avataaars/svg?seed=Baby6",
	},
}

// DefaultAvatars returns the selectable avatar URLs for a profile type.
// Unknown types get the adult set.
func DefaultAvatars(profileType string) []string {
	if urls, ok := defaultAvatars[profileType]; ok {
		return urls
	}
	return defaultAvatars[models.ProfileTypeAdult]
}

// DefaultAvatar is the avatar assigned when a profile is created without one.
func DefaultAvatar(profileType string) string {
	return DefaultAvatars(profileType)[0]
}
