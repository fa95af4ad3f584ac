// Package routepath stores canonical HTTP paths for journal routes.
package routepath

import "github.com/starford/campaignjournal/internal/models"

const (
	Root         = "/"
	HealthLive   = "/health/live"
	HealthReady  = "/health/ready"
	Events       = "/events"
	Search       = "/search"
	Render       = "/render"
	AuthPrefix   = "/auth"
	AuthRegister = "/auth/register"
	AuthLogin    = "/auth/login"
	AuthLogout   = "/auth/logout"
	AuthMe       = "/auth/me"

	Characters = "/characters"
	Locations  = "/locations"
	Factions   = "/factions"
	Notes      = "/notes"

	SlugParam = "slug"
)

// collections maps each category to its collection path. It is never mutated.
var collections = map[models.Category]string{
	models.CategoryCharacter: Characters,
	models.CategoryLocation:  Locations,
	models.CategoryFaction:   Factions,
	models.CategoryNote:      Notes,
}

// Collection returns the list path for category, or "" when unknown.
func Collection(category models.Category) string {
	return collections[category]
}

// Detail returns the detail page path for a document. s must already be in
// slug form (see slug.Make) and is not escaped again. Unknown categories
// yield "".
func Detail(category models.Category, s string) string {
	base, ok := collections[category]
	if !ok {
		return ""
	}
	return base + "/" + s
}

// Character returns the character detail path.
func Character(s string) string { return Detail(models.CategoryCharacter, s) }

// Location returns the location detail path.
func Location(s string) string { return Detail(models.CategoryLocation, s) }

// LocationTree returns the path of a location's descendant tree.
func LocationTree(s string) string { return Location(s) + "/tree" }

// Faction returns the faction detail path.
func Faction(s string) string { return Detail(models.CategoryFaction, s) }

// Note returns the note detail path.
func Note(s string) string { return Detail(models.CategoryNote, s) }
