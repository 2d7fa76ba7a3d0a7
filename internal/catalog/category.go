package catalog

import (
	"strings"

	"github.com/meur/wftracker/internal/models"
)

// includedCategories are the raw dataset categories worth tracking
var includedCategories = []string{
	"Warframes", "Primary", "Secondary", "Melee",
	"Arch-Gun", "Arch-Melee", "Archwing", "Sentinels", "Pets",
}

// NormalizeCategory maps a free-text dataset category onto a Category.
// Rules are ordered; melee is tested before the generic "arch" rule and
// excludes it, so arch-melee lands in Archwing.
func NormalizeCategory(raw string) models.Category {
	c := strings.ToLower(raw)
	switch {
	case strings.Contains(c, "warframe"):
		return models.CategoryWarframes
	case strings.Contains(c, "primary"):
		return models.CategoryPrimary
	case strings.Contains(c, "melee") && !strings.Contains(c, "arch"):
		return models.CategoryMelee
	case strings.Contains(c, "arch"):
		return models.CategoryArchwing
	case strings.Contains(c, "secondary"):
		return models.CategorySecondary
	case strings.Contains(c, "companion"), strings.Contains(c, "sentinel"),
		strings.Contains(c, "robotic"), strings.Contains(c, "pet"):
		return models.CategoryCompanions
	default:
		return models.CategoryOther
	}
}

// Included reports whether a raw record passes the inclusion filter
func Included(raw RawItem) bool {
	if strings.Contains(raw.UniqueName, "Recipes") {
		return false
	}
	if strings.Contains(raw.Name, "Twitch") {
		return false
	}
	for _, cat := range includedCategories {
		if strings.Contains(raw.Category, cat) {
			return true
		}
	}
	return false
}
