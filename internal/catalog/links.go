package catalog

import (
	"strings"

	"github.com/meur/wftracker/internal/models"
)

const (
	MarketBaseURL = "https://warframe.market/items/"
	WikiBaseURL   = "https://warframe.fandom.com/wiki/"
	ImageBaseURL  = "https://cdn.warframestat.us/img/"
)

var slugReplacer = strings.NewReplacer(" ", "_", "'", "_", "-", "_")

// MarketSlug guesses the marketplace slug for an item name.
// Prime items are usually traded as sets. Irregular names may come out wrong.
func MarketSlug(name string) string {
	lower := strings.ToLower(name)
	slug := slugReplacer.Replace(lower)
	if strings.Contains(lower, "prime") && !strings.Contains(lower, "set") {
		slug += "_set"
	}
	return slug
}

// MarketURL returns the marketplace page for an item name
func MarketURL(name string) string {
	return MarketBaseURL + MarketSlug(name)
}

// WikiURL returns the wiki page for an item name
func WikiURL(name string) string {
	return WikiBaseURL + strings.ReplaceAll(name, " ", "_")
}

// ImageURL returns the CDN image for an image name, or "" when there is none
func ImageURL(imageName string) string {
	if imageName == "" {
		return ""
	}
	return ImageBaseURL + imageName
}

// Links builds every outbound link for an item
func Links(item models.CatalogItem) models.ItemLinks {
	return models.ItemLinks{
		Market: MarketURL(item.Name),
		Wiki:   WikiURL(item.Name),
		Image:  ImageURL(item.ImageName),
	}
}
