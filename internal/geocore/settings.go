package geocore

import "maps"

// Settings carries the harvest-wide constants that every feature shares.
// Mappers receive a copy and never mutate it.
type Settings struct {
	// Source prefixes every feature id and object key.
	Source string
	// RootName names the catalog in root titles and link names.
	RootName              Bilingual
	Status                string
	Maintenance           string
	SpatialRepresentation string
	Type                  string
	TopicCategory         string
	UseLimits             Bilingual
	// Disclaimer is appended to every description.
	Disclaimer Bilingual
	Contacts   []Contact
	// TitleStrategies selects the item title format per collection id.
	TitleStrategies map[string]TitleStrategy
}

// Default harvest constants.
const (
	DefaultSource                = "ccmeo"
	DefaultRootName              = "CCMEO Datacube/CCCOT Cube de données"
	DefaultStatus                = "unknown"
	DefaultMaintenance           = "unknown"
	DefaultSpatialRepresentation = "grid; grille"
	DefaultType                  = "dataset; jeuDonnées"
	DefaultTopicCategory         = "imageryBaseMapsEarthCover"
)

// DefaultUseLimits is the Open Government Licence statement.
var DefaultUseLimits = Bilingual{
	En: "Open Government Licence - Canada http://open.canada.ca/en/open-government-licence-canada",
	Fr: "Licence du gouvernement ouvert - Canada http://ouvert.canada.ca/fr/licence-du-gouvernement-ouvert-canada",
}

// DefaultDisclaimer keeps the literal \n\n sequence the downstream renderer expects.
var DefaultDisclaimer = Bilingual{
	En: `\n\n**This third party metadata element follows the Spatio Temporal Asset Catalog (STAC) specification.**`,
	Fr: `\n\n**Cet élément de métadonnées tiers suit la spécification Spatio Temporal Asset Catalog (STAC).** ` +
		`**Cet élément de métadonnées provenant d’une tierce partie a été traduit à l'aide d'un outil de traduction automatisée (Amazon Translate).**`,
}

// DefaultContact returns the NRCan point of contact.
func DefaultContact() Contact {
	return Contact{
		Organisation: Bilingual{
			En: "Government of Canada;Natural Resources Canada;Strategic Policy and Innovation Sector",
			Fr: "Gouvernement du Canada;Ressources naturelles Canada;Secteur de la politique stratégique et de l’innovation",
		},
		Email: Bilingual{
			En: "geoinfo@nrcan-rncan.gc.ca",
			Fr: "geoinfo@nrcan-rncan.gc.ca",
		},
	}
}

// DefaultTitleStrategies returns the collections with bespoke item titles.
func DefaultTitleStrategies() map[string]TitleStrategy {
	return map[string]TitleStrategy{
		"monthly-vegetation-parameters-20m-v1": TitleItemIDSuffix,
		"hrdem-lidar":                          TitleYearItemToken,
	}
}

// DefaultSettings returns the settings of the CCMEO datacube deployment.
func DefaultSettings() Settings {
	return Settings{
		Source:                DefaultSource,
		RootName:              SplitBilingual(DefaultRootName),
		Status:                DefaultStatus,
		Maintenance:           DefaultMaintenance,
		SpatialRepresentation: DefaultSpatialRepresentation,
		Type:                  DefaultType,
		TopicCategory:         DefaultTopicCategory,
		UseLimits:             DefaultUseLimits,
		Disclaimer:            DefaultDisclaimer,
		Contacts:              []Contact{DefaultContact()},
		TitleStrategies:       DefaultTitleStrategies(),
	}
}

func (s Settings) clone() Settings {
	out := s
	out.Contacts = append([]Contact(nil), s.Contacts...)
	out.TitleStrategies = maps.Clone(s.TitleStrategies)
	return out
}
