// Package geocore translates STAC entities into bilingual GeoCore feature
// collections.
package geocore

import "github.com/paulmach/orb"

// Temporal sentinels used when a bound is unknown.
const (
	UnknownBegin = "0001-01-01"
	OpenEnd      = "Present"
)

const (
	typeFeatureCollection = "FeatureCollection"
	typeFeature           = "Feature"
	typePolygon           = "Polygon"
	protocolUnknown       = "Unknown"
)

// Bilingual is an English/French text pair.
type Bilingual struct {
	En string `json:"en" yaml:"en"`
	Fr string `json:"fr" yaml:"fr"`
}

// NullableBilingual is a Bilingual whose halves may be null.
type NullableBilingual struct {
	En *string `json:"en" yaml:"en"`
	Fr *string `json:"fr" yaml:"fr"`
}

// FeatureCollection is the published document: exactly one feature.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// Feature is a single GeoCore record.
type Feature struct {
	Type       string      `json:"type"`
	Geometry   Geometry    `json:"geometry"`
	Properties *Properties `json:"properties"`
}

// Geometry is the GeoJSON polygon of a feature.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates orb.Polygon `json:"coordinates"`
}

// Properties is the GeoCore properties record. Keys that the harvester never
// fills are kept so the output matches the GeoCore null template.
type Properties struct {
	ID                       string            `json:"id"`
	Title                    Bilingual         `json:"title"`
	Description              Bilingual         `json:"description"`
	Keywords                 Bilingual         `json:"keywords"`
	TopicCategory            string            `json:"topicCategory"`
	Date                     Dates             `json:"date"`
	Type                     string            `json:"type"`
	Geometry                 string            `json:"geometry"`
	TemporalExtent           TemporalExtent    `json:"temporalExtent"`
	RefSys                   *string           `json:"refSys"`
	RefSysVersion            *string           `json:"refSys_version"`
	Status                   string            `json:"status"`
	Maintenance              string            `json:"maintenance"`
	MetadataStandard         NullableBilingual `json:"metadataStandard"`
	MetadataStandardVersion  *string           `json:"metadataStandardVersion"`
	GraphicOverview          []any             `json:"graphicOverview"`
	DistributionFormatName   *string           `json:"distributionFormat_name"`
	DistributionFormatFormat *string           `json:"distributionFormat_format"`
	UseLimits                Bilingual         `json:"useLimits"`
	AccessConstraints        *string           `json:"accessConstraints"`
	OtherConstraints         NullableBilingual `json:"otherConstraints"`
	DateStamp                *string           `json:"dateStamp"`
	DataSetURI               *string           `json:"dataSetURI"`
	Locale                   NullableBilingual `json:"locale"`
	Language                 *string           `json:"language"`
	CharacterSet             *string           `json:"characterSet"`
	EnvironmentDescription   *string           `json:"environmentDescription"`
	SupplementalInformation  NullableBilingual `json:"supplementalInformation"`
	Contact                  []Contact         `json:"contact"`
	Credits                  []any             `json:"credits"`
	Cited                    []any             `json:"cited"`
	Distributor              []any             `json:"distributor"`
	Options                  []Option          `json:"options"`
	SpatialRepresentation    string            `json:"spatialRepresentation"`
	ParentIdentifier         *string           `json:"parentIdentifier"`
	SourceSystemName         *string           `json:"sourceSystemName"`
}

// Dates holds the GeoCore date sub-records.
type Dates struct {
	Published    DateEntry `json:"published"`
	Created      DateEntry `json:"created"`
	Revision     DateEntry `json:"revision"`
	NotAvailable DateEntry `json:"notavailable"`
	InForce      DateEntry `json:"inforce"`
	Adopted      DateEntry `json:"adopted"`
	Deprecated   DateEntry `json:"deprecated"`
	Superseded   DateEntry `json:"superceded"`
}

// DateEntry is one labelled date; both halves are null until populated.
type DateEntry struct {
	Text *string `json:"text"`
	Date *string `json:"date"`
}

// TemporalExtent holds ISO dates or the UnknownBegin/OpenEnd sentinels.
type TemporalExtent struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

// Option describes one externally accessible resource of a feature.
// Options are comparable so duplicates can be detected by full equality.
type Option struct {
	URL         string    `json:"url"`
	Protocol    string    `json:"protocol"`
	Name        Bilingual `json:"name"`
	Description Bilingual `json:"description"`
}

// Contact is a GeoCore point of contact.
type Contact struct {
	Organisation    Bilingual         `json:"organisation"    yaml:"organisation"`
	Email           Bilingual         `json:"email"           yaml:"email"`
	Individual      *string           `json:"individual"      yaml:"individual"`
	Position        NullableBilingual `json:"position"        yaml:"position"`
	Telephone       NullableBilingual `json:"telephone"       yaml:"telephone"`
	Address         NullableBilingual `json:"address"         yaml:"address"`
	City            *string           `json:"city"            yaml:"city"`
	PT              NullableBilingual `json:"pt"              yaml:"pt"`
	PostalCode      *string           `json:"postalcode"      yaml:"postal_code"`
	Country         NullableBilingual `json:"country"         yaml:"country"`
	OnlineResources OnlineResources   `json:"onlineResources" yaml:"online_resources"`
	HoursOfService  *string           `json:"hoursofService"  yaml:"hours_of_service"`
	Role            *string           `json:"role"            yaml:"role"`
}

// OnlineResources is the online resource block of a contact.
type OnlineResources struct {
	URL         *string `json:"onlineResources"             yaml:"url"`
	Name        *string `json:"onlineResources_Name"        yaml:"name"`
	Protocol    *string `json:"onlineResources_Protocol"    yaml:"protocol"`
	Description *string `json:"onlineResources_Description" yaml:"description"`
}

// newProperties returns a blank template. Every feature starts from a fresh one.
func newProperties() *Properties {
	return &Properties{
		Options: []Option{},
	}
}

func newFeatureCollection(geometry Geometry, props *Properties) *FeatureCollection {
	return &FeatureCollection{
		Type: typeFeatureCollection,
		Features: []*Feature{{
			Type:       typeFeature,
			Geometry:   geometry,
			Properties: props,
		}},
	}
}

func strPtr(s string) *string {
	return &s
}
