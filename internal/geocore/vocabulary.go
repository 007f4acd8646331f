package geocore

import "strings"

// other is the catch-all label of every vocabulary table.
var other = Bilingual{En: "Other", Fr: "Autre"}

var (
	metadataType   = Bilingual{En: "Metadata", Fr: "Métadonnées"}
	serviceType    = Bilingual{En: "Web Service", Fr: "Service Web"}
	documentType   = Bilingual{En: "Supporting Document", Fr: "Document de soutien"}
	datasetType    = Bilingual{En: "Dataset", Fr: "Données"}
	imageType      = Bilingual{En: "Image", Fr: "Image"}
	applicationAPI = Bilingual{En: "API", Fr: "API"}
)

// relationTypes maps STAC link relations to option types.
var relationTypes = map[string]Bilingual{
	"self":         metadataType,
	"root":         metadataType,
	"parent":       metadataType,
	"child":        metadataType,
	"collection":   metadataType,
	"item":         metadataType,
	"items":        metadataType,
	"next":         metadataType,
	"prev":         metadataType,
	"alternate":    metadataType,
	"data":         serviceType,
	"search":       applicationAPI,
	"conformance":  applicationAPI,
	"service-desc": applicationAPI,
	"service-doc":  documentType,
	"license":      documentType,
	"describedby":  documentType,
	"about":        documentType,
	"cite-as":      documentType,
	"derived_from": datasetType,
	"via":          datasetType,
}

// roleTypes maps asset roles to option types.
var roleTypes = map[string]Bilingual{
	"data":      datasetType,
	"metadata":  metadataType,
	"thumbnail": imageType,
	"overview":  imageType,
	"visual":    imageType,
	"legend":    documentType,
}

// mediaTypeFormats maps normalized media types to option formats.
var mediaTypeFormats = map[string]Bilingual{
	"application/json":                     Same("JSON"),
	"application/geo+json":                 Same("GeoJSON"),
	"application/schema+json":              Same("JSON"),
	"application/xml":                      Same("XML"),
	"text/xml":                             Same("XML"),
	"text/html":                            Same("HTML"),
	"text/plain":                           Bilingual{En: "Text", Fr: "Texte"},
	"application/pdf":                      Same("PDF"),
	"image/tiff":                           Same("TIFF"),
	"image/tiff;application=geotiff":       Same("GeoTIFF"),
	"image/png":                            Same("PNG"),
	"image/jpeg":                           Same("JPEG"),
	"image/jp2":                            Same("JPEG 2000"),
	"application/x-hdf5":                   Same("HDF5"),
	"application/x-hdf":                    Same("HDF"),
	"application/x-netcdf":                 Same("NetCDF"),
	"application/netcdf":                   Same("NetCDF"),
	"application/vnd.laszip":               Same("LAZ"),
	"application/vnd.las":                  Same("LAS"),
	"application/x-parquet":                Same("Parquet"),
	"application/vnd.apache.parquet":       Same("Parquet"),
	"application/geopackage+sqlite3":       Same("GeoPackage"),
	"application/vnd.google-earth.kml+xml": Same("KML"),
	"application/zip":                      Same("ZIP"),

	"application/vnd.oai.openapi+json;version=3.0": Same("OpenAPI"),
	"image/tiff;application=geotiff;profile=cloud-optimized": Same("COG"),
	"image/vnd.stac.geotiff;cloud-optimized=true": Same("COG"),
}

// RelationType returns the option type of a link relation.
func RelationType(rel string) Bilingual {
	if t, ok := relationTypes[strings.ToLower(strings.TrimSpace(rel))]; ok {
		return t
	}
	return other
}

// RoleType returns the option type of the first asset role.
func RoleType(roles []string) Bilingual {
	if len(roles) == 0 {
		return other
	}
	if t, ok := roleTypes[strings.ToLower(strings.TrimSpace(roles[0]))]; ok {
		return t
	}
	return other
}

// MediaTypeFormat returns the option format of a media type. Parameters are
// matched first, then the bare type.
func MediaTypeFormat(mediaType string) Bilingual {
	key := normalizeMediaType(mediaType)
	if key == "" {
		return other
	}
	if f, ok := mediaTypeFormats[key]; ok {
		return f
	}

	base, _, _ := strings.Cut(key, ";")
	if f, ok := mediaTypeFormats[base]; ok {
		return f
	}
	return other
}

func normalizeMediaType(mediaType string) string {
	return strings.ToLower(strings.Join(strings.Fields(mediaType), ""))
}
