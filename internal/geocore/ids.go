package geocore

import "strings"

// ObjectExt is the extension of every published feature object.
const ObjectExt = ".geojson"

// RootFeatureID returns "<source>-root-<root id>" with spaces in the root id
// replaced by "-".
func RootFeatureID(source, rootID string) string {
	return source + "-root-" + strings.ReplaceAll(rootID, " ", "-")
}

// CollectionFeatureID returns "<source>-<collection id>".
func CollectionFeatureID(source, collectionID string) string {
	return source + "-" + collectionID
}

// ItemFeatureID returns "<source>-<collection id>-<item id>".
func ItemFeatureID(source, collectionID, itemID string) string {
	return source + "-" + collectionID + "-" + itemID
}

// ObjectKey returns the object name a feature is published under.
func ObjectKey(featureID string) string {
	return featureID + ObjectExt
}
