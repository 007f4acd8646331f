package geocore

import (
	"fmt"
	"regexp"
	"strings"
)

// TitleStrategy names an item title format.
type TitleStrategy string

const (
	// TitleYear renders "<year> - <collection title>". It is the default.
	TitleYear TitleStrategy = "year"
	// TitleItemIDSuffix replaces the year with the last "-" token of the item id.
	TitleItemIDSuffix TitleStrategy = "item-id-suffix"
	// TitleYearItemToken renders "<year> <token> - <collection title>" where the
	// token is the first alphabetic run following a "-" in the item id.
	TitleYearItemToken TitleStrategy = "year-item-token"
	// TitleYearItemID renders "<year> - <item id>-<collection title>".
	TitleYearItemID TitleStrategy = "year-item-id"
)

type titleFunc func(year, itemID string, collection Bilingual) Bilingual

var titleStrategies = map[TitleStrategy]titleFunc{
	TitleYear:          yearTitle,
	TitleItemIDSuffix:  itemIDSuffixTitle,
	TitleYearItemToken: yearItemTokenTitle,
	TitleYearItemID:    yearItemIDTitle,
}

// Valid reports whether s is a known strategy.
func (s TitleStrategy) Valid() bool {
	_, ok := titleStrategies[s]
	return ok
}

// ParseTitleStrategy validates a configured strategy name.
func ParseTitleStrategy(name string) (TitleStrategy, error) {
	s := TitleStrategy(name)
	if !s.Valid() {
		return "", fmt.Errorf("unknown item title strategy %q", name)
	}
	return s, nil
}

// ItemTitle formats an item title with the strategy configured for the
// collection, falling back to TitleYear.
func (s Settings) ItemTitle(collectionID, year, itemID string, collection Bilingual) Bilingual {
	fn, ok := titleStrategies[s.TitleStrategies[collectionID]]
	if !ok {
		fn = yearTitle
	}
	return fn(year, itemID, collection)
}

func yearTitle(year, _ string, collection Bilingual) Bilingual {
	return collection.prefixed(year+" - ", year+" - ")
}

func itemIDSuffixTitle(_, itemID string, collection Bilingual) Bilingual {
	suffix := itemID[strings.LastIndex(itemID, "-")+1:]
	return collection.prefixed(suffix+" - ", suffix+" - ")
}

var itemTokenPattern = regexp.MustCompile(`-([A-Za-z_]+)`)

func yearItemTokenTitle(year, itemID string, collection Bilingual) Bilingual {
	token := itemID
	if m := itemTokenPattern.FindStringSubmatch(itemID); m != nil {
		token = strings.ReplaceAll(m[1], "_", " ")
	}

	head := year + " " + token + " - "
	return collection.prefixed(head, head)
}

func yearItemIDTitle(year, itemID string, collection Bilingual) Bilingual {
	head := year + " - " + itemID + "-"
	return collection.prefixed(head, head)
}
