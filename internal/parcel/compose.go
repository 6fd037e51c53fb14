package parcel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"landq/internal/cas"
)

const (
	defaultDescription = "A unique land parcel"
	defaultPrice       = "0"

	traitPrice    = "Price (USD)"
	traitCoords   = "Coordinates"
	traitCountry  = "Country"
	traitState    = "State"
	traitDocument = "Land Document"
)

// Compose assembles the canonical metadata document from user fields plus the
// content ids produced earlier in the pipeline. Total and deterministic over
// well-formed input: same fields, same CIDs, same timestamp yield the same
// document byte for byte. Malformed coordinate payloads never reach here; the
// pipeline rejects them first.
func Compose(req CreateRequest, coords [][2]float64, imageCID, documentCID string, now time.Time) Metadata {
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Land Parcel %d", now.UnixMilli())
	}
	description := req.Description
	if description == "" {
		description = defaultDescription
	}
	price := req.Price
	if price == "" {
		price = defaultPrice
	}

	// Attribute order is fixed: price, coordinates, country, state, then the
	// document reference iff a document was pinned.
	attributes := []Attribute{
		{TraitType: traitPrice, Value: price},
		{TraitType: traitCoords, Value: joinCoordinates(coords)},
		{TraitType: traitCountry, Value: req.Country},
		{TraitType: traitState, Value: req.State},
	}
	if documentCID != "" {
		attributes = append(attributes, Attribute{
			TraitType: traitDocument,
			Value:     cas.URIScheme + documentCID,
		})
	}

	return Metadata{
		Name:        name,
		Description: description,
		Image:       cas.URIScheme + imageCID,
		Coordinates: coords,
		Price:       price,
		Country:     req.Country,
		State:       req.State,
		Attributes:  attributes,
	}
}

func joinCoordinates(coords [][2]float64) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.FormatFloat(c[0], 'f', -1, 64) + "," + strconv.FormatFloat(c[1], 'f', -1, 64)
	}
	return strings.Join(parts, " | ")
}
