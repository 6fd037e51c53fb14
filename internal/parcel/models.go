package parcel

// Attribute is one trait/value pair in the metadata attribute list. Order is
// meaningful and fixed by the composer.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Metadata is the canonical parcel metadata document. It is immutable once
// pinned: a new pipeline run produces a new document under a new content id,
// never an in-place update.
type Metadata struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Image       string       `json:"image"`
	Coordinates [][2]float64 `json:"coordinates"`
	Price       string       `json:"price"`
	Country     string       `json:"country"`
	State       string       `json:"state"`
	Attributes  []Attribute  `json:"attributes"`
}

// CreateRequest is the parsed input to the creation pipeline.
type CreateRequest struct {
	Name            string
	Description     string
	CoordinatesJSON string
	Price           string
	Country         string
	State           string

	// Optional supporting document, already read off the wire.
	Document     []byte
	DocumentName string
	DocumentType string
}

// GatewayLinks carries HTTP retrieval URLs for everything the pipeline pinned.
type GatewayLinks struct {
	Image    string `json:"image"`
	Metadata string `json:"metadata"`
	Document string `json:"document,omitempty"`
}

// CreateResult is the pipeline's response unit.
type CreateResult struct {
	MetadataURI string       `json:"metadataUri"`
	Metadata    Metadata     `json:"metadata"`
	Gateway     GatewayLinks `json:"gateway"`
}
