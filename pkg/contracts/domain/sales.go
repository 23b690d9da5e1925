package domain

// Canonical column names of the sales dataset after header normalization.
const (
	ColumnYear        = "annee"
	ColumnProductType = "type_produit"
	ColumnProductName = "nom_produit"
	ColumnQuantity    = "quantite"
	ColumnAmount      = "prix"
	ColumnChannelID   = "vecteur_id"
	ColumnCountry     = "country"
	ColumnClientName  = "client_name"
)

// RequiredColumns is the set of columns a sales file must provide.
// Country and client name are later schema additions and stay optional.
var RequiredColumns = []string{
	ColumnYear,
	ColumnProductType,
	ColumnProductName,
	ColumnQuantity,
	ColumnAmount,
	ColumnChannelID,
}

// SalesRecord is one normalized row of the sales dataset.
type SalesRecord struct {
	Year        int     `json:"year" csv:"annee" validate:"required,min=1900,max=2200"`
	ProductType string  `json:"product_type" csv:"type_produit" validate:"required"`
	ProductName string  `json:"product_name" csv:"nom_produit" validate:"required"`
	Quantity    float64 `json:"quantity" csv:"quantite" validate:"min=0"`
	Amount      float64 `json:"amount" csv:"prix" validate:"min=0"`
	ChannelID   string  `json:"channel_id" csv:"vecteur_id" validate:"required"`
	Country     string  `json:"country,omitempty" csv:"country"`
	ClientName  string  `json:"client_name,omitempty" csv:"client_name"`

	// Derived fields, computed during normalization.
	YearLabel   string  `json:"year_label" csv:"-"`
	Revenue     float64 `json:"revenue" csv:"-"`
	ClientLabel string  `json:"client_label" csv:"-"`
}

// Label returns the display label for the record's client, falling back to
// the raw channel identifier when no client name was supplied.
func (r SalesRecord) Label() string {
	if r.ClientName != "" {
		return r.ClientName
	}
	return r.ChannelID
}

// ClientRef is one (identifier, label) pair from the dataset.
type ClientRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ResolutionKind classifies the outcome of a client lookup.
type ResolutionKind string

const (
	ResolutionNone      ResolutionKind = "none"
	ResolutionUnique    ResolutionKind = "unique"
	ResolutionAmbiguous ResolutionKind = "ambiguous"
)

// Resolution is the result of resolving free-text input against the dataset.
// Exactly one of Match / Candidates is populated, depending on Kind.
type Resolution struct {
	Kind       ResolutionKind `json:"kind"`
	Match      *ClientRef     `json:"match,omitempty"`
	Candidates []ClientRef    `json:"candidates,omitempty"`
}
