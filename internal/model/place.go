package model

type PlaceType string

const (
	PlaceMosque    PlaceType = "mosquee"
	PlaceHealth    PlaceType = "sante"
	PlaceLodging   PlaceType = "hebergement"
	PlaceFood      PlaceType = "restauration"
	PlaceTransport PlaceType = "transport"
	PlaceOther     PlaceType = "autre"
)

type Place struct {
	ID             int64     `json:"id" validate:"required"`
	Name           string    `json:"nom" validate:"required"`
	Type           PlaceType `json:"type"`
	TypeLabel      string    `json:"type_libelle,omitempty"`
	Description    string    `json:"description"`
	Address        string    `json:"adresse"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	EmergencyPhone string    `json:"numero_urgence,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	FavoritesCount int       `json:"nombre_favoris"`
	Favorite       bool      `json:"est_dans_mes_favoris"`
}

// PlaceInput is the admin payload for creating or updating a point of interest.
type PlaceInput struct {
	Name           string    `json:"nom" validate:"required,min=3,max=255"`
	Type           PlaceType `json:"type" validate:"required,oneof=mosquee sante hebergement restauration transport autre"`
	Description    string    `json:"description,omitempty"`
	Address        string    `json:"adresse" validate:"required"`
	Latitude       *float64  `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64  `json:"longitude,omitempty" validate:"omitempty,longitude"`
	EmergencyPhone string    `json:"numero_urgence,omitempty" validate:"omitempty,sn_phone"`
	ImageURL       string    `json:"image_url,omitempty"`
}
