package model

type EventType string

const (
	EventConference EventType = "conference"
	EventPrayer     EventType = "priere"
	EventCeremony   EventType = "ceremonie"
	EventVisit      EventType = "visite"
	EventOther      EventType = "autre"
)

type Event struct {
	ID              int64     `json:"id" validate:"required"`
	Title           string    `json:"titre" validate:"required"`
	Description     string    `json:"description"`
	Type            EventType `json:"type,omitempty"`
	DateTime        string    `json:"date_heure"`
	DateTimeISO     string    `json:"date_heure_iso"`
	Location        string    `json:"lieu"`
	Capacity        *int      `json:"capacite_max"`
	RegisteredCount int       `json:"nombre_inscrits"`
	SeatsLeft       *int      `json:"places_restantes"`
	Full            bool      `json:"est_complet"`
	Active          bool      `json:"est_actif"`
	ImageURL        string    `json:"image_url,omitempty"`
	Registered      bool      `json:"utilisateur_inscrit"`
	// Participants is only sent to administrators.
	Participants []Participant `json:"inscrits,omitempty"`
}

type Participant struct {
	ID           int64  `json:"id"`
	Name         string `json:"nom"`
	Surname      string `json:"prenom"`
	Email        string `json:"email"`
	RegisteredAt string `json:"date_inscription"`
}

// MarkRegistered applies a successful (un)registration to the local copy
// so it can be shown without refetching.
func (e *Event) MarkRegistered(registered bool) {
	if e.Registered == registered {
		return
	}
	e.Registered = registered

	delta := 1
	if !registered {
		delta = -1
	}
	e.RegisteredCount += delta
	if e.RegisteredCount < 0 {
		e.RegisteredCount = 0
	}
	if e.SeatsLeft != nil {
		left := *e.SeatsLeft - delta
		if left < 0 {
			left = 0
		}
		e.SeatsLeft = &left
		e.Full = left == 0
	}
}

// EventInput is the admin payload for creating or updating an event.
type EventInput struct {
	Title       string    `json:"titre" validate:"required,min=3,max=255"`
	Description string    `json:"description" validate:"required,min=10,max=1000"`
	Type        EventType `json:"type,omitempty" validate:"omitempty,oneof=conference priere ceremonie visite autre"`
	DateTime    string    `json:"date_heure" validate:"required"`
	Location    string    `json:"lieu" validate:"required,min=3"`
	Capacity    *int      `json:"capacite_max,omitempty" validate:"omitempty,gt=0"`
	Active      *bool     `json:"est_actif,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// Registration is an entry of /mes-inscriptions.
type Registration struct {
	ID        int64  `json:"id"`
	Event     *Event `json:"evenement"`
	CreatedAt string `json:"created_at,omitempty"`
}
