package domain

// State is immutable reference data plus an aggregate of recent politics articles.
type State struct {
	Name                string  `json:"name"`
	PostalState         string  `json:"postal_state"`
	Lat                 float64 `json:"lat"`
	Lng                 float64 `json:"lng"`
	MLat                float64 `json:"mlat"`
	MLng                float64 `json:"mlng"`
	LocalRecentPolitics int     `json:"local_recent_politics"`
}

// NewState builds a state and computes its Mercator projection.
func NewState(name, postal string, lat, lng float64) *State {
	mlat, mlng := Mercator(lat, lng)
	return &State{
		Name:        name,
		PostalState: postal,
		Lat:         lat,
		Lng:         lng,
		MLat:        mlat,
		MLng:        mlng,
	}
}

func (s *State) String() string {
	return s.PostalState + " / " + s.Name
}
