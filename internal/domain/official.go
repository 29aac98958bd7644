package domain

// Official is an elected legislator serving at least one site's locale.
type Official struct {
	State    string  `json:"state"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	District string  `json:"district"`
	Party    *string `json:"party"`
}

// VacantSeat is stored in a site's official set in place of an unfilled office.
const VacantSeat = "vacant"

// OfficialKey builds the registry key "<postal state> <name>".
func OfficialKey(postalState, name string) string {
	return postalState + " " + name
}

// NewOfficial builds an official record; party may be nil.
func NewOfficial(state, name, role, district string, party *string) *Official {
	return &Official{State: state, Name: name, Role: role, District: district, Party: party}
}

// Key returns the registry key of the official.
func (o *Official) Key() string {
	return OfficialKey(o.State, o.Name)
}

func (o *Official) String() string {
	return o.Role + " " + o.State + " " + o.Name
}
