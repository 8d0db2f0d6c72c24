package viewmodel

// User represents the signed-in user exposed to templates.
type User struct {
	Email string
	Role  string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	// AuthLoading is set when the session had not settled when the page rendered.
	AuthLoading bool
	CanEdit     bool
	IsPro       bool
	User        *User
}
