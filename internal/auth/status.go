package auth

// LoginStatus is the body of GET /login-status. The flag is a string on
// the wire; only the exact value "true" means logged in.
type LoginStatus struct {
	IsUserLoggedIn string `json:"isUserLoggedIn"`
	URL            string `json:"url"`
	Email          string `json:"email,omitempty"`
}

const (
	LoginURL  = "/login"
	LogoutURL = "/auth/logout"
)

// StatusFor builds the login status for email ("" when anonymous).
func StatusFor(email string) LoginStatus {
	if email == "" {
		return LoginStatus{IsUserLoggedIn: "false", URL: LoginURL}
	}
	return LoginStatus{IsUserLoggedIn: "true", URL: LogoutURL, Email: email}
}

// LoggedIn reports whether the status carries the exact "true" flag.
func (s LoginStatus) LoggedIn() bool {
	return s.IsUserLoggedIn == "true"
}
