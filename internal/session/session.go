package session

// User is the identity record returned by the backend after an OAuth exchange
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Name      string `json:"name,omitempty"`
	Picture   string `json:"picture,omitempty"`
}

// Tokens is the credential set issued by the backend
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

// PendingPlan remembers a paid-plan selection made before the user logged in,
// so the flow can resume on the confirmation page after the OAuth round trip
type PendingPlan struct {
	Tier  string `json:"tier"`
	Cycle string `json:"cycle"`
}

// Session is the current identity and credential state for one browser
// session. The struct itself is pure state: every method below is a plain
// transition with no storage or cookie side effects, so they can be tested
// in isolation. The Handle wraps these with persistence and mirroring.
type Session struct {
	User            *User
	Tokens          Tokens
	IsAuthenticated bool
	HasHydrated     bool
	PendingPlan     *PendingPlan
}

// Login sets the full credential and identity state after a successful
// exchange
func (s *Session) Login(tokens Tokens, user User) {
	s.Tokens = tokens
	s.User = &user
	s.IsAuthenticated = true
}

// Logout drops identity and credentials
func (s *Session) Logout() {
	s.Tokens = Tokens{}
	s.User = nil
	s.IsAuthenticated = false
	s.PendingPlan = nil
}

// RefreshTokens replaces the credential set while retaining the user.
// IsAuthenticated is recomputed from the existing user so a token rotation
// never flips a logged-out session to logged-in, and never logs out a user
// whose token merely rotated.
func (s *Session) RefreshTokens(tokens Tokens) {
	s.Tokens = tokens
	s.IsAuthenticated = s.User != nil
}

// UpdateUser replaces the identity record without touching tokens or the
// auth flag, used after profile edits
func (s *Session) UpdateUser(user User) {
	s.User = &user
}

// SetPendingPlan records a plan selection made pre-authentication
func (s *Session) SetPendingPlan(tier, cycle string) {
	s.PendingPlan = &PendingPlan{Tier: tier, Cycle: cycle}
}

// ClearPendingPlan discards any remembered plan selection
func (s *Session) ClearPendingPlan() {
	s.PendingPlan = nil
}
