package domain

// Principal is the authenticated subject the assertion speaks about.
// It is supplied by the authentication collaborator and read-only here.
type Principal struct {
	// SubjectID is the stable unique identifier (the username in the
	// tested profile) carried in the NameID.
	SubjectID string

	// Attributes holds the principal's fields. Multi-valued fields
	// (group memberships) carry multiple entries.
	Attributes map[string][]string
}

// Values returns the values of a field, or nil if absent.
func (p *Principal) Values(field string) []string {
	if p.Attributes == nil {
		return nil
	}
	return p.Attributes[field]
}

// User is a stored account record managed by the administrative
// collaborator. Credential hashing mechanics live in the user store
// adapter, not in the core.
type User struct {
	Username     string   `json:"username" yaml:"username"`
	PasswordHash string   `json:"-" yaml:"password_hash"`
	Email        string   `json:"email,omitempty" yaml:"email,omitempty"`
	GivenName    string   `json:"given_name,omitempty" yaml:"given_name,omitempty"`
	Surname      string   `json:"surname,omitempty" yaml:"surname,omitempty"`
	Groups       []string `json:"groups,omitempty" yaml:"groups,omitempty"`
}

// Principal derives the read-only principal view of the user.
func (u *User) Principal() *Principal {
	attrs := map[string][]string{
		"username": {u.Username},
	}
	if u.Email != "" {
		attrs["email"] = []string{u.Email}
	}
	if u.GivenName != "" {
		attrs["givenName"] = []string{u.GivenName}
	}
	if u.Surname != "" {
		attrs["surname"] = []string{u.Surname}
	}
	if len(u.Groups) > 0 {
		attrs["groups"] = append([]string(nil), u.Groups...)
	}
	return &Principal{SubjectID: u.Username, Attributes: attrs}
}
