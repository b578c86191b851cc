package models

// Domain is an identity domain: participants and admins hold
// independent credentials in one client.
type Domain string

const (
	DomainParticipant Domain = "participant"
	DomainAdmin       Domain = "admin"
)

// TokenKey returns the durable storage key for the domain's bearer
// token.
func (d Domain) TokenKey() string {
	return string(d) + "-token"
}

// Valid returns true for a known identity domain
func (d Domain) Valid() bool {
	return d == DomainParticipant || d == DomainAdmin
}
