package idm

// Identity is the IDM core's record of a person or organization. Read-mostly:
// this service only patches email validation and posts activate/merge.
type Identity struct {
	ID          string       `json:"id"`
	Type        string       `json:"@type"` // "Person" | "Organization"
	State       string       `json:"state"` // "established", "pending", ...
	Label       string       `json:"label"`
	PrimaryName *PrimaryName `json:"primary_name"`
	Emails      []EmailRecord `json:"emails"`
}

// PrimaryName is the structured name on Person identities.
type PrimaryName struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// EmailRecord is one address attached to an identity. Order matters: email
// selection policies are first-match-wins over this sequence.
type EmailRecord struct {
	URL       string `json:"url"`
	Value     string `json:"value"`
	Context   string `json:"context"` // "home", "work", ...
	Validated bool   `json:"validated"`
}

const (
	TypePerson       = "Person"
	TypeOrganization = "Organization"

	StateEstablished = "established"

	ContextHome = "home"
)
