package domain

// Lead statuses. A lead is written as pending on submission and flipped to
// processed exactly once when a result is attached.
const (
	LeadStatusPending   = "pending"
	LeadStatusProcessed = "processed"
)

// User roles stored on the user record.
const (
	RoleUser       = "user"
	RoleSuperadmin = "superadmin"
)

// Lead is a single form submission record.
type Lead struct {
	ID            string
	FormID        string
	Email         string
	URL           string
	ApartmentSize int
	ResultType    string
	ResultText    string
	Status        string
	CreatedAt     string
}

// Form is a lead-capture form owned by a user. LeadCount is a cached counter
// maintained by the submission path, not a live aggregate.
type Form struct {
	ID        string
	OwnerID   string
	Active    bool
	LeadCount int
	LeadLimit int
	Theme     string
	Language  string
	CreatedAt string
}

// User is an account record. Role gates privileged operations.
type User struct {
	ID        string
	Email     string
	Role      string
	CreatedAt string
}

// UserStats is a user joined with aggregated usage numbers for the admin
// listing: form count and lead count summed across the user's forms.
type UserStats struct {
	User
	FormCount int
	LeadCount int
}
