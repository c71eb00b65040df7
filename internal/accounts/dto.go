package accounts

import "time"

type CreateAccountRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	LastName    string  `json:"last_name" validate:"required,max=100"`
	Password    string  `json:"password" validate:"required,min=8"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=50"`
}

// UpdateAccountRequest carries a partial set of mutable fields. Nil or empty
// values leave the stored field unchanged.
type UpdateAccountRequest struct {
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	PhoneNumber *string `json:"phone_number,omitempty" validate:"omitempty,max=50"`
}

type DeactivateAccountRequest struct {
	Confirmation bool   `json:"confirmation"`
	Reason       string `json:"reason"`
}

// AccountView is the public-safe projection of an account. It carries every
// stored field except the password hash.
type AccountView struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PhoneNumber  *string    `json:"phone_number,omitempty"`
	IsActive     bool       `json:"is_active"`
	UserType     UserType   `json:"user_type"`
	AttemptsLeft int        `json:"attempts_left"`
	TimeLeft     *time.Time `json:"time_left,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// AccountRecord is the full projection returned on the trusted internal read
// path. It is the only response shape that includes the password hash and must
// never be merged with AccountView.
type AccountRecord struct {
	AccountView
	PasswordHash string `json:"password_hash"`
}

// Redacted projects the account into its public-safe view.
func (a Account) Redacted() AccountView {
	return AccountView{
		ID:           a.ID,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		PhoneNumber:  a.PhoneNumber,
		IsActive:     a.IsActive,
		UserType:     a.UserType,
		AttemptsLeft: a.AttemptsLeft,
		TimeLeft:     a.TimeLeft,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// Record projects the account verbatim, password hash included.
func (a Account) Record() AccountRecord {
	return AccountRecord{AccountView: a.Redacted(), PasswordHash: a.PasswordHash}
}

// UpdateSummary is the minimal projection returned after a successful update.
type UpdateSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PhoneNumber *string `json:"phone_number"`
}

type UpdateResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	User    UpdateSummary `json:"user"`
}

type DeactivateResponse struct {
	IsActive bool   `json:"is_active"`
	Message  string `json:"message"`
}

type RedactedResponse struct {
	User AccountView `json:"user"`
}

type ListAccountsResponse struct {
	Accounts []AccountView `json:"accounts"`
	Total    int           `json:"total"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}
