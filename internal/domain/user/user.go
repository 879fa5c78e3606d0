package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/organization"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string `json:"-"` // never expose hash in JSON
	Name         string
	Phone        *string
	Birthdate    *time.Time
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	DateJoined   time.Time
	LastLogin    *time.Time
	Organization *organization.Ref
	Groups       []group.Ref
}

func (u User) OrganizationID() *int64 {
	if u.Organization == nil {
		return nil
	}
	id := u.Organization.ID
	return &id
}

func (u User) GroupNames() []string {
	return group.Names(u.Groups)
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already in use")
)

type CreateRequest struct {
	Name      string     `json:"name" binding:"max=30"`
	Phone     *string    `json:"phone" binding:"omitempty,max=20"`
	Email     string     `json:"email" binding:"required,email,max=254"`
	Birthdate *time.Time `json:"birthdate"`
	Groups    []int64    `json:"groups" binding:"omitempty,dive,min=1"`
	Password  string     `json:"password" binding:"required,max=128"`
}

// UpdateRequest is a partial update: nil fields are left untouched. Phone and birthdate are
// nullable, so an explicit JSON null clears them.
type UpdateRequest struct {
	Email     *string    `json:"email" binding:"omitempty,email,max=254"`
	Name      *string    `json:"name" binding:"omitempty,max=30"`
	Phone     *string    `json:"phone" binding:"omitempty,max=20"`
	Birthdate *time.Time `json:"birthdate"`

	ClearPhone     bool `json:"-"`
	ClearBirthdate bool `json:"-"`
}

func (r *UpdateRequest) UnmarshalJSON(data []byte) error {
	type plain UpdateRequest
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ClearPhone = isNull(raw, "phone")
	r.ClearBirthdate = isNull(raw, "birthdate")
	return nil
}

func isNull(raw map[string]json.RawMessage, key string) bool {
	v, ok := raw[key]
	return ok && bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func (r UpdateRequest) Apply(u User) User {
	if r.Email != nil {
		u.Email = NormalizeEmail(*r.Email)
	}
	if r.Name != nil {
		u.Name = *r.Name
	}
	switch {
	case r.ClearPhone:
		u.Phone = nil
	case r.Phone != nil:
		u.Phone = r.Phone
	}
	switch {
	case r.ClearBirthdate:
		u.Birthdate = nil
	case r.Birthdate != nil:
		u.Birthdate = r.Birthdate
	}
	return u
}

// NewUser is what the store persists on create. OrganizationID is always set by the caller from
// the acting administrator, never from the request body.
type NewUser struct {
	Email          string
	PasswordHash   string
	Name           string
	Phone          *string
	Birthdate      *time.Time
	OrganizationID *int64
	GroupIDs       []int64
	IsActive       bool
	IsStaff        bool
	IsSuperuser    bool
}

type ListFilter struct {
	OrganizationID int64
	Phone          *string
	Search         *string
	Limit          int
	Offset         int
}

// NormalizeEmail lowercases the domain part only, like most mail systems treat addresses.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
