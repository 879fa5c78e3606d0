package user

import (
	"time"

	"github.com/geocoder89/orgdir/internal/domain/group"
	"github.com/geocoder89/orgdir/internal/domain/organization"
)

// View selects which field set a handler renders for a user.
type View int

const (
	ViewFull View = iota
	ViewInfo
	ViewCreated
	ViewMember
)

type FullView struct {
	ID           int64             `json:"id"`
	Organization *organization.Ref `json:"organization"`
	Groups       []string          `json:"groups"`
	LastLogin    *time.Time        `json:"last_login"`
	IsSuperuser  bool              `json:"is_superuser"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Birthdate    *time.Time        `json:"birthdate"`
	Phone        *string           `json:"phone"`
	DateJoined   time.Time         `json:"date_joined"`
	IsStaff      bool              `json:"is_staff"`
	IsActive     bool              `json:"is_active"`
}

type InfoView struct {
	ID           int64             `json:"id"`
	Organization *organization.Ref `json:"organization"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	Birthdate    *time.Time        `json:"birthdate"`
	Phone        *string           `json:"phone"`
}

type CreatedView struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Phone     *string    `json:"phone"`
	Email     string     `json:"email"`
	Birthdate *time.Time `json:"birthdate"`
	Groups    []int64    `json:"groups"`
}

type MemberView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func Render(u User, v View) any {
	switch v {
	case ViewFull:
		return FullView{
			ID:           u.ID,
			Organization: u.Organization,
			Groups:       group.Names(u.Groups),
			LastLogin:    u.LastLogin,
			IsSuperuser:  u.IsSuperuser,
			Email:        u.Email,
			Name:         u.Name,
			Birthdate:    u.Birthdate,
			Phone:        u.Phone,
			DateJoined:   u.DateJoined,
			IsStaff:      u.IsStaff,
			IsActive:     u.IsActive,
		}
	case ViewCreated:
		return CreatedView{
			ID:        u.ID,
			Name:      u.Name,
			Phone:     u.Phone,
			Email:     u.Email,
			Birthdate: u.Birthdate,
			Groups:    group.IDs(u.Groups),
		}
	case ViewMember:
		return MemberView{ID: u.ID, Name: u.Name}
	default:
		return InfoView{
			ID:           u.ID,
			Organization: u.Organization,
			Email:        u.Email,
			Name:         u.Name,
			Birthdate:    u.Birthdate,
			Phone:        u.Phone,
		}
	}
}

func RenderAll(users []User, v View) []any {
	out := make([]any, 0, len(users))
	for _, u := range users {
		out = append(out, Render(u, v))
	}
	return out
}
