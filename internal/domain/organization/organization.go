package organization

import "errors"

type Organization struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Ref is the {id, name} summary embedded in user payloads.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (o Organization) Ref() Ref {
	return Ref{ID: o.ID, Name: o.Name}
}

var ErrNotFound = errors.New("organization not found")

type CreateRequest struct {
	Name    string `json:"name" binding:"max=30"`
	Phone   string `json:"phone" binding:"max=20"`
	Address string `json:"address" binding:"max=100"`
}

// UpdateRequest is a partial update: nil fields are left untouched.
type UpdateRequest struct {
	Name    *string `json:"name" binding:"omitempty,max=30"`
	Phone   *string `json:"phone" binding:"omitempty,max=20"`
	Address *string `json:"address" binding:"omitempty,max=100"`
}

func (r UpdateRequest) Apply(o Organization) Organization {
	if r.Name != nil {
		o.Name = *r.Name
	}
	if r.Phone != nil {
		o.Phone = *r.Phone
	}
	if r.Address != nil {
		o.Address = *r.Address
	}
	return o
}
