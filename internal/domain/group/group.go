package group

import "errors"

// Names that carry policy meaning. Any other group is an opaque label.
const (
	Administrator = "Administrator"
	Viewer        = "Viewer"
)

type Group struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

type Ref struct {
	ID   int64
	Name string
}

var (
	ErrNotFound     = errors.New("group not found")
	ErrUnknownGroup = errors.New("unknown group")
)

// Seed describes the groups provisioned at setup, keyed by name, with their permission codenames.
var Seed = []Group{
	{
		Name: Administrator,
		Permissions: []string{
			"add_user",
			"change_user",
			"delete_user",
			"view_user",
			"change_organization",
			"view_organization",
		},
	},
	{
		Name: Viewer,
		Permissions: []string{
			"view_user",
			"view_organization",
		},
	},
}

func Names(refs []Ref) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.Name)
	}
	return out
}

func IDs(refs []Ref) []int64 {
	out := make([]int64, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}
