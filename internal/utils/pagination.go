package utils

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is the limit/offset window requested by a list call.
type Page struct {
	Limit  int
	Offset int
}

// Envelope is the list response shape: total count plus links to the neighbouring pages.
type Envelope struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// ParsePage reads ?limit= and ?offset=. Missing or malformed values fall back to the defaults
// and limit is clamped to MaxLimit.
func ParsePage(q url.Values) Page {
	p := Page{Limit: DefaultLimit}

	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		p.Offset = n
	}

	return p
}

// NewEnvelope builds the next/previous links from the request URL, keeping every other query
// parameter as it was sent.
func NewEnvelope(u *url.URL, p Page, count int, results any) Envelope {
	env := Envelope{Count: count, Results: results}

	if p.Offset+p.Limit < count {
		next := pageURL(u, p.Limit, p.Offset+p.Limit)
		env.Next = &next
	}

	if p.Offset > 0 {
		prev := p.Offset - p.Limit
		if prev < 0 {
			prev = 0
		}
		link := pageURL(u, p.Limit, prev)
		env.Previous = &link
	}

	return env
}

func pageURL(u *url.URL, limit, offset int) string {
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))

	// the first page carries no offset
	if offset == 0 {
		q.Del("offset")
	} else {
		q.Set("offset", strconv.Itoa(offset))
	}

	out := url.URL{Path: u.Path, RawQuery: q.Encode()}
	return out.String()
}
