package taxon

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher asks the authority about one scientific name.
type Fetcher interface {
	// Fetch returns the raw reply of the authority. Any HTTP status is a
	// valid Reply, an error means the request could not be completed.
	Fetch(ctx context.Context, name string) (*Reply, error)
}

// Reply is a raw answer of the authority.
type Reply struct {
	StatusCode int
	Body       []byte
}

// StatusError is an unexpected status of the authority reply.
type StatusError struct {
	Name       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(
		"authority replied %d %s for %q",
		e.StatusCode, http.StatusText(e.StatusCode), e.Name,
	)
}

// DecodeError is a reply body that could not be read as a list of
// candidates.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode authority reply for %q: %s", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Candidate is one record of the authority reply.
type Candidate struct {
	AphiaID        int    `json:"AphiaID"`
	URL            string `json:"url"`
	ScientificName string `json:"scientificname"`
	Status         string `json:"status"`
	ValidName      string `json:"valid_name"`
	ValidAphiaID   int    `json:"valid_AphiaID"`
	Rank           string `json:"rank"`
}
