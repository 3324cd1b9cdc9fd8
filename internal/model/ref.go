// Package model defines data structures for the messaging sync daemon.
package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Ref points at a user, group or message. The backend sends it either as
// a bare id string or as a populated object.
type Ref struct {
	RawID     string
	Name      string
	FirstName string
	LastName  string
	Email     string
	Populated bool
}

type refObject struct {
	MongoID   string `json:"_id,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
}

// NewRef returns an unpopulated reference.
func NewRef(id string) Ref {
	return Ref{RawID: id}
}

// ID resolves the referenced id for both shapes.
func (r Ref) ID() string {
	return r.RawID
}

// IsZero reports whether the reference carries no id.
func (r Ref) IsZero() bool {
	return r.RawID == ""
}

// DisplayName returns the best human-readable name available.
func (r Ref) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	if full := strings.TrimSpace(r.FirstName + " " + r.LastName); full != "" {
		return full
	}
	if r.Email != "" {
		return r.Email
	}
	return r.RawID
}

// UnmarshalJSON accepts "id", {"_id": ...} and {"id": ...}.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref{RawID: id}
		return nil
	}

	var obj refObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}

	id := obj.ID
	if id == "" {
		id = obj.MongoID
	}

	*r = Ref{
		RawID:     id,
		Name:      obj.Name,
		FirstName: obj.FirstName,
		LastName:  obj.LastName,
		Email:     obj.Email,
		Populated: true,
	}
	return nil
}

// MarshalJSON writes populated refs as objects and bare refs as strings.
func (r Ref) MarshalJSON() ([]byte, error) {
	if !r.Populated {
		return json.Marshal(r.RawID)
	}
	return json.Marshal(refObject{
		ID:        r.RawID,
		Name:      r.Name,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
	})
}
