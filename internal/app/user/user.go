/*
Package user contains the representation of a chat participant as the client sees it.

The server only ever sends display names; the color is derived locally and is
recomputed on every render rather than stored.
*/
package user

import "chatterbox/internal/app/color"

// User is a participant of the chat, identified by display name.
type User struct {
	// Name is the display name announced by the participant.
	Name string `json:"name"`

	// Color is the CSS color derived from Name.
	Color string `json:"color"`

	// Hue is the hue component of Color.
	Hue int `json:"hue"`
}

// New builds a User for name with its derived color.
func New(name string) User {
	return User{
		Name:  name,
		Color: color.CSS(name),
		Hue:   color.Hue(name),
	}
}

// FromNames builds Users for names, preserving order.
func FromNames(names []string) []User {
	users := make([]User, 0, len(names))
	for _, n := range names {
		users = append(users, New(n))
	}
	return users
}
