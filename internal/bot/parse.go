package bot

import (
	"errors"
	"fmt"
	"strings"
)

// AddFormat is the input layout expected after /add.
const AddFormat = "Title | Username | Password [| Notes] [| Group]"

// ErrParse marks malformed /add input.
var ErrParse = errors.New("invalid entry format")

// AddInput is a parsed /add line.
type AddInput struct {
	Title    string
	Username string
	Secret   string
	Notes    string
	Group    string
}

// ParseAddInput splits "Title | Username | Secret [| Notes] [| Group]".
// Three to five fields are accepted; surrounding spaces are trimmed and
// the first three fields must not be empty. An empty group means root.
// There is no escaping: a '|' always starts a new field.
func ParseAddInput(text string) (AddInput, error) {
	parts := strings.Split(text, "|")
	if len(parts) < 3 || len(parts) > 5 {
		return AddInput{}, fmt.Errorf("%w: expected 3 to 5 fields separated by '|', got %d", ErrParse, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	in := AddInput{Title: parts[0], Username: parts[1], Secret: parts[2]}
	if len(parts) >= 4 {
		in.Notes = parts[3]
	}
	if len(parts) == 5 {
		in.Group = parts[4]
	}

	switch {
	case in.Title == "":
		return AddInput{}, fmt.Errorf("%w: title is empty", ErrParse)
	case in.Username == "":
		return AddInput{}, fmt.Errorf("%w: username is empty", ErrParse)
	case in.Secret == "":
		return AddInput{}, fmt.Errorf("%w: password is empty", ErrParse)
	}

	return in, nil
}
