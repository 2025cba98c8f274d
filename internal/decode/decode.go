// Package decode turns fetched bytes into a displayable artifact.
package decode

import (
	"bytes"
	"fmt"
	"image"

	_ "image/jpeg"
	_ "image/png"
)

// Artifact is a decoded image plus the summary the consumer displays.
type Artifact struct {
	Label     string
	Format    string
	Width     int
	Height    int
	SizeBytes int
	Image     image.Image
}

// Error reports a failed decode of the labeled source.
type Error struct {
	Label string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Label, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Image decodes data into an Artifact. The label travels with the artifact
// for display and shows up in decode failures.
func Image(data []byte, label string) (*Artifact, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &Error{Label: label, Err: err}
	}
	bounds := img.Bounds()
	return &Artifact{
		Label:     label,
		Format:    format,
		Width:     bounds.Dx(),
		Height:    bounds.Dy(),
		SizeBytes: len(data),
		Image:     img,
	}, nil
}
