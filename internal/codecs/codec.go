package codecs

import (
	"fmt"
	"io"
)

// Codec marshals and unmarshals values to and from bytes.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// Encode marshals v with c and writes it to w followed by a newline.
func Encode(w io.Writer, c Codec, v any) error {
	data, err := c.Marshal(v)
	if err != nil {
		return fmt.Errorf("codecs: marshal: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("codecs: write: %w", err)
	}
	return nil
}
