package changelog

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

// Storage layout of one record inside page markup:
//
//	<!--!<~>QlpoOTFBWSZTW...
//	...wrapped at 76 columns...
//	...SZTWc=-->
//
// The payload is base64(bzip2(compact JSON)). The !<~> marker keeps the
// comments distinguishable from ordinary editorial comments on the page.
const (
	commentOpen  = "<!--!<~>"
	commentClose = "-->"

	// wrapColumn is the line width the encoded string is wrapped at when
	// embedded in a page. Decoding strips all line breaks first, so the
	// encoding survives arbitrary re-wrapping by wiki editors.
	wrapColumn = 76
)

// SyntaxError reports a stored change record that could not be decoded. The
// historical chain cannot be trusted past an unreadable record, so callers
// must treat this as fatal for the current run rather than skipping the
// record.
type SyntaxError struct {
	// Stage names the decoding stage that failed: "base64", "bzip2" or
	// "json".
	Stage string
	Err   error
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in change record (%s): %v", e.Stage, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *SyntaxError) Unwrap() error { return e.Err }

// Encode serializes the change to its storage form: compact JSON,
// bzip2-compressed, base64-encoded. The result contains no line breaks.
func Encode(c Change) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode change: %w", err)
	}

	var buf bytes.Buffer
	zw, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return "", fmt.Errorf("encode change: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return "", fmt.Errorf("encode change: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("encode change: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. Line breaks anywhere in the input are stripped
// before decoding. A failure at any stage returns a *SyntaxError.
func Decode(encoded string) (Change, error) {
	encoded = strings.NewReplacer("\n", "", "\r", "").Replace(encoded)

	compressed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Change{}, &SyntaxError{Stage: "base64", Err: err}
	}

	zr, err := bzip2.NewReader(bytes.NewReader(compressed), nil)
	if err != nil {
		return Change{}, &SyntaxError{Stage: "bzip2", Err: err}
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		return Change{}, &SyntaxError{Stage: "bzip2", Err: err}
	}
	if err := zr.Close(); err != nil {
		return Change{}, &SyntaxError{Stage: "bzip2", Err: err}
	}

	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return Change{}, &SyntaxError{Stage: "json", Err: err}
	}
	return c, nil
}

// EncodeComment returns the full comment for embedding in page markup, with
// the encoded payload wrapped at wrapColumn characters.
func EncodeComment(c Change) (string, error) {
	encoded, err := Encode(c)
	if err != nil {
		return "", err
	}
	return strings.Join(wrap(commentOpen+encoded, wrapColumn), "\n") + commentClose, nil
}

// wrap splits s into chunks of at most width characters.
func wrap(s string, width int) []string {
	var lines []string
	for len(s) > width {
		lines = append(lines, s[:width])
		s = s[width:]
	}
	return append(lines, s)
}
