package form

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxAttachment caps attachment size when no limit is given.
const DefaultMaxAttachment = 5 << 20

var (
	ErrEmptyAttachment = errors.New("form: attachment is empty")
	ErrNotImage        = errors.New("form: attachment is not an image")
	ErrTooLarge        = errors.New("form: attachment is too large")
)

// AttachmentResult is the outcome of one attachment read.
type AttachmentResult struct {
	DataURL string
	Err     error
}

// EncodeAttachment reads r in the background and delivers exactly one result:
// a data URL ("data:image/png;base64,...") or an error. The channel is closed
// after the result. Reads longer than limit bytes fail with ErrTooLarge.
func EncodeAttachment(ctx context.Context, r io.Reader, limit int64) <-chan AttachmentResult {
	if limit <= 0 {
		limit = DefaultMaxAttachment
	}
	out := make(chan AttachmentResult, 1)
	done := make(chan AttachmentResult, 1)

	go func() {
		url, err := encode(r, limit)
		done <- AttachmentResult{DataURL: url, Err: err}
	}()
	go func() {
		defer close(out)
		select {
		case res := <-done:
			out <- res
		case <-ctx.Done():
			out <- AttachmentResult{Err: ctx.Err()}
		}
	}()
	return out
}

func encode(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("form: read attachment: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyAttachment
	}
	if int64(len(data)) > limit {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w (%s)", ErrNotImage, mt.String())
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// Await blocks until ch delivers or ctx ends.
func Await(ctx context.Context, ch <-chan AttachmentResult) (string, error) {
	select {
	case res, ok := <-ch:
		if !ok {
			return "", ErrEmptyAttachment
		}
		return res.DataURL, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
