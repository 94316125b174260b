package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/natefinch/atomic"
)

// Download is a finished export ready to be handed to the user once.
type Download struct {
	FileName string
	Image    Image
}

// DataURL encodes the image as a data: URL.
func (d Download) DataURL() string {
	return "data:" + d.Image.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(d.Image.Data)
}

// Deliverer hands a download to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, d Download) error
}

// DeliverFunc adapts a function to Deliverer.
type DeliverFunc func(ctx context.Context, d Download) error

func (fn DeliverFunc) Deliver(ctx context.Context, d Download) error {
	return fn(ctx, d)
}

// DirDeliverer writes downloads into Dir, replacing files with the same name
// atomically.
type DirDeliverer struct {
	Dir string
}

func (d DirDeliverer) Deliver(_ context.Context, dl Download) error {
	name := filepath.Base(dl.FileName)
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid file name %q", dl.FileName)
	}
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return atomic.WriteFile(filepath.Join(d.Dir, name), bytes.NewReader(dl.Image.Data))
}

// Path returns where a download named name would be written.
func (d DirDeliverer) Path(name string) string {
	return filepath.Join(d.Dir, filepath.Base(name))
}

// ResponseDeliverer writes a download as an HTTP attachment.
type ResponseDeliverer struct {
	W http.ResponseWriter
}

func (r ResponseDeliverer) Deliver(_ context.Context, dl Download) error {
	h := r.W.Header()
	h.Set("Content-Type", dl.Image.MIMEType)
	h.Set("Content-Length", strconv.Itoa(len(dl.Image.Data)))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	h.Set("Cache-Control", "no-store")
	r.W.WriteHeader(http.StatusOK)
	_, err := r.W.Write(dl.Image.Data)
	return err
}
