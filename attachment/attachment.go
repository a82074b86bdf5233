// Package attachment materialises an outgoing message's parts on disk:
// content-type detection, filename dedupe, SMIL synthesis, and the
// resize-to-fit loop the Encode task runs when a message exceeds its
// size limit.
package attachment

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/go-units"

	"github.com/nuntium/mmsengine/mms"
)

// Input describes one attachment as handed to the Encode task, before
// it has been copied into the message directory.
type Input struct {
	Path        string
	ContentType string // may be empty; detected from content when so
	ContentID   string // may be empty; a cid is generated when so
}

// Prepared is a materialised attachment ready to be emitted as an
// M-Send.req part.
type Prepared struct {
	Path        string
	ContentID   string
	Location    string // filename used as Content-Location
	ContentType mms.ContentType
	Size        int64
	Resizable   bool // true for raster image types the resize loop can shrink
}

// MaxSizeExceeded is returned by Materialize's caller-visible sibling,
// the Encode task, when the resize loop cannot bring the message under
// its limit; kept here since it names units.HumanSize in its message.
type MaxSizeExceeded struct {
	Limit, Got int64
}

func (e *MaxSizeExceeded) Error() string {
	return fmt.Sprintf("attachment: message too large: %s over %s limit", units.HumanSize(float64(e.Got)), units.HumanSize(float64(e.Limit)))
}

// Materialize copies each input into dir, guessing a content-type from
// the file's content when one wasn't supplied, extending the filename
// with that type's canonical extension, and deduplicating
// content-ids/locations the way the retrieval codec does for incoming
// parts (spec'd dedupe: an underscore prefix on collision).
func Materialize(dir string, inputs []Input) ([]Prepared, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("attachment: creating %s: %w", dir, err)
	}

	seenLocation := map[string]bool{}
	seenCID := map[string]bool{}
	out := make([]Prepared, 0, len(inputs))

	for i, in := range inputs {
		data, err := os.ReadFile(in.Path)
		if err != nil {
			return nil, fmt.Errorf("attachment: reading %s: %w", in.Path, err)
		}

		ctString := in.ContentType
		if ctString == "" {
			ctString = http.DetectContentType(data)
		}
		ct, err := mms.ParseContentType(ctString)
		if err != nil {
			ct = mms.ContentType{Type: "application", Subtype: "octet-stream"}
		}

		base := filepath.Base(in.Path)
		ext := canonicalExtension(ct)
		if ext != "" && !strings.EqualFold(filepath.Ext(base), ext) {
			base = strings.TrimSuffix(base, filepath.Ext(base)) + ext
		}
		location := dedupe(base, seenLocation)

		cid := in.ContentID
		if cid == "" {
			cid = fmt.Sprintf("<part-%d>", i)
		}
		cid = dedupe(cid, seenCID)

		dst := filepath.Join(dir, location)
		if err := copyFile(in.Path, dst, data); err != nil {
			return nil, err
		}

		out = append(out, Prepared{
			Path:        dst,
			ContentID:   cid,
			Location:    location,
			ContentType: ct,
			Size:        int64(len(data)),
			Resizable:   isResizableImage(ct),
		})
	}
	return out, nil
}

func dedupe(name string, seen map[string]bool) string {
	for seen[name] {
		name = "_" + name
	}
	seen[name] = true
	return name
}

func copyFile(src, dst string, data []byte) error {
	if src == dst {
		return nil
	}
	return os.WriteFile(dst, data, 0o644)
}

func canonicalExtension(ct mms.ContentType) string {
	exts, err := mime.ExtensionsByType(ct.Full())
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

func isResizableImage(ct mms.ContentType) bool {
	switch strings.ToLower(ct.Subtype) {
	case "jpeg", "jpg", "png", "gif":
		return ct.Type == "image"
	}
	return false
}

// TotalSize sums the parts' sizes plus extra bytes of framing overhead the
// caller already accounted for (PDU headers, SMIL, etc).
func TotalSize(parts []Prepared, extra int64) int64 {
	var total int64 = extra
	for _, p := range parts {
		total += p.Size
	}
	return total
}
