package attachment

import (
	"fmt"
	"os"
	"strings"

	"github.com/nuntium/mmsengine/mms"
)

// HasSMIL reports whether parts already includes a SMIL part.
func HasSMIL(parts []Prepared) bool {
	for _, p := range parts {
		if p.ContentType.Full() == mms.SMILContentType {
			return true
		}
	}
	return false
}

// SynthesizeSMIL builds a minimal presentation describing a text
// region and a media region, one slide per non-text part, each
// referencing the other parts by Content-Location. It is only called
// when the caller's part list has no SMIL part of its own.
func SynthesizeSMIL(parts []Prepared) string {
	var b strings.Builder
	b.WriteString("<smil><head><layout>")
	b.WriteString(`<root-layout width="160" height="120"/>`)
	b.WriteString(`<region id="Image" width="160" height="120" fit="meet"/>`)
	b.WriteString(`<region id="Text" width="160" height="20" top="100"/>`)
	b.WriteString("</layout></head><body>")

	var textPart *Prepared
	var mediaParts []Prepared
	for i, p := range parts {
		if strings.HasPrefix(p.ContentType.Type, "text") {
			if textPart == nil {
				textPart = &parts[i]
			}
			continue
		}
		mediaParts = append(mediaParts, p)
	}

	if len(mediaParts) == 0 {
		fmt.Fprintf(&b, `<par dur="5000ms">`)
		if textPart != nil {
			fmt.Fprintf(&b, `<text src="%s" region="Text"/>`, textPart.Location)
		}
		b.WriteString("</par>")
	} else {
		for _, m := range mediaParts {
			fmt.Fprintf(&b, `<par dur="5000ms"><img src="%s" region="Image"/>`, m.Location)
			if textPart != nil {
				fmt.Fprintf(&b, `<text src="%s" region="Text"/>`, textPart.Location)
			}
			b.WriteString("</par>")
		}
	}
	b.WriteString("</body></smil>")
	return b.String()
}

// WriteSMILPart writes doc to dir/smil.xml and returns the Prepared
// part describing it, meant to be placed first so the M-Send.req
// Content-Type's start= parameter can reference its content-id.
func WriteSMILPart(dir, cid, doc string) (Prepared, error) {
	path := dir + "/smil.xml"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return Prepared{}, err
	}
	return Prepared{
		Path:        path,
		ContentID:   cid,
		Location:    "smil.xml",
		ContentType: mms.ContentType{Type: "application", Subtype: "smil"},
		Size:        int64(len(doc)),
	}, nil
}
