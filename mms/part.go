package mms

// Part is one entry of a multipart MMS body: a content-type, a set of
// well-known and application headers, and the raw payload.
type Part struct {
	ContentType ContentType
	ContentID   string
	Location    string
	Disposition ContentDisposition
	HasDisposition bool
	Data        []byte
}

// Filename returns the name a part should be saved under: the
// content-location if present, falling back to the content-id.
func (p Part) Filename() string {
	if p.Location != "" {
		return p.Location
	}
	return p.ContentID
}
