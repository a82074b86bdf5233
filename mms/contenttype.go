package mms

import (
	"fmt"
	"sort"
	"strings"
)

// ContentType is a parsed media type with its parameters, following
// the HTTP grammar of RFC 2616 §3.7: type/subtype followed by
// ";" attribute "=" value pairs, value being either a token or a
// quoted-string with backslash escapes.
type ContentType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// String renders the media type back onto the wire, quoting any
// parameter value that is not a valid HTTP token so the round trip is
// lossless even for values containing "/" or ";" (e.g. a "start"
// content-id or a "type=" parameter).
func (c ContentType) String() string {
	var b strings.Builder
	b.WriteString(c.Type)
	b.WriteByte('/')
	b.WriteString(c.Subtype)
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("; ")
		b.WriteString(k)
		b.WriteByte('=')
		v := c.Params[k]
		if isToken(v) {
			b.WriteString(v)
		} else {
			b.WriteString(quoteValue(v))
		}
	}
	return b.String()
}

// Full reports the "type/subtype" without parameters.
func (c ContentType) Full() string { return c.Type + "/" + c.Subtype }

// ParseContentType parses a media-type header value per RFC 2616 §3.7.
func ParseContentType(s string) (ContentType, error) {
	s = strings.TrimSpace(s)
	slash := strings.IndexByte(s, '/')
	if slash < 0 {
		return ContentType{}, fmt.Errorf("mms: invalid content-type %q: no subtype", s)
	}
	typ := strings.TrimSpace(s[:slash])
	rest := s[slash+1:]

	semi := strings.IndexByte(rest, ';')
	var subtype string
	if semi < 0 {
		subtype = strings.TrimSpace(rest)
		rest = ""
	} else {
		subtype = strings.TrimSpace(rest[:semi])
		rest = rest[semi+1:]
	}
	if typ == "" || subtype == "" {
		return ContentType{}, fmt.Errorf("mms: invalid content-type %q: empty type or subtype", s)
	}

	ct := ContentType{Type: typ, Subtype: subtype, Params: map[string]string{}}
	for len(rest) > 0 {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}
		eq := strings.IndexByte(rest, '=')
		if eq < 0 {
			break
		}
		attr := strings.TrimSpace(rest[:eq])
		rest = rest[eq+1:]
		var val string
		if len(rest) > 0 && rest[0] == '"' {
			v, tail, err := parseQuoted(rest)
			if err != nil {
				return ContentType{}, err
			}
			val = v
			rest = tail
		} else {
			semi := strings.IndexByte(rest, ';')
			if semi < 0 {
				val = strings.TrimSpace(rest)
				rest = ""
			} else {
				val = strings.TrimSpace(rest[:semi])
				rest = rest[semi+1:]
			}
		}
		if attr != "" {
			ct.Params[strings.ToLower(attr)] = val
		}
		if i := strings.IndexByte(rest, ';'); i == 0 {
			rest = rest[1:]
		}
	}
	return ct, nil
}

// parseQuoted consumes a leading quoted-string (with backslash
// escapes) from s and returns its unescaped value plus the remainder
// of s following the closing quote and any trailing ";".
func parseQuoted(s string) (value, rest string, err error) {
	if len(s) == 0 || s[0] != '"' {
		return "", s, fmt.Errorf("mms: expected quoted-string")
	}
	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			b.WriteByte(s[i+1])
			i += 2
			continue
		}
		if c == '"' {
			i++
			tail := s[i:]
			if semi := strings.IndexByte(tail, ';'); semi >= 0 {
				tail = tail[semi+1:]
			} else {
				tail = ""
			}
			return b.String(), tail, nil
		}
		b.WriteByte(c)
		i++
	}
	return "", "", fmt.Errorf("mms: unterminated quoted-string in %q", s)
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c <= 0x20 || c >= 0x7F {
			return false
		}
		switch c {
		case '(', ')', '<', '>', '@', ',', ';', ':', '\\', '"', '/', '[', ']', '?', '=', '{', '}':
			return false
		}
	}
	return true
}

func quoteValue(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
