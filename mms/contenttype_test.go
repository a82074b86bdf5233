package mms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentTypeBasic(t *testing.T) {
	ct, err := ParseContentType("image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "image", ct.Type)
	assert.Equal(t, "jpeg", ct.Subtype)
	assert.Empty(t, ct.Params)
}

func TestParseContentTypeWithParams(t *testing.T) {
	ct, err := ParseContentType(`application/vnd.wap.multipart.related; start="<smil>"; type=application/smil`)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.wap.multipart.related", ct.Full())
	assert.Equal(t, "<smil>", ct.Params["start"])
	assert.Equal(t, "application/smil", ct.Params["type"])
}

func TestParseContentTypeQuotedEscapes(t *testing.T) {
	ct, err := ParseContentType(`text/plain; name="a \"quoted\" name.txt"`)
	require.NoError(t, err)
	assert.Equal(t, `a "quoted" name.txt`, ct.Params["name"])
}

func TestContentTypeRoundTripPreservesParams(t *testing.T) {
	original := ContentType{
		Type:    "application",
		Subtype: "vnd.wap.multipart.related",
		Params: map[string]string{
			"start": "<0>",
			"type":  "application/smil",
		},
	}
	s := original.String()
	reparsed, err := ParseContentType(s)
	require.NoError(t, err)
	assert.Equal(t, original.Type, reparsed.Type)
	assert.Equal(t, original.Subtype, reparsed.Subtype)
	assert.Equal(t, original.Params, reparsed.Params)
}

func TestParseContentTypeRejectsMissingSubtype(t *testing.T) {
	_, err := ParseContentType("nonsense")
	assert.Error(t, err)
}
