package attachment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nuntium/mmsengine/mms"
)

func TestMaterializeDedupesLocationAndCID(t *testing.T) {
	srcDir := t.TempDir()
	a := filepath.Join(srcDir, "note.txt")
	b := filepath.Join(srcDir, "note2.txt")
	require.NoError(t, os.WriteFile(a, []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("world"), 0o644))

	dstDir := t.TempDir()
	prepared, err := Materialize(dstDir, []Input{
		{Path: a, ContentType: "text/plain", ContentID: "<cid1>"},
		{Path: b, ContentType: "text/plain", ContentID: "<cid1>"},
	})
	require.NoError(t, err)
	require.Len(t, prepared, 2)
	require.NotEqual(t, prepared[0].ContentID, prepared[1].ContentID)
	require.NotEqual(t, prepared[0].Location, prepared[1].Location)
}

func TestSynthesizeSMILReferencesMediaAndText(t *testing.T) {
	doc := SynthesizeSMIL([]Prepared{
		{Location: "pic.jpg", ContentType: mms.ContentType{Type: "image", Subtype: "jpeg"}},
		{Location: "msg.txt", ContentType: mms.ContentType{Type: "text", Subtype: "plain"}},
	})
	require.Contains(t, doc, "pic.jpg")
	require.Contains(t, doc, "msg.txt")
}

func TestMaxSizeExceededError(t *testing.T) {
	err := &MaxSizeExceeded{Limit: 1024, Got: 4096}
	require.Contains(t, err.Error(), "too large")
}
