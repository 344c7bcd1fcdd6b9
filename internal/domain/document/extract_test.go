package document

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractDecodesTextEncodings(t *testing.T) {
	cases := map[string][]byte{
		"utf8 bom": append([]byte{0xEF, 0xBB, 0xBF}, []byte("വിള")...),
		"utf16 le": {0xFF, 0xFE, 'p', 0, 'H', 0},
		"utf16 be": {0xFE, 0xFF, 0, 'p', 0, 'H'},
		"latin1":   {'c', 'a', 'f', 0xE9},
		"plain":    []byte("pH"),
	}
	want := map[string]string{
		"utf8 bom": "വിള",
		"utf16 le": "pH",
		"utf16 be": "pH",
		"latin1":   "café",
		"plain":    "pH",
	}
	for name, data := range cases {
		kind, text, err := extract("notes.txt", data)
		require.NoError(t, err, name)
		require.Equal(t, FileTypeText, kind, name)
		require.Equal(t, want[name], text, name)
	}
}

func TestExtractDescribesImages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 3))))

	kind, text, err := extract("Leaf.PNG", buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, FileTypeImage, kind)
	require.Equal(t, "[IMAGE: Leaf.PNG - PNG - 4x3]", text)

	_, _, err = extract("leaf.jpg", []byte("not an image"))
	require.Error(t, err)
}

func TestExtractRejectsUnknownExtension(t *testing.T) {
	_, _, err := extract("scan.docx", []byte("PK"))
	require.ErrorIs(t, err, errUnsupportedType)
	require.Equal(t, []string{".csv", ".gif", ".jpeg", ".jpg", ".md", ".png", ".txt"}, SupportedExtensions())
}
