package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

var supportedTypes = map[string]FileType{
	".txt":  FileTypeText,
	".md":   FileTypeText,
	".csv":  FileTypeText,
	".jpg":  FileTypeImage,
	".jpeg": FileTypeImage,
	".png":  FileTypeImage,
	".gif":  FileTypeImage,
}

var errUnsupportedType = errors.New("unsupported file type")

// SupportedExtensions lists accepted upload extensions in sorted order.
func SupportedExtensions() []string {
	out := make([]string, 0, len(supportedTypes))
	for ext := range supportedTypes {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// extract returns the searchable text of an upload. Images are indexed by a
// descriptive placeholder until OCR is available.
func extract(filename string, data []byte) (FileType, string, error) {
	kind, ok := supportedTypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return "", "", errUnsupportedType
	}
	if kind == FileTypeImage {
		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return "", "", fmt.Errorf("read image: %w", err)
		}
		return kind, fmt.Sprintf("[IMAGE: %s - %s - %dx%d]", filepath.Base(filename), strings.ToUpper(format), cfg.Width, cfg.Height), nil
	}
	return kind, decodeText(data), nil
}

// decodeText accepts UTF-8 and BOM-marked UTF-16, falling back to Latin-1.
func decodeText(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		data = data[3:]
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return decodeUTF16(data[2:], false)
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return decodeUTF16(data[2:], true)
	}
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func decodeUTF16(data []byte, bigEndian bool) string {
	units := make([]uint16, len(data)/2)
	for i := range units {
		lo, hi := data[2*i], data[2*i+1]
		if bigEndian {
			lo, hi = hi, lo
		}
		units[i] = uint16(lo) | uint16(hi)<<8
	}
	return string(utf16.Decode(units))
}
