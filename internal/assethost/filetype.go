package assethost

import (
	"path/filepath"
	"strings"
)

// FileCategory is the coarse classification of an attached file.
type FileCategory string

const (
	FileTypeImage FileCategory = "image"
	FileTypePDF   FileCategory = "pdf"
	FileTypeWord  FileCategory = "word"
	FileTypeExcel FileCategory = "excel"
	FileTypeOther FileCategory = "other"
)

// FileType classifies a filename by its extension alone. Contents are never
// inspected; a mislabeled file is classified by its label.
func FileType(filename string) FileCategory {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "jpg", "jpeg", "png", "gif", "webp", "bmp":
		return FileTypeImage
	case "pdf":
		return FileTypePDF
	case "doc", "docx":
		return FileTypeWord
	case "xls", "xlsx":
		return FileTypeExcel
	default:
		return FileTypeOther
	}
}
