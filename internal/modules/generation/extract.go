package generation

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFile is returned for anything other than .txt and .docx.
var ErrUnsupportedFile = errors.New("unsupported file type")

// MaxUploadBytes caps the accepted upload size at 5 MiB.
const MaxUploadBytes = 5 << 20

// AllowedUpload reports whether the upload's extension is accepted.
func AllowedUpload(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".docx":
		return true
	}
	return false
}

// ExtractText returns the plain text content of an uploaded file.
func ExtractText(path, originalName string) (string, error) {
	switch strings.ToLower(filepath.Ext(originalName)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(data), nil
	case ".docx":
		return extractDocx(path)
	default:
		return "", ErrUnsupportedFile
	}
}

// extractDocx pulls the visible text out of word/document.xml. DOCX is a
// zip archive; text lives in <w:t> runs, paragraphs end on </w:p>.
func extractDocx(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	var doc *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("docx has no word/document.xml")
	}

	reader, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open docx document: %w", err)
	}
	defer reader.Close()

	var out strings.Builder
	decoder := xml.NewDecoder(reader)
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx document: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}
	return out.String(), nil
}
