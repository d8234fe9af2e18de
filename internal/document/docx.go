package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// readDOCX pulls paragraph text out of the word/document.xml part of a
// DOCX archive. Returns the joined text and the paragraph count.
func readDOCX(path string) (string, int, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", 0, fmt.Errorf("open docx archive: %w", err)
	}
	defer func() { _ = archive.Close() }()

	var docXML io.ReadCloser
	for _, file := range archive.File {
		if file.Name == "word/document.xml" {
			docXML, err = file.Open()
			if err != nil {
				return "", 0, fmt.Errorf("open document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", 0, fmt.Errorf("docx archive has no word/document.xml")
	}
	defer func() { _ = docXML.Close() }()

	return parseDocumentXML(docXML)
}

func parseDocumentXML(r io.Reader) (string, int, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []string
	var current strings.Builder
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := token.(type) {
		case xml.CharData:
			current.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		}
	}
	if text := strings.TrimSpace(current.String()); text != "" {
		paragraphs = append(paragraphs, text)
	}

	return strings.Join(paragraphs, "\n"), len(paragraphs), nil
}
