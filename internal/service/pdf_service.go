package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Common PDF errors.
var (
	ErrNotPDF       = errors.New("file is not a PDF")
	ErrPDFEmptyText = errors.New("no extractable text in PDF")
)

// PDFService extracts plain text from uploaded study material.
type PDFService struct {
	maxBytes int64
}

// NewPDFService creates a PDFService with the given upload limit in bytes.
func NewPDFService(maxBytes int64) *PDFService {
	return &PDFService{maxBytes: maxBytes}
}

// MaxBytes returns the configured upload limit.
func (s *PDFService) MaxBytes() int64 {
	return s.maxBytes
}

// ExtractText reads a PDF and returns its plain text content. Scanned or
// image-only PDFs yield no text and are rejected.
func (s *PDFService) ExtractText(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("file exceeds %d bytes", s.maxBytes)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return "", ErrNotPDF
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse PDF: %w", err)
	}

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrPDFEmptyText
	}
	return text, nil
}
