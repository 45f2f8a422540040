package service

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractTextRejectsNonPDF(t *testing.T) {
	s := NewPDFService(1024 * 1024)
	_, err := s.ExtractText(strings.NewReader("just a text file"))
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("err = %v, want ErrNotPDF", err)
	}
}

func TestExtractTextRejectsOversizedUpload(t *testing.T) {
	s := NewPDFService(16)
	_, err := s.ExtractText(strings.NewReader("%PDF-1.7 plus padding beyond the limit"))
	if err == nil {
		t.Fatal("expected size error")
	}
	if errors.Is(err, ErrNotPDF) {
		t.Fatal("size check must run before format check")
	}
}
