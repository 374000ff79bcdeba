// Package pdf извлекает текст уроков из загруженных PDF-файлов.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText возвращается, если в документе нет извлекаемого текста
// (например, скан без текстового слоя)
var ErrNoText = errors.New("pdf: no extractable text")

// Document содержит текст, извлечённый из PDF
type Document struct {
	Name      string
	Text      string
	PageCount int
}

// IsPDF определяет PDF по расширению имени файла
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// Open читает PDF с диска
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	return extract(r, filepath.Base(path))
}

// FromReader читает PDF из io.Reader (загрузка через API)
func FromReader(reader io.Reader, name string) (*Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", name, err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse pdf %s: %w", name, err)
	}

	return extract(r, name)
}

func extract(r *pdf.Reader, name string) (*Document, error) {
	var content strings.Builder
	totalPages := r.NumPage()

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if content.Len() > 0 {
			content.WriteString("\n")
		}
		content.WriteString(text)
	}

	text := CleanText(content.String())
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrNoText)
	}

	return &Document{Name: name, Text: text, PageCount: totalPages}, nil
}

// CleanText приводит извлечённый текст к виду, пригодному для разбора уроков:
// единые переводы строк, без неразрывных пробелов и разрывов страниц
func CleanText(text string) string {
	r := strings.NewReplacer(
		"\r\n", "\n",
		"\r", "\n",
		"\f", "\n",
		"\u00a0", " ",
		"\u200b", "",
		"\ufeff", "",
	)
	return r.Replace(text)
}

// ReadLessonText возвращает текст загруженного файла урока: PDF разбирается,
// остальные файлы читаются как UTF-8 текст
func ReadLessonText(name string, r io.Reader) (string, error) {
	if IsPDF(name) {
		doc, err := FromReader(r, name)
		if err != nil {
			return "", err
		}
		return doc.Text, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return CleanText(string(data)), nil
}
