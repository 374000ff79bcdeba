package lessontext

import (
	"regexp"
	"strings"

	"numerom/internal/models"
)

// Заголовки документа вида «УРОК 3 - …» или «РАЗДЕЛ 2» не являются теорией
var (
	lessonBannerRe  = regexp.MustCompile(`(?i)^УРОК\s+\d+\s*[—–-]`)
	sectionBannerRe = regexp.MustCompile(`(?i)^РАЗДЕЛ\s+\d+`)
)

// TheorySeparator разделяет блоки при сериализации в FormatTheory
const TheorySeparator = "────────────────────────────────"

// ParseTheory извлекает блоки теории. Первая строка секции становится
// заголовком, остальные строки становятся содержимым.
func ParseTheory(text string) []models.TheoryBlock {
	blocks := make([]models.TheoryBlock, 0)

	for _, section := range splitSections(text) {
		lines := strings.Split(section, "\n")

		title := strings.TrimSpace(strings.TrimLeft(lines[0], "# \t"))
		// заголовок из одних символов рамки неотличим от разделителя
		if title == "" || isDocumentBanner(title) || isSeparator(title) {
			continue
		}

		content := strings.TrimSpace(strings.Join(lines[1:], "\n"))
		if content == "" {
			continue
		}

		blocks = append(blocks, models.TheoryBlock{
			ID:      newID("theory"),
			Title:   title,
			Content: content,
			Order:   len(blocks),
		})
	}

	return blocks
}

func isDocumentBanner(title string) bool {
	return lessonBannerRe.MatchString(title) || sectionBannerRe.MatchString(title)
}

// FormatTheory сериализует блоки обратно в текст, который ParseTheory
// разбирает в те же блоки
func FormatTheory(blocks []models.TheoryBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Title+"\n"+b.Content)
	}
	return strings.Join(parts, "\n"+TheorySeparator+"\n")
}
