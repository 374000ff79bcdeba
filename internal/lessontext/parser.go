// Package lessontext превращает текстовые файлы уроков в структурированный
// контент: блоки теории, упражнения, челлендж и тест.
//
// Разбор нестрогий: некорректные или неполные фрагменты молча пропускаются,
// функции разбора никогда не возвращают ошибку.
package lessontext

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"numerom/internal/models"
)

// Kind определяет вид загружаемого контента
type Kind string

const (
	KindTheory    Kind = "theory"
	KindExercises Kind = "exercises"
	KindChallenge Kind = "challenge"
	KindQuiz      Kind = "quiz"
)

// Kinds перечисляет все поддерживаемые виды контента
var Kinds = []Kind{KindTheory, KindExercises, KindChallenge, KindQuiz}

// ParseKind распознаёт вид контента по имени
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Result содержит результат разбора одного загруженного файла
type Result struct {
	Kind      Kind                 `json:"kind"`
	Theory    []models.TheoryBlock `json:"theory,omitempty"`
	Exercises []models.Exercise    `json:"exercises,omitempty"`
	Challenge *models.Challenge    `json:"challenge,omitempty"`
	Quiz      *models.Quiz         `json:"quiz,omitempty"`
}

// Count возвращает количество извлечённых записей
func (r Result) Count() int {
	switch r.Kind {
	case KindTheory:
		return len(r.Theory)
	case KindExercises:
		return len(r.Exercises)
	case KindChallenge:
		if r.Challenge == nil {
			return 0
		}
		return len(r.Challenge.DailyTasks)
	case KindQuiz:
		if r.Quiz == nil {
			return 0
		}
		return len(r.Quiz.Questions)
	}
	return 0
}

// Parse разбирает текст парсером, соответствующим виду контента
func Parse(kind Kind, text string) Result {
	res := Result{Kind: kind}
	switch kind {
	case KindTheory:
		res.Theory = ParseTheory(text)
	case KindExercises:
		res.Exercises = ParseExercises(text)
	case KindChallenge:
		res.Challenge = ParseChallenge(text)
	case KindQuiz:
		res.Quiz = ParseQuiz(text)
	}
	return res
}

// separatorRe описывает разделитель секций: строка из трёх и более
// символов рамки или длинных тире
var separatorRe = regexp.MustCompile(`^[─━═—]{3,}$`)

func isSeparator(line string) bool {
	return separatorRe.MatchString(strings.TrimSpace(line))
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// splitLines возвращает строки текста без завершающих пробелов
func splitLines(text string) []string {
	lines := strings.Split(normalize(text), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return lines
}

// splitSections делит текст на секции по строкам-разделителям и по двум
// и более пустым строкам подряд. Пустые секции отбрасываются.
func splitSections(text string) []string {
	var (
		sections []string
		current  []string
		blanks   int
	)

	flush := func() {
		s := strings.TrimSpace(strings.Join(current, "\n"))
		if s != "" {
			sections = append(sections, s)
		}
		current = nil
	}

	for _, line := range splitLines(text) {
		if isSeparator(line) {
			flush()
			blanks = 0
			continue
		}
		if strings.TrimSpace(line) == "" {
			blanks++
			if blanks == 2 {
				flush()
			} else if blanks < 2 {
				current = append(current, line)
			}
			continue
		}
		blanks = 0
		current = append(current, line)
	}
	flush()

	return sections
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
