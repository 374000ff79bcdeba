package lessontext

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"numerom/internal/models"
)

// exerciseLabel классифицирует строку секции упражнений
type exerciseLabel int

const (
	labelNone exerciseLabel = iota
	labelTitle
	labelType
	labelContent
	labelInstruction
	labelOutcome
	labelInterpretation
)

var exerciseLabels = []struct {
	label exerciseLabel
	re    *regexp.Regexp
}{
	{labelTitle, regexp.MustCompile(`(?i)^(?:\d+[.)]\s*)?название\s*:\s*(.*)$`)},
	{labelType, regexp.MustCompile(`(?i)^тип\s*:\s*(.*)$`)},
	{labelContent, regexp.MustCompile(`(?i)^содержание\s*:\s*(.*)$`)},
	{labelInstruction, regexp.MustCompile(`(?i)^инструкция\s*:\s*(.*)$`)},
	{labelOutcome, regexp.MustCompile(`(?i)^ожидаемый\s+результат\s*:\s*(.*)$`)},
	{labelInterpretation, regexp.MustCompile(`(?i)^интерпретация\s*:\s*(.*)$`)},
}

// exerciseTypeKeywords проверяются по порядку, первое совпадение выигрывает
var exerciseTypeKeywords = []struct {
	keyword string
	typ     string
}{
	{"расчёт", models.ExercisePractice},
	{"расчет", models.ExercisePractice},
	{"анализ", models.ExerciseAnalysis},
	{"практик", models.ExercisePractice},
	{"психолог", models.ExerciseReflection},
	{"энергет", models.ExercisePractice},
	{"духов", models.ExerciseReflection},
	{"творч", models.ExerciseCreative},
}

// maxDescriptionRunes ограничивает описание, когда оно продублировано в инструкцию
const maxDescriptionRunes = 200

func classifyExerciseLine(line string) (exerciseLabel, string) {
	for _, l := range exerciseLabels {
		if m := l.re.FindStringSubmatch(line); m != nil {
			return l.label, strings.TrimSpace(m[1])
		}
	}
	return labelNone, line
}

func exerciseType(text string) string {
	lower := strings.ToLower(text)
	for _, k := range exerciseTypeKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.typ
		}
	}
	return models.ExerciseReflection
}

// exerciseDraft накапливает поля одного упражнения во время разбора
type exerciseDraft struct {
	title        string
	typ          string
	description  string
	instructions string
	outcome      string

	target exerciseLabel
	buf    []string
}

func (d *exerciseDraft) open(target exerciseLabel, first string) {
	d.flush()
	d.target = target
	if first != "" {
		d.buf = append(d.buf, first)
	}
}

func (d *exerciseDraft) flush() {
	text := strings.TrimSpace(strings.Join(d.buf, "\n"))
	d.buf = nil
	if text == "" {
		return
	}
	switch d.target {
	case labelInstruction:
		d.instructions = joinParagraphs(d.instructions, text)
	case labelOutcome:
		d.outcome = joinParagraphs(d.outcome, text)
	default:
		d.description = joinParagraphs(d.description, text)
	}
}

func (d *exerciseDraft) build(order int) (models.Exercise, bool) {
	d.flush()

	if d.instructions == "" && d.description != "" {
		d.instructions = d.description
		d.description = truncateRunes(d.description, maxDescriptionRunes)
	}
	if d.title == "" || d.instructions == "" {
		return models.Exercise{}, false
	}

	typ := d.typ
	if typ == "" {
		typ = models.ExerciseReflection
	}

	return models.Exercise{
		ID:              newID("exercise"),
		Title:           d.title,
		Description:     d.description,
		Instructions:    d.instructions,
		ExpectedOutcome: d.outcome,
		Type:            typ,
		Order:           order,
	}, true
}

// ParseExercises извлекает упражнения из секций с метками
// «Название:», «Тип:», «Содержание:», «Инструкция:», «Ожидаемый результат:».
func ParseExercises(text string) []models.Exercise {
	exercises := make([]models.Exercise, 0)

	emit := func(d *exerciseDraft) {
		if ex, ok := d.build(len(exercises)); ok {
			exercises = append(exercises, ex)
		}
	}

	for _, section := range splitSections(text) {
		draft := &exerciseDraft{}

		for _, raw := range strings.Split(section, "\n") {
			line := strings.TrimSpace(raw)
			label, rest := classifyExerciseLine(line)

			switch label {
			case labelTitle:
				// второе название в той же секции начинает новое упражнение
				if draft.title != "" {
					emit(draft)
					draft = &exerciseDraft{}
				}
				draft.flush()
				draft.target = labelNone
				draft.title = rest
			case labelType:
				draft.typ = exerciseType(rest)
			case labelContent, labelInstruction, labelOutcome:
				draft.open(label, rest)
			case labelInterpretation:
				if draft.target != labelContent {
					draft.open(labelContent, "")
				}
				draft.buf = append(draft.buf, "", "**Интерпретация:**")
				if rest != "" {
					draft.buf = append(draft.buf, rest)
				}
			default:
				if line == "" && len(draft.buf) == 0 {
					continue
				}
				draft.buf = append(draft.buf, line)
			}
		}

		emit(draft)
	}

	return exercises
}

func joinParagraphs(existing, text string) string {
	if existing == "" {
		return text
	}
	return existing + "\n" + text
}

const ellipsis = "..."

// truncateRunes обрезает строку до limit символов вместе с многоточием
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit-len(ellipsis)]) + ellipsis
}
