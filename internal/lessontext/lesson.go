package lessontext

import (
	"regexp"
	"strings"

	"numerom/internal/models"
)

// partIntro обозначает вводную часть документа, из неё берётся описание урока
const partIntro Kind = "introduction"

// DefaultModule присваивается урокам, импортированным целиком
const DefaultModule = "Основы нумерологии"

var lessonTitleRe = regexp.MustCompile(`(?i)^УРОК(?:\s|$)`)

// partHeadings сопоставляет ключевые слова заголовка части документа с видом
// контента. Проверяются по порядку.
var partHeadings = []struct {
	keyword string
	kind    Kind
}{
	{"ВВЕДЕНИЕ", partIntro},
	{"УПРАЖНЕНИЯ", KindExercises},
	{"ПРАКТИЧЕСКИЕ ЗАДАНИЯ", KindExercises},
	{"ЧЕЛЛЕНДЖ", KindChallenge},
	{"ВЫЗОВ", KindChallenge},
	{"ТЕСТ", KindQuiz},
	{"ВОПРОСЫ", KindQuiz},
	{"ТЕОРИЯ", KindTheory},
	{"КЛЮЧЕВЫЕ КОНЦЕПЦИИ", KindTheory},
	{"ПРАКТИЧЕСКОЕ ПРИМЕНЕНИЕ", KindTheory},
}

func headingKind(line string) (Kind, bool) {
	upper := strings.ToUpper(line)
	for _, h := range partHeadings {
		if strings.Contains(upper, h.keyword) {
			return h.kind, true
		}
	}
	return "", false
}

// ParseLesson разбирает документ урока целиком. Части документа начинаются
// строкой-разделителем, за которой следует заголовок части; по заголовку
// выбирается парсер раздела. Часть с нераспознанным заголовком продолжает
// предыдущую, а до первой распознанной части считается теорией.
// Строка «УРОК …» до первого разделителя становится названием урока.
// ID урока не заполняется.
func ParseLesson(text string) *models.Lesson {
	lesson := &models.Lesson{
		Module:           DefaultModule,
		Level:            1,
		IsActive:         true,
		AnalyticsEnabled: true,
		Theory:           make([]models.TheoryBlock, 0),
		Exercises:        make([]models.Exercise, 0),
	}

	bodies := map[Kind][]string{}
	var (
		current     Kind
		started     bool
		wantHeading bool
	)

	for _, line := range splitLines(text) {
		trimmed := strings.TrimSpace(line)

		if isSeparator(trimmed) {
			wantHeading = true
			continue
		}
		if wantHeading {
			if trimmed == "" {
				continue
			}
			wantHeading = false
			if kind, ok := headingKind(trimmed); ok {
				current, started = kind, true
				switch kind {
				case partIntro, KindExercises:
					bodies[kind] = append(bodies[kind], TheorySeparator)
				default:
					// заголовок становится названием блока теории или челленджа
					bodies[kind] = append(bodies[kind], TheorySeparator, trimmed)
				}
				continue
			}
			if !started || current == KindTheory {
				current, started = KindTheory, true
				bodies[KindTheory] = append(bodies[KindTheory], TheorySeparator, trimmed)
				continue
			}
			bodies[current] = append(bodies[current], TheorySeparator, line)
			continue
		}

		if !started {
			if lesson.Title == "" && lessonTitleRe.MatchString(trimmed) {
				lesson.Title = trimmed
			}
			continue
		}
		bodies[current] = append(bodies[current], line)
	}

	var intro []string
	for _, l := range bodies[partIntro] {
		if l = strings.TrimSpace(l); l != "" && !isSeparator(l) {
			intro = append(intro, l)
		}
	}
	lesson.Description = strings.Join(intro, " ")

	join := func(k Kind) string { return strings.Join(bodies[k], "\n") }
	lesson.Theory = ParseTheory(join(KindTheory))
	lesson.Exercises = ParseExercises(join(KindExercises))
	if _, ok := bodies[KindChallenge]; ok {
		if ch := ParseChallenge(join(KindChallenge)); len(ch.DailyTasks) > 0 {
			lesson.Challenge = ch
		}
	}
	if _, ok := bodies[KindQuiz]; ok {
		if q := ParseQuiz(join(KindQuiz)); len(q.Questions) > 0 {
			lesson.Quiz = q
		}
	}

	return lesson
}
