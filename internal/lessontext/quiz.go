package lessontext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"numerom/internal/models"
)

var (
	quizTitleRe   = regexp.MustCompile(`(?i)^УРОК\s+\d+\s*[—–-]\s*(.+)$`)
	optionRe      = regexp.MustCompile(`^([A-EАВСЕ])[.)]\s*(.*)$`)
	answersRe     = regexp.MustCompile(`^ОТВЕТЫ\s*:\s*(.*)$`)
	answerPairRe  = regexp.MustCompile(`(\d+)\s*[–—-]\s*([A-EАВСЕa-eавсе])`)
	explanationRe = regexp.MustCompile(`(?i)^(?:пояснение|объяснение)\s*:\s*(.*)$`)
)

const (
	defaultQuizTitle    = "Тест"
	defaultPassingScore = 70
	questionTypeChoice  = "multiple_choice"
)

// cyrillicLetters сопоставляет кириллические буквы, похожие на латинские,
// с индексом варианта ответа
var cyrillicLetters = map[rune]rune{'А': 'A', 'В': 'B', 'С': 'C', 'Е': 'E'}

func letterIndex(letter string) int {
	r := []rune(strings.ToUpper(letter))
	if len(r) != 1 {
		return -1
	}
	c := r[0]
	if latin, ok := cyrillicLetters[c]; ok {
		c = latin
	}
	if c < 'A' || c > 'E' {
		return -1
	}
	return int(c - 'A')
}

// questionDraft накапливает вопрос вместе с его номером в исходном тексте
type questionDraft struct {
	number int
	q      models.Question
}

// ParseQuiz построчно разбирает тест. Строки «N. текст» начинают вопрос,
// строки «A.»–«E.» добавляют варианты, строка «ОТВЕТЫ:» с последующей
// строкой пар «номер–буква» задаёт правильные ответы.
func ParseQuiz(text string) *models.Quiz {
	quiz := &models.Quiz{
		ID:           newID("quiz"),
		Title:        defaultQuizTitle,
		Questions:    make([]models.Question, 0),
		PassingScore: defaultPassingScore,
	}

	var (
		drafts        []*questionDraft
		current       *questionDraft
		inAnswers     bool
		expectAnswers bool
		titleFound    bool
		answers       = map[int]string{}
	)

	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if expectAnswers {
			expectAnswers = false
			collectAnswers(line, answers)
			continue
		}

		if m := answersRe.FindStringSubmatch(line); m != nil {
			inAnswers = true
			current = nil
			if rest := strings.TrimSpace(m[1]); rest != "" {
				collectAnswers(rest, answers)
			} else {
				expectAnswers = true
			}
			continue
		}

		if isSeparator(line) {
			inAnswers = false
			current = nil
			continue
		}
		if inAnswers {
			continue
		}

		if !titleFound {
			if m := quizTitleRe.FindStringSubmatch(line); m != nil {
				title, _, _ := strings.Cut(m[1], "•")
				if title = strings.TrimSpace(title); title != "" {
					quiz.Title = title
					titleFound = true
				}
				continue
			}
		}

		if m := numberedRe.FindStringSubmatch(line); m != nil {
			n, _ := strconv.Atoi(m[1])
			current = &questionDraft{
				number: n,
				q: models.Question{
					Question: strings.TrimSpace(m[2]),
					Type:     questionTypeChoice,
					Options:  make([]string, 0),
					Points:   1,
				},
			}
			drafts = append(drafts, current)
			continue
		}

		if current == nil {
			continue
		}

		if m := optionRe.FindStringSubmatch(line); m != nil {
			current.q.Options = append(current.q.Options, strings.TrimSpace(m[2]))
			continue
		}
		if m := explanationRe.FindStringSubmatch(line); m != nil {
			current.q.Explanation = strings.TrimSpace(m[1])
			continue
		}
		if len(current.q.Options) == 0 {
			current.q.Question += " " + line
		}
	}

	for _, d := range drafts {
		if d.q.Question == "" {
			continue
		}
		if letter, ok := answers[d.number]; ok {
			if idx := letterIndex(letter); idx >= 0 && idx < len(d.q.Options) {
				d.q.CorrectAnswer = d.q.Options[idx]
			}
		}
		d.q.ID = fmt.Sprintf("q_%d", len(quiz.Questions)+1)
		quiz.Questions = append(quiz.Questions, d.q)
	}

	return quiz
}

func collectAnswers(line string, answers map[int]string) {
	for _, m := range answerPairRe.FindAllStringSubmatch(line, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		answers[n] = m[2]
	}
}
