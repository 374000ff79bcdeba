package lessontext

import (
	"regexp"
	"strings"

	"numerom/internal/models"
)

var (
	dayBannerRe = regexp.MustCompile(`(?i)^(ПОНЕДЕЛЬНИК|ВТОРНИК|СРЕДА|ЧЕТВЕРГ|ПЯТНИЦА|СУББОТА|ВОСКРЕСЕНЬЕ|MONDAY|TUESDAY|WEDNESDAY|THURSDAY|FRIDAY|SATURDAY|SUNDAY)\s*[—–-]\s*(.+)$`)
	numberedRe  = regexp.MustCompile(`^(\d+)[.)]\s+(.+)$`)
	challengeRe = regexp.MustCompile(`(?i)ЧЕЛЛЕНДЖ\S*\s*[«"“]([^»"”]+)[»"”]`)
	describeRe  = regexp.MustCompile(`(?i)^описание\s*:\s*(.*)$`)
	resultRe    = regexp.MustCompile(`(?i)^РЕЗУЛЬТАТ\s*:`)
)

const (
	defaultChallengeTitle = "Челлендж"
	defaultChallengeDays  = 7
)

// ParseChallenge построчно разбирает челлендж. Каждая строка с днём недели
// открывает новый день; номер дня присваивается по порядку, день недели
// в исходном тексте носит только информационный характер.
func ParseChallenge(text string) *models.Challenge {
	ch := &models.Challenge{
		ID:         newID("challenge"),
		Title:      defaultChallengeTitle,
		DailyTasks: make([]models.DayTask, 0),
	}

	var (
		day         *models.DayTask
		titleFound  bool
		describing  bool
		description []string
	)

	closeDay := func() {
		if day != nil {
			ch.DailyTasks = append(ch.DailyTasks, *day)
			day = nil
		}
	}

	for _, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := dayBannerRe.FindStringSubmatch(line); m != nil {
			closeDay()
			describing = false
			day = &models.DayTask{
				Day:   len(ch.DailyTasks) + 1,
				Title: strings.TrimSpace(m[2]),
				Tasks: make([]string, 0),
			}
			continue
		}

		// преамбула до первого дня
		if day == nil {
			if isSeparator(line) {
				describing = false
				continue
			}
			if !titleFound {
				if m := challengeRe.FindStringSubmatch(line); m != nil {
					ch.Title = strings.TrimSpace(m[1])
					titleFound = true
					continue
				}
			}
			if m := describeRe.FindStringSubmatch(line); m != nil {
				describing = true
				if rest := strings.TrimSpace(m[1]); rest != "" {
					description = append(description, rest)
				}
				continue
			}
			if describing {
				description = append(description, line)
			}
			continue
		}

		if isSeparator(line) || resultRe.MatchString(line) {
			continue
		}
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			day.Tasks = append(day.Tasks, strings.TrimSpace(m[2]))
			continue
		}
		if day.Description == "" {
			day.Description = line
		} else {
			day.Description += " " + line
		}
	}
	closeDay()

	ch.Description = strings.Join(description, "\n")
	ch.DurationDays = len(ch.DailyTasks)
	if ch.DurationDays == 0 {
		ch.DurationDays = defaultChallengeDays
	}

	return ch
}
