package lessontext

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numerom/internal/models"
)

func TestSplitSections(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "  \n\t\n  ", nil},
		{"box drawing rule", "a\nb\n───\nc", []string{"a\nb", "c"}},
		{"double rule", "a\n═══════\nc", []string{"a", "c"}},
		{"em dash rule", "a\n———\nc", []string{"a", "c"}},
		{"two blank lines", "a\n\n\nb", []string{"a", "b"}},
		{"single blank line kept", "a\n\nb", []string{"a\n\nb"}},
		{"crlf", "a\r\n───\r\nb", []string{"a", "b"}},
		{"short rule is text", "a\n──\nb", []string{"a\n──\nb"}},
		{"empty sections dropped", "───\n\n───\na\n───\n───", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitSections(tt.text))
		})
	}
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" Quiz ")
	assert.True(t, ok)
	assert.Equal(t, KindQuiz, k)

	_, ok = ParseKind("files")
	assert.False(t, ok)
}

func TestParse_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\n", "\t \r\n"} {
		assert.Empty(t, ParseTheory(text))
		assert.Empty(t, ParseExercises(text))

		ch := ParseChallenge(text)
		require.NotNil(t, ch)
		assert.Empty(t, ch.DailyTasks)

		quiz := ParseQuiz(text)
		require.NotNil(t, quiz)
		assert.Empty(t, quiz.Questions)

		for _, kind := range Kinds {
			assert.Zero(t, Parse(kind, text).Count(), "kind %s", kind)
		}
	}
}

func TestParse_Dispatch(t *testing.T) {
	res := Parse(KindTheory, "Заголовок\nТекст")
	assert.Equal(t, KindTheory, res.Kind)
	assert.Equal(t, 1, res.Count())
	assert.Nil(t, res.Quiz)

	res = Parse(Kind("unknown"), "Заголовок\nТекст")
	assert.Zero(t, res.Count())
}

func TestParseTheory(t *testing.T) {
	text := strings.Join([]string{
		"УРОК 1 — ЦИФРА 1",
		"Вводный текст урока",
		"───────────────",
		"# Введение",
		"Первая строка",
		"Вторая строка",
		"───────────────",
		"РАЗДЕЛ 2",
		"Содержимое раздела",
		"",
		"",
		"Ключевые концепции",
		"Единица — начало",
		"",
		"Абзац",
		"───────────────",
		"Только заголовок",
	}, "\n")

	blocks := ParseTheory(text)
	require.Len(t, blocks, 2)

	assert.Equal(t, "Введение", blocks[0].Title)
	assert.Equal(t, "Первая строка\nВторая строка", blocks[0].Content)
	assert.Equal(t, 0, blocks[0].Order)

	assert.Equal(t, "Ключевые концепции", blocks[1].Title)
	assert.Equal(t, "Единица — начало\n\nАбзац", blocks[1].Content)
	assert.Equal(t, 1, blocks[1].Order)

	assert.True(t, strings.HasPrefix(blocks[0].ID, "theory_"))
	assert.NotEqual(t, blocks[0].ID, blocks[1].ID)
}

func TestParseTheory_SequentialOrder(t *testing.T) {
	var parts []string
	for i := 0; i < 5; i++ {
		parts = append(parts, "Заголовок\nстрока")
	}
	blocks := ParseTheory(strings.Join(parts, "\n═══════\n"))

	require.Len(t, blocks, 5)
	for i, b := range blocks {
		assert.Equal(t, i, b.Order)
		assert.Equal(t, "строка", b.Content)
	}
}

func TestParseTheory_BannersSkipped(t *testing.T) {
	tests := []string{
		"УРОК 3 — Тройка\nКонтент",
		"УРОК 12—Без пробелов\nКонтент",
		"урок 4 – строчными\nКонтент",
		"РАЗДЕЛ 1\nКонтент",
		"РАЗДЕЛ 7 Практика\nКонтент",
	}
	for _, text := range tests {
		assert.Empty(t, ParseTheory(text), text)
	}

	// слово «урок» без номера остаётся обычным заголовком
	assert.Len(t, ParseTheory("Урок мудрости\nКонтент"), 1)
}

func TestParseTheory_RoundTrip(t *testing.T) {
	text := "# Первый\nа\nб\n───\nВторой\n\nв\n\n\nТретий\nг"

	first := ParseTheory(text)
	require.Len(t, first, 3)

	second := ParseTheory(FormatTheory(first))
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Title, second[i].Title)
		assert.Equal(t, first[i].Content, second[i].Content)
		assert.Equal(t, first[i].Order, second[i].Order)
	}
}

func TestParseTheory_SeparatorTitleSkipped(t *testing.T) {
	tests := []string{
		"#═══\n#",
		"# ───────\nКонтент",
		"——— \nКонтент",
	}
	for _, text := range tests {
		blocks := ParseTheory(text)
		assert.Empty(t, blocks, text)
		assert.Len(t, ParseTheory(FormatTheory(blocks)), len(blocks), text)
	}

	// символы рамки внутри обычного заголовка допустимы
	blocks := ParseTheory("═══ Итоги ═══\nКонтент")
	require.Len(t, blocks, 1)
	assert.Len(t, ParseTheory(FormatTheory(blocks)), 1)
}

func TestParseExercises_Breathing(t *testing.T) {
	text := "1. Название: Дыхание\nТип: практика\nСодержание:\nТекст\nИнструкция:\nСделай так\nОжидаемый результат:\nСпокойствие"

	exercises := ParseExercises(text)
	require.Len(t, exercises, 1)

	ex := exercises[0]
	assert.Equal(t, "Дыхание", ex.Title)
	assert.Equal(t, models.ExercisePractice, ex.Type)
	assert.Equal(t, "Текст", ex.Description)
	assert.Equal(t, "Сделай так", ex.Instructions)
	assert.Equal(t, "Спокойствие", ex.ExpectedOutcome)
	assert.Equal(t, 0, ex.Order)
}

func TestExerciseType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Расчётное упражнение", models.ExercisePractice},
		{"расчет", models.ExercisePractice},
		{"Анализ даты", models.ExerciseAnalysis},
		{"ПРАКТИКА", models.ExercisePractice},
		{"Психологическое", models.ExerciseReflection},
		{"энергетическая работа", models.ExercisePractice},
		{"Духовная практика", models.ExercisePractice},
		{"Духовное", models.ExerciseReflection},
		{"Творческое задание", models.ExerciseCreative},
		{"что-то ещё", models.ExerciseReflection},
		{"", models.ExerciseReflection},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exerciseType(tt.text), tt.text)
	}
}

func TestParseExercises_Sections(t *testing.T) {
	text := strings.Join([]string{
		"УПРАЖНЕНИЯ",
		"───────────",
		"1. название: Первое",
		"тип: анализ",
		"Содержание: Вступление",
		"продолжение",
		"Интерпретация: что это значит",
		"Инструкция: Шаг один",
		"Шаг два",
		"───────────",
		"2. Название: Без инструкции",
		"Содержание:",
		"Только описание",
		"───────────",
		"3. Название: Пустое",
		"Тип: практика",
		"───────────",
		"Инструкция: без названия",
	}, "\n")

	exercises := ParseExercises(text)
	require.Len(t, exercises, 2)

	first := exercises[0]
	assert.Equal(t, "Первое", first.Title)
	assert.Equal(t, models.ExerciseAnalysis, first.Type)
	assert.Equal(t, "Вступление\nпродолжение\n\n**Интерпретация:**\nчто это значит", first.Description)
	assert.Equal(t, "Шаг один\nШаг два", first.Instructions)
	assert.Empty(t, first.ExpectedOutcome)
	assert.Equal(t, 0, first.Order)

	second := exercises[1]
	assert.Equal(t, "Без инструкции", second.Title)
	assert.Equal(t, "Только описание", second.Instructions)
	assert.Equal(t, "Только описание", second.Description)
	assert.Equal(t, models.ExerciseReflection, second.Type)
	assert.Equal(t, 1, second.Order)
}

func TestParseExercises_DescriptionTruncated(t *testing.T) {
	long := strings.Repeat("я", 250)
	exercises := ParseExercises("Название: Длинное\nСодержание:\n" + long)

	require.Len(t, exercises, 1)
	assert.Equal(t, long, exercises[0].Instructions)
	assert.Equal(t, strings.Repeat("я", 197)+"...", exercises[0].Description)
	assert.Equal(t, 200, utf8.RuneCountInString(exercises[0].Description))

	exact := strings.Repeat("ж", 200)
	exercises = ParseExercises("Название: Ровно\nСодержание:\n" + exact)
	require.Len(t, exercises, 1)
	assert.Equal(t, exact, exercises[0].Description)
}

func TestParseExercises_TwoTitlesInOneSection(t *testing.T) {
	text := "1. Название: А\nИнструкция: делай А\n2. Название: Б\nИнструкция: делай Б"

	exercises := ParseExercises(text)
	require.Len(t, exercises, 2)
	assert.Equal(t, "А", exercises[0].Title)
	assert.Equal(t, "делай А", exercises[0].Instructions)
	assert.Equal(t, "Б", exercises[1].Title)
	assert.Equal(t, 1, exercises[1].Order)
}

func TestParseChallenge_SequentialDays(t *testing.T) {
	text := "ПОНЕДЕЛЬНИК — Утро\n1. Проснуться рано\nВТОРНИК — Вечер\n1. Записать мысли"

	ch := ParseChallenge(text)
	require.Len(t, ch.DailyTasks, 2)

	assert.Equal(t, 1, ch.DailyTasks[0].Day)
	assert.Equal(t, "Утро", ch.DailyTasks[0].Title)
	assert.Equal(t, []string{"Проснуться рано"}, ch.DailyTasks[0].Tasks)

	assert.Equal(t, 2, ch.DailyTasks[1].Day)
	assert.Equal(t, "Вечер", ch.DailyTasks[1].Title)
	assert.Equal(t, []string{"Записать мысли"}, ch.DailyTasks[1].Tasks)

	assert.Equal(t, 2, ch.DurationDays)
}

func TestParseChallenge_WeekdayIgnoredForNumbering(t *testing.T) {
	ch := ParseChallenge("ПЯТНИЦА — Первый\n1. а\nПОНЕДЕЛЬНИК - Второй\n1. б")

	require.Len(t, ch.DailyTasks, 2)
	assert.Equal(t, 1, ch.DailyTasks[0].Day)
	assert.Equal(t, 2, ch.DailyTasks[1].Day)
}

func TestParseChallenge_Preamble(t *testing.T) {
	text := strings.Join([]string{
		"ЧЕЛЛЕНДЖ «Семь дней единицы»",
		"Описание: Неделя практики",
		"для развития воли",
		"───────────",
		"Этот текст не входит в описание",
		"Понедельник — Начало",
		"Сегодня начинаем.",
		"Спокойно.",
		"1. Первое задание",
		"2) Второе задание",
		"───────────",
		"РЕЗУЛЬТАТ: уверенность",
		"Sunday – Итог",
		"1. Подвести итоги",
	}, "\n")

	ch := ParseChallenge(text)
	assert.Equal(t, "Семь дней единицы", ch.Title)
	assert.Equal(t, "Неделя практики\nдля развития воли", ch.Description)

	require.Len(t, ch.DailyTasks, 2)
	day := ch.DailyTasks[0]
	assert.Equal(t, "Начало", day.Title)
	assert.Equal(t, "Сегодня начинаем. Спокойно.", day.Description)
	assert.Equal(t, []string{"Первое задание", "Второе задание"}, day.Tasks)
	assert.False(t, day.Completed)

	assert.Equal(t, "Итог", ch.DailyTasks[1].Title)
	assert.Equal(t, 2, ch.DailyTasks[1].Day)
}

func TestParseChallenge_Defaults(t *testing.T) {
	ch := ParseChallenge("просто текст без дней")

	assert.Equal(t, defaultChallengeTitle, ch.Title)
	assert.Empty(t, ch.DailyTasks)
	assert.Equal(t, defaultChallengeDays, ch.DurationDays)
	assert.True(t, strings.HasPrefix(ch.ID, "challenge_"))
}

func TestParseQuiz_AnswerResolution(t *testing.T) {
	text := strings.Join([]string{
		"1. Первый вопрос?",
		"A. один",
		"B. два",
		"2. Второй вопрос?",
		"A. три",
		"B. четыре",
		"ОТВЕТЫ:",
		"1–B, 2–A",
	}, "\n")

	quiz := ParseQuiz(text)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, "два", quiz.Questions[0].CorrectAnswer)
	assert.Equal(t, "три", quiz.Questions[1].CorrectAnswer)
}

func TestParseQuiz_OutOfRangeLetter(t *testing.T) {
	text := "1. Вопрос?\nA. да\nB. нет\nОТВЕТЫ:\n1–E"

	quiz := ParseQuiz(text)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "", quiz.Questions[0].CorrectAnswer)
}

func TestParseQuiz_Full(t *testing.T) {
	text := strings.Join([]string{
		"УРОК 1 — Энергия единицы • Тест",
		"───────────",
		"1. Что символизирует",
		"единица?",
		"A. Начало",
		"B) Конец",
		"С. Середина",
		"Пояснение: единица открывает ряд",
		"2. Без ответа в ключе?",
		"A. да",
		"3. Вопрос с кириллицей в ключе",
		"A. первый",
		"B. второй",
		"ОТВЕТЫ: 1—C, 3-в",
		"4. Это не вопрос, мы в разделе ответов",
	}, "\n")

	quiz := ParseQuiz(text)
	assert.Equal(t, "Энергия единицы", quiz.Title)
	assert.Equal(t, defaultPassingScore, quiz.PassingScore)
	assert.Zero(t, quiz.TimeLimitMinutes)

	require.Len(t, quiz.Questions, 3)

	q := quiz.Questions[0]
	assert.Equal(t, "q_1", q.ID)
	assert.Equal(t, "Что символизирует единица?", q.Question)
	assert.Equal(t, []string{"Начало", "Конец", "Середина"}, q.Options)
	assert.Equal(t, "Середина", q.CorrectAnswer)
	assert.Equal(t, "единица открывает ряд", q.Explanation)
	assert.Equal(t, questionTypeChoice, q.Type)
	assert.Equal(t, 1, q.Points)

	assert.Equal(t, "", quiz.Questions[1].CorrectAnswer)
	assert.Equal(t, "второй", quiz.Questions[2].CorrectAnswer)
	assert.Equal(t, "q_3", quiz.Questions[2].ID)
}

func TestLetterIndex(t *testing.T) {
	tests := []struct {
		letter string
		want   int
	}{
		{"A", 0}, {"b", 1}, {"E", 4}, {"А", 0}, {"В", 1}, {"с", 2}, {"F", -1}, {"", -1}, {"AB", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, letterIndex(tt.letter), tt.letter)
	}
}
