package analytics

import (
	"time"

	"numerom/internal/models"
)

// StudentResponse дополняет ответ студента названием упражнения
type StudentResponse struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	ExerciseID    string     `json:"exercise_id"`
	ExerciseTitle string     `json:"exercise_title"`
	ResponseText  string     `json:"response_text"`
	SubmittedAt   time.Time  `json:"submitted_at"`
	Reviewed      bool       `json:"reviewed"`
	AdminComment  string     `json:"admin_comment,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewedBy    string     `json:"reviewed_by,omitempty"`
}

// ResponsesReport содержит все ответы на упражнения урока
type ResponsesReport struct {
	LessonID       string            `json:"lesson_id"`
	LessonTitle    string            `json:"lesson_title"`
	TotalResponses int               `json:"total_responses"`
	Responses      []StudentResponse `json:"responses"`
}

// BuildResponsesReport дополняет ответы названиями упражнений урока
func BuildResponsesReport(lesson *models.Lesson, responses []models.ExerciseResponse) *ResponsesReport {
	titles := make(map[string]string, len(lesson.Exercises))
	for _, ex := range lesson.Exercises {
		titles[ex.ID] = ex.Title
	}

	r := &ResponsesReport{
		LessonID:    lesson.ID,
		LessonTitle: lesson.Title,
		Responses:   make([]StudentResponse, 0, len(responses)),
	}
	for _, resp := range responses {
		title, ok := titles[resp.ExerciseID]
		if !ok {
			title = unknownExercise
		}
		r.Responses = append(r.Responses, StudentResponse{
			ID:            resp.ID,
			UserID:        resp.UserID,
			ExerciseID:    resp.ExerciseID,
			ExerciseTitle: title,
			ResponseText:  resp.ResponseText,
			SubmittedAt:   resp.SubmittedAt,
			Reviewed:      resp.Reviewed,
			AdminComment:  resp.AdminComment,
			ReviewedAt:    resp.ReviewedAt,
			ReviewedBy:    resp.ReviewedBy,
		})
	}
	r.TotalResponses = len(r.Responses)
	return r
}

// ChallengeNote содержит заметку студента за день челленджа
type ChallengeNote struct {
	UserID               string    `json:"user_id"`
	Day                  int       `json:"day"`
	Note                 string    `json:"note"`
	CompletedAt          time.Time `json:"completed_at"`
	IsChallengeCompleted bool      `json:"is_challenge_completed"`
}

// NotesReport содержит заметки всех студентов по челленджу урока
type NotesReport struct {
	LessonID    string          `json:"lesson_id"`
	LessonTitle string          `json:"lesson_title"`
	TotalNotes  int             `json:"total_notes"`
	Notes       []ChallengeNote `json:"notes"`
}

// BuildNotesReport собирает непустые заметки из всех попыток челленджа
func BuildNotesReport(lesson *models.Lesson, attempts []models.ChallengeProgress) *NotesReport {
	r := &NotesReport{
		LessonID:    lesson.ID,
		LessonTitle: lesson.Title,
		Notes:       make([]ChallengeNote, 0),
	}
	for _, a := range attempts {
		for _, n := range a.DailyNotes {
			if n.Note == "" {
				continue
			}
			r.Notes = append(r.Notes, ChallengeNote{
				UserID:               a.UserID,
				Day:                  n.Day,
				Note:                 n.Note,
				CompletedAt:          n.CompletedAt,
				IsChallengeCompleted: a.IsCompleted,
			})
		}
	}
	r.TotalNotes = len(r.Notes)
	return r
}
