package models

// QuizQuestion is the shape each generated question must have. Replies are
// checked against it but returned to clients as received.
type QuizQuestion struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"len=4,dive,required"`
	CorrectAnswer *float64 `json:"correct_answer" validate:"required,whole,min=0,max=3"`
	Explanation   string   `json:"explanation" validate:"required"`
}
