package schema

// Module is one entry on the lesson path shown on the home view.
type Module struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Done  bool   `json:"done"`
	Color string `json:"color"`
}

// Profile is the learner's identity card.
type Profile struct {
	DisplayName string  `json:"displayName"`
	Username    string  `json:"username"`
	Level       int     `json:"level"`
	Progress    float64 `json:"progress"`
}

// AppState is the dashboard payload for GET /api/state.
type AppState struct {
	StreakDays    int      `json:"streakDays"`
	XP            int      `json:"xp"`
	CurrentLesson string   `json:"currentLesson"`
	Modules       []Module `json:"modules"`
	Profile       Profile  `json:"profile"`
}

// TextAnswerRequest carries a free-text answer for grading.
// LessonID is optional; the server falls back to its default lesson.
type TextAnswerRequest struct {
	LessonID   string `json:"lessonId,omitempty"`
	SceneIndex int    `json:"sceneIndex"`
	Answer     string `json:"answer"`
}

// TextAnswerResponse is the grading verdict for a free-text answer.
type TextAnswerResponse struct {
	IsCorrect     bool   `json:"isCorrect"`
	Reaction      string `json:"reaction"`
	Feedback      string `json:"feedback"`
	ReactionImage string `json:"reactionImage,omitempty"`
}

// ChatRequest is a question for the tutor, with the scene context the
// learner was looking at when they asked.
type ChatRequest struct {
	Context   string `json:"context"`
	UserQuery string `json:"userQuery"`
}

// ChatResponse is the tutor's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// CompleteRequest marks a module finished and awards XP.
type CompleteRequest struct {
	ModuleID string `json:"moduleId"`
	XP       int    `json:"xp"`
}
