package usecase

import (
	"sync"
	"time"

	"github.com/Aryan-111/Orca-Edge/internal/dto"
	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/Aryan-111/Orca-Edge/internal/service"
	"github.com/google/uuid"
)

const setupGreeting = "Hello! I'm Orca, your dedicated interview coach. To begin, please enter your target job role, select the interview length, and upload your CV (image or PDF)."

// session is the single mutable state record for one interview: stage,
// transcript, counter, remote chat handle, loading flag, and timer all live
// here and are mutated only under mu by the orchestrator.
type session struct {
	id uuid.UUID

	mu             sync.Mutex
	stage          model.Stage
	targetRole     string
	plan           model.QuestionPlan
	transcript     []model.ChatTurn
	answerCount    int
	chat           service.ChatSession
	loading        bool
	elapsedSeconds int
	timerStop      chan struct{}

	// epoch is bumped on every restart. A response arriving for an older
	// epoch belongs to a discarded session and is dropped, never applied.
	epoch int
}

func newSession() *session {
	return &session{
		id:         uuid.New(),
		stage:      model.StageSetup,
		transcript: []model.ChatTurn{{Sender: model.SenderAssistant, Text: setupGreeting}},
	}
}

// beginLoading marks a remote request as in flight and starts the elapsed
// ticker. Caller must hold mu.
func (s *session) beginLoading() {
	s.loading = true
	s.elapsedSeconds = 0
	s.timerStop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.mu.Lock()
				if s.loading {
					s.elapsedSeconds++
				}
				s.mu.Unlock()
			case <-stop:
				return
			}
		}
	}(s.timerStop)
}

// endLoading clears the in-flight flag and cancels the ticker. Safe to call
// on every exit path; the ticker is never left running. Caller must hold mu.
func (s *session) endLoading() {
	s.loading = false
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
}

// reset returns the session to Setup, discarding transcript, counter, chat
// handle, and timer. The epoch bump makes any still-pending remote result
// stale so it is discarded on arrival rather than applied.
func (s *session) reset() {
	s.endLoading()
	s.stage = model.StageSetup
	s.targetRole = ""
	s.plan = model.QuestionPlan{}
	s.transcript = []model.ChatTurn{{Sender: model.SenderAssistant, Text: setupGreeting}}
	s.answerCount = 0
	s.chat = nil
	s.elapsedSeconds = 0
	s.epoch++
}

func (s *session) appendTurn(turn model.ChatTurn) {
	s.transcript = append(s.transcript, turn)
}

// snapshot copies the visible session state. Caller must hold mu.
func (s *session) snapshot() dto.InterviewSessionDTO {
	transcript := make([]model.ChatTurn, len(s.transcript))
	copy(transcript, s.transcript)
	return dto.InterviewSessionDTO{
		ID:             s.id,
		Stage:          string(s.stage),
		TargetRole:     s.targetRole,
		Plan:           s.plan,
		Transcript:     transcript,
		AnswerCount:    s.answerCount,
		Loading:        s.loading,
		ElapsedSeconds: s.elapsedSeconds,
	}
}
