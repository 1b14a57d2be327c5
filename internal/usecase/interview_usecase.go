package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/Aryan-111/Orca-Edge/internal/config"
	"github.com/Aryan-111/Orca-Edge/internal/dto"
	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/Aryan-111/Orca-Edge/internal/repository"
	"github.com/Aryan-111/Orca-Edge/internal/response"
	"github.com/Aryan-111/Orca-Edge/internal/service"
	"github.com/Aryan-111/Orca-Edge/internal/util"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

const (
	analysisFailureMessage = "I'm sorry, there was an error analyzing your CV. Please restart and try again."
	turnFailureMessage     = "Sorry, an error occurred. Please try again."
	reportFailurePrefix    = "I had trouble generating your report in the correct format. Here is the raw data:\n\n"
	reportReadyMessage     = "Here is your detailed report."
)

// HistoryStore is what the orchestrator needs from the report repository.
type HistoryStore interface {
	Save(report *model.InterviewReport) error
	Load() []model.InterviewReport
	MostRecent() *model.InterviewReport
	ListPage(page, pageSize int) ([]model.InterviewReport, *response.Pagination, error)
}

// InterviewUsecase drives the interview session state machine: CV intake at
// setup, turn-by-turn exchange with the remote chat session, report
// extraction on the final turn, and history persistence on completion.
type InterviewUsecase struct {
	reports  HistoryStore
	roles    *repository.RoleProfileRepository
	analyzer service.CvAnalyzer
	chats    service.ChatOpener
	embedder service.Embedder

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

func NewInterviewUsecase(reports HistoryStore, roles *repository.RoleProfileRepository, analyzer service.CvAnalyzer, chats service.ChatOpener, embedder service.Embedder) *InterviewUsecase {
	return &InterviewUsecase{
		reports:  reports,
		roles:    roles,
		analyzer: analyzer,
		chats:    chats,
		embedder: embedder,
		sessions: make(map[uuid.UUID]*session),
	}
}

// CreateSession registers a fresh session in the Setup stage.
func (u *InterviewUsecase) CreateSession() dto.InterviewSessionDTO {
	s := newSession()
	u.mu.Lock()
	u.sessions[s.id] = s
	u.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (u *InterviewUsecase) GetSession(id uuid.UUID) (dto.InterviewSessionDTO, error) {
	s, err := u.findSession(id)
	if err != nil {
		return dto.InterviewSessionDTO{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(), nil
}

// StartInterview fires the Setup -> Analyzing -> Interview transition: CV
// analysis, remote session open, initial context message. Validation
// failures keep the session in Setup with a user-visible message and make no
// remote call. Remote failures land the session in Error.
func (u *InterviewUsecase) StartInterview(ctx context.Context, id uuid.UUID, targetRole string, numQuestions int, fileName string, document []byte, mimeType string) (dto.InterviewSessionDTO, error) {
	s, err := u.findSession(id)
	if err != nil {
		return dto.InterviewSessionDTO{}, err
	}

	targetRole = strings.TrimSpace(targetRole)
	interviewCfg := config.LoadInterviewConfig()
	if numQuestions == 0 {
		numQuestions = interviewCfg.DefaultQuestions
	}

	s.mu.Lock()
	if s.loading {
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, &BusyError{}
	}
	if s.stage != model.StageSetup {
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, &ValidationError{Message: fmt.Sprintf("cannot start an interview from the %s stage", s.stage)}
	}

	if targetRole == "" || len(document) == 0 {
		s.appendTurn(model.ChatTurn{
			Sender: model.SenderAssistant,
			Text:   "Please provide a target job role, select an interview length, and upload a CV file to start.",
		})
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, &ValidationError{Message: "target role and CV document are required"}
	}
	if !interviewCfg.AllowsQuestionCount(numQuestions) {
		s.appendTurn(model.ChatTurn{
			Sender: model.SenderAssistant,
			Text:   fmt.Sprintf("Please choose one of the supported interview lengths: %v.", interviewCfg.AllowedQuestions),
		})
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, &ValidationError{Message: fmt.Sprintf("unsupported question count %d", numQuestions)}
	}

	plan := model.NewQuestionPlan(numQuestions)
	s.targetRole = targetRole
	s.plan = plan
	s.stage = model.StageAnalyzing
	s.appendTurn(model.ChatTurn{
		Sender: model.SenderUser,
		Text:   fmt.Sprintf("Role: %s | Questions: %d\nCV: %s", targetRole, numQuestions, fileName),
	})
	s.beginLoading()
	epoch := s.epoch
	s.mu.Unlock()

	// Seed-time history read: the most recent prior report becomes the
	// comparison context for the session being started.
	previousReport := u.reports.MostRecent()

	analysis, err := u.analyzer.AnalyzeCV(ctx, document, mimeType, targetRole, plan.TechnicalCount, plan.BehavioralCount)
	if err != nil {
		log.Printf("cv analysis failed for session %s: %v", s.id, err)
		return u.failSession(s, epoch, analysisFailureMessage), nil
	}

	chat, err := u.chats.OpenInterviewChat(ctx, service.InterviewChatParams{
		TargetRole:     targetRole,
		Plan:           plan,
		PreviousReport: previousReport,
		RoleContext:    u.roleContext(ctx, targetRole),
	})
	if err != nil {
		log.Printf("failed to open chat session for %s: %v", s.id, err)
		return u.failSession(s, epoch, analysisFailureMessage), nil
	}

	contextMessage := fmt.Sprintf(
		"USER_CONTEXT: Use these skills and experiences for questions. Skills: %s. Experiences: %s. Now, start the interview.",
		strings.Join(analysis.TechnicalSkills, ", "),
		strings.Join(analysis.Experiences, ", "),
	)

	firstQuestion, err := chat.Send(ctx, contextMessage)
	if err != nil {
		log.Printf("initial context message failed for %s: %v", s.id, err)
		return u.failSession(s, epoch, analysisFailureMessage), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Session was restarted while the call was in flight; discard.
		return s.snapshot(), nil
	}
	s.chat = chat
	s.appendTurn(model.ChatTurn{Sender: model.SenderAssistant, Text: firstQuestion})
	s.stage = model.StageInterview
	s.endLoading()
	return s.snapshot(), nil
}

// SubmitAnswer forwards one user answer to the remote session. The answer
// counter increments exactly once per submission while in Interview; when it
// reaches the plan total the response is treated as the final report.
func (u *InterviewUsecase) SubmitAnswer(ctx context.Context, id uuid.UUID, text string) (dto.InterviewSessionDTO, error) {
	s, err := u.findSession(id)
	if err != nil {
		return dto.InterviewSessionDTO{}, err
	}

	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.loading {
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, &BusyError{}
	}
	if s.stage != model.StageInterview {
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, &ValidationError{Message: fmt.Sprintf("answers are not accepted in the %s stage", s.stage)}
	}
	if text == "" {
		snap := s.snapshot()
		s.mu.Unlock()
		return snap, &ValidationError{Message: "answer text is required"}
	}

	s.appendTurn(model.ChatTurn{Sender: model.SenderUser, Text: text})
	s.answerCount++
	finalTurn := s.answerCount == s.plan.Total
	chat := s.chat
	s.beginLoading()
	epoch := s.epoch
	s.mu.Unlock()

	reply, sendErr := chat.Send(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return s.snapshot(), nil
	}

	if sendErr != nil {
		// Fail fast: no retry, since the remote session's turn order must
		// stay aligned with ours.
		log.Printf("chat turn failed for session %s: %v", s.id, sendErr)
		s.appendTurn(model.ChatTurn{Sender: model.SenderAssistant, Text: turnFailureMessage})
		s.stage = model.StageError
		s.endLoading()
		return s.snapshot(), nil
	}

	if !finalTurn {
		s.appendTurn(model.ChatTurn{Sender: model.SenderAssistant, Text: reply})
		s.endLoading()
		return s.snapshot(), nil
	}

	s.stage = model.StageFeedback
	u.finalizeReport(s, reply)
	s.endLoading()
	return s.snapshot(), nil
}

// finalizeReport extracts the structured report from the final response,
// persists it, and completes the session. Extraction failure surfaces the
// raw response in the transcript and terminates the session in Error.
// Caller must hold s.mu.
func (u *InterviewUsecase) finalizeReport(s *session, rawReply string) {
	report, err := util.ExtractReport(rawReply)
	if err != nil {
		log.Printf("report extraction failed for session %s: %v", s.id, err)
		s.appendTurn(model.ChatTurn{Sender: model.SenderAssistant, Text: reportFailurePrefix + rawReply})
		s.stage = model.StageError
		return
	}

	s.appendTurn(model.ChatTurn{
		Sender:     model.SenderAssistant,
		Text:       reportReadyMessage,
		IsReport:   true,
		ReportData: report,
	})

	// Best-effort persistence: history must never block completion.
	if err := u.reports.Save(report); err != nil {
		log.Printf("failed to save interview report for session %s: %v", s.id, err)
	}

	s.stage = model.StageComplete
}

// Restart resets a session back to Setup from any stage. A pending remote
// call is not cancelled; its eventual result is discarded via the epoch bump.
func (u *InterviewUsecase) Restart(id uuid.UUID) (dto.InterviewSessionDTO, error) {
	s, err := u.findSession(id)
	if err != nil {
		return dto.InterviewSessionDTO{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return s.snapshot(), nil
}

// History returns one page of completed reports, newest first.
func (u *InterviewUsecase) History(page, pageSize int) ([]model.InterviewReport, *response.Pagination, error) {
	return u.reports.ListPage(page, pageSize)
}

// LatestReport returns the newest report with score deltas against the one
// before it. Missing prior data yields zero deltas, not an error.
func (u *InterviewUsecase) LatestReport() *dto.LatestReportDTO {
	history := u.reports.Load()
	latest := model.MostRecent(history)
	if latest == nil {
		return nil
	}

	var previous *model.InterviewReport
	if len(history) > 1 {
		previous = &history[1]
	}

	sectionDeltas := make(map[string]float64)
	for _, category := range model.ExpectedCategories() {
		sectionDeltas[category] = model.SectionDelta(latest, previous, category)
	}

	return &dto.LatestReportDTO{
		Report:        latest,
		OverallDelta:  model.OverallDelta(latest, previous),
		SectionDeltas: sectionDeltas,
	}
}

// roleContext retrieves background on comparable roles via embedding
// similarity. Strictly best-effort: any failure returns an empty context.
func (u *InterviewUsecase) roleContext(ctx context.Context, targetRole string) string {
	if u.roles == nil || u.embedder == nil {
		return ""
	}

	embedding, err := u.embedder.GenerateEmbedding(ctx, targetRole)
	if err != nil {
		log.Printf("role embedding failed: %v", err)
		return ""
	}

	profiles, err := u.roles.SearchRoleProfiles(pgvector.NewVector(embedding), 3)
	if err != nil {
		log.Printf("role profile search failed: %v", err)
		return ""
	}

	var sb strings.Builder
	for _, p := range profiles {
		sb.WriteString(fmt.Sprintf("%s: %s\n", p.Title, p.Content))
	}
	return strings.TrimSpace(sb.String())
}

// SeedRoleProfiles embeds and stores the built-in role profiles used for
// role-context retrieval.
func (u *InterviewUsecase) SeedRoleProfiles(ctx context.Context) error {
	if u.roles == nil || u.embedder == nil {
		return fmt.Errorf("role profile storage is not configured")
	}

	profiles := []model.RoleProfile{
		{
			Title:   "Data Analyst",
			Content: "Entry-level data analyst roles expect SQL, spreadsheet modeling, a BI tool such as Power BI or Tableau, and the ability to present findings to non-technical stakeholders. Interviews focus on foundational statistics, data cleaning judgment, and walking through a past analysis end to end.",
		},
		{
			Title:   "Backend Engineer",
			Content: "Entry-level backend roles expect one server-side language, relational database basics, REST API design, and version control habits. Interviews probe data structures, request lifecycle understanding, and debugging approach rather than framework trivia.",
		},
		{
			Title:   "Frontend Engineer",
			Content: "Entry-level frontend roles expect JavaScript or TypeScript, a component framework such as React, and an eye for accessibility and responsive layout. Interviews cover DOM fundamentals, state management reasoning, and collaboration with designers.",
		},
	}

	for i := range profiles {
		embedding, err := u.embedder.GenerateEmbedding(ctx, profiles[i].Content)
		if err != nil {
			return fmt.Errorf("failed to embed role profile %q: %w", profiles[i].Title, err)
		}
		profiles[i].Embedding = pgvector.NewVector(embedding)
		if err := u.roles.UpdateRoleProfile(&profiles[i]); err != nil {
			return fmt.Errorf("failed to store role profile %q: %w", profiles[i].Title, err)
		}
	}
	return nil
}

// failSession terminates a session after a remote failure, unless the
// session was restarted while the call was in flight.
func (u *InterviewUsecase) failSession(s *session, epoch int, message string) dto.InterviewSessionDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return s.snapshot()
	}
	s.appendTurn(model.ChatTurn{Sender: model.SenderAssistant, Text: message})
	s.stage = model.StageError
	s.endLoading()
	return s.snapshot()
}

func (u *InterviewUsecase) findSession(id uuid.UUID) (*session, error) {
	u.mu.RLock()
	s, ok := u.sessions[id]
	u.mu.RUnlock()
	if !ok {
		return nil, &NotFoundError{ID: id.String()}
	}
	return s, nil
}
