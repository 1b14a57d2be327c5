package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Aryan-111/Orca-Edge/internal/model"
	"github.com/Aryan-111/Orca-Edge/internal/response"
	"github.com/Aryan-111/Orca-Edge/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const reportReply = "```json\n" + `{
  "sections": [
    {"category": "HR & Introduction", "score": 7, "feedback": "Clear and confident answers across the introductory questions."},
    {"category": "Technical Skills", "score": 6, "feedback": "Good fundamentals with room to add concrete detail."},
    {"category": "Behavioral & Situational", "score": 8, "feedback": "Strong use of specific examples from project work."}
  ],
  "overallScore": 7.0,
  "finalTip": "Keep practicing structured answers.",
  "suggestedResources": [],
  "progress_comparison": null
}` + "\n```"

type fakeHistory struct {
	mu      sync.Mutex
	history []model.InterviewReport
	saved   []model.InterviewReport
	saveErr error
}

func (f *fakeHistory) Save(report *model.InterviewReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *report)
	return nil
}

func (f *fakeHistory) Load() []model.InterviewReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.InterviewReport, len(f.history))
	copy(out, f.history)
	return out
}

func (f *fakeHistory) MostRecent() *model.InterviewReport {
	return model.MostRecent(f.Load())
}

func (f *fakeHistory) ListPage(page, pageSize int) ([]model.InterviewReport, *response.Pagination, error) {
	history := f.Load()
	return history, &response.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: int64(len(history)),
	}, nil
}

func (f *fakeHistory) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

type fakeAnalyzer struct {
	mu       sync.Mutex
	analysis model.CvAnalysis
	err      error
	calls    int
}

func (f *fakeAnalyzer) AnalyzeCV(ctx context.Context, document []byte, mimeType, targetRole string, technicalCount, behavioralCount int) (model.CvAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return model.CvAnalysis{}, f.err
	}
	return f.analysis, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeChat struct {
	mu      sync.Mutex
	calls   []string
	replies []string
	errAt   int           // 1-based Send index that fails, 0 for never
	gate    chan struct{} // when set, Send blocks until the channel closes
}

func (c *fakeChat) Send(ctx context.Context, text string) (string, error) {
	c.mu.Lock()
	gate := c.gate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, text)
	n := len(c.calls)
	if c.errAt != 0 && n == c.errAt {
		return "", errors.New("remote turn failed")
	}
	if n-1 < len(c.replies) {
		return c.replies[n-1], nil
	}
	return fmt.Sprintf("*Feedback:* Good answer.\nQuestion %d?", n), nil
}

func (c *fakeChat) setGate(gate chan struct{}) {
	c.mu.Lock()
	c.gate = gate
	c.mu.Unlock()
}

func (c *fakeChat) sentMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

type fakeOpener struct {
	mu     sync.Mutex
	chat   *fakeChat
	err    error
	params []service.InterviewChatParams
}

func (f *fakeOpener) OpenInterviewChat(ctx context.Context, params service.InterviewChatParams) (service.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.chat, nil
}

type fixture struct {
	uc       *InterviewUsecase
	history  *fakeHistory
	analyzer *fakeAnalyzer
	opener   *fakeOpener
	chat     *fakeChat
}

func newFixture() *fixture {
	chat := &fakeChat{}
	f := &fixture{
		history: &fakeHistory{},
		analyzer: &fakeAnalyzer{
			analysis: model.CvAnalysis{
				TechnicalSkills: []string{"Go"},
				Experiences:     []string{"a past project", "an internship"},
			},
		},
		opener: &fakeOpener{chat: chat},
		chat:   chat,
	}
	f.uc = NewInterviewUsecase(f.history, nil, f.analyzer, f.opener, nil)
	return f
}

// startInterview runs a session through Setup -> Interview with a 5-question plan.
func (f *fixture) startInterview(t *testing.T) uuid.UUID {
	t.Helper()
	created := f.uc.CreateSession()
	snap, err := f.uc.StartInterview(context.Background(), created.ID, "Data Analyst", 5, "cv.pdf", []byte("%PDF-"), "application/pdf")
	require.NoError(t, err)
	require.Equal(t, string(model.StageInterview), snap.Stage)
	return created.ID
}

func TestCreateSession_StartsInSetupWithGreeting(t *testing.T) {
	f := newFixture()

	snap := f.uc.CreateSession()

	assert.Equal(t, string(model.StageSetup), snap.Stage)
	require.Len(t, snap.Transcript, 1)
	assert.Equal(t, model.SenderAssistant, snap.Transcript[0].Sender)
	assert.Contains(t, snap.Transcript[0].Text, "target job role")
	assert.Zero(t, snap.AnswerCount)
	assert.False(t, snap.Loading)
}

func TestGetSession_UnknownID(t *testing.T) {
	f := newFixture()

	_, err := f.uc.GetSession(uuid.New())

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestStartInterview_HappyPath(t *testing.T) {
	f := newFixture()
	id := f.startInterview(t)

	snap, err := f.uc.GetSession(id)
	require.NoError(t, err)

	assert.Equal(t, string(model.StageInterview), snap.Stage)
	assert.Equal(t, "Data Analyst", snap.TargetRole)
	assert.Equal(t, 5, snap.Plan.Total)
	assert.False(t, snap.Loading)

	// Transcript: greeting, the setup summary, the first question.
	require.Len(t, snap.Transcript, 3)
	assert.Equal(t, model.SenderUser, snap.Transcript[1].Sender)
	assert.Contains(t, snap.Transcript[1].Text, "cv.pdf")
	assert.Equal(t, model.SenderAssistant, snap.Transcript[2].Sender)

	// The remote session receives the CV context exactly once, before any answer.
	sent := f.chat.sentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "USER_CONTEXT")
	assert.Contains(t, sent[0], "Go")
	assert.Contains(t, sent[0], "a past project")
}

func TestStartInterview_MissingRoleOrDocument(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name     string
		role     string
		document []byte
	}{
		{"missing role", "", []byte("cv")},
		{"whitespace role", "   ", []byte("cv")},
		{"missing document", "Data Analyst", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := f.uc.CreateSession()
			snap, err := f.uc.StartInterview(context.Background(), created.ID, tt.role, 5, "cv.pdf", tt.document, "application/pdf")

			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, string(model.StageSetup), snap.Stage)
			assert.Contains(t, snap.Transcript[len(snap.Transcript)-1].Text, "Please provide")
		})
	}

	assert.Zero(t, f.analyzer.callCount(), "validation failures must make no remote call")
}

func TestStartInterview_UnsupportedQuestionCount(t *testing.T) {
	f := newFixture()
	created := f.uc.CreateSession()

	snap, err := f.uc.StartInterview(context.Background(), created.ID, "Data Analyst", 7, "cv.pdf", []byte("cv"), "application/pdf")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, string(model.StageSetup), snap.Stage)
	assert.Zero(t, f.analyzer.callCount())
}

func TestStartInterview_ZeroQuestionCountUsesDefault(t *testing.T) {
	f := newFixture()
	created := f.uc.CreateSession()

	snap, err := f.uc.StartInterview(context.Background(), created.ID, "Data Analyst", 0, "cv.pdf", []byte("cv"), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, 15, snap.Plan.Total)
}

func TestStartInterview_RejectedOutsideSetup(t *testing.T) {
	f := newFixture()
	id := f.startInterview(t)

	_, err := f.uc.StartInterview(context.Background(), id, "Data Analyst", 5, "cv.pdf", []byte("cv"), "application/pdf")

	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestStartInterview_AnalyzerFailureLandsInError(t *testing.T) {
	f := newFixture()
	f.analyzer.err = errors.New("upstream unavailable")
	created := f.uc.CreateSession()

	snap, err := f.uc.StartInterview(context.Background(), created.ID, "Data Analyst", 5, "cv.pdf", []byte("cv"), "application/pdf")

	// Remote failures terminate the session, they are not API errors.
	require.NoError(t, err)
	assert.Equal(t, string(model.StageError), snap.Stage)
	assert.Contains(t, snap.Transcript[len(snap.Transcript)-1].Text, "error analyzing your CV")
	assert.False(t, snap.Loading)
}

func TestStartInterview_OpenerFailureLandsInError(t *testing.T) {
	f := newFixture()
	f.opener.err = errors.New("upstream unavailable")
	created := f.uc.CreateSession()

	snap, err := f.uc.StartInterview(context.Background(), created.ID, "Data Analyst", 5, "cv.pdf", []byte("cv"), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, string(model.StageError), snap.Stage)
}

func TestStartInterview_SeedsPreviousReportFromHistory(t *testing.T) {
	f := newFixture()
	f.history.history = []model.InterviewReport{
		{OverallScore: 6.5, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	f.startInterview(t)

	require.Len(t, f.opener.params, 1)
	prev := f.opener.params[0].PreviousReport
	require.NotNil(t, prev)
	assert.Equal(t, 6.5, prev.OverallScore)
}

func TestSubmitAnswer_MidInterviewTurn(t *testing.T) {
	f := newFixture()
	id := f.startInterview(t)

	snap, err := f.uc.SubmitAnswer(context.Background(), id, "I am a recent graduate.")
	require.NoError(t, err)

	assert.Equal(t, string(model.StageInterview), snap.Stage)
	assert.Equal(t, 1, snap.AnswerCount)

	last := snap.Transcript[len(snap.Transcript)-1]
	assert.Equal(t, model.SenderAssistant, last.Sender)
	assert.False(t, last.IsReport)
}

func TestSubmitAnswer_ValidationFailures(t *testing.T) {
	f := newFixture()

	t.Run("empty text", func(t *testing.T) {
		id := f.startInterview(t)
		snap, err := f.uc.SubmitAnswer(context.Background(), id, "   ")

		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Zero(t, snap.AnswerCount, "counter must not move on rejected input")
	})

	t.Run("wrong stage", func(t *testing.T) {
		created := f.uc.CreateSession()
		_, err := f.uc.SubmitAnswer(context.Background(), created.ID, "hello")

		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := f.uc.SubmitAnswer(context.Background(), uuid.New(), "hello")

		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestSubmitAnswer_FullRunCompletesWithReport(t *testing.T) {
	f := newFixture()
	// Send #1 is the CV context, #2-#5 are mid-interview turns, #6 is the report.
	f.chat.replies = []string{
		"First question?",
		"*Feedback:* Good.\nSecond question?",
		"*Feedback:* Good.\nThird question?",
		"*Feedback:* Good.\nFourth question?",
		"*Feedback:* Good.\nFifth question?",
		reportReply,
	}
	id := f.startInterview(t)

	for i := 1; i < 5; i++ {
		snap, err := f.uc.SubmitAnswer(context.Background(), id, fmt.Sprintf("Answer %d", i))
		require.NoError(t, err)
		assert.Equal(t, string(model.StageInterview), snap.Stage, "turn %d must stay in interview", i)
		assert.Equal(t, i, snap.AnswerCount)
	}

	snap, err := f.uc.SubmitAnswer(context.Background(), id, "Final answer")
	require.NoError(t, err)

	assert.Equal(t, string(model.StageComplete), snap.Stage)
	assert.Equal(t, 5, snap.AnswerCount)

	last := snap.Transcript[len(snap.Transcript)-1]
	assert.True(t, last.IsReport)
	require.NotNil(t, last.ReportData)
	assert.InDelta(t, 7.0, last.ReportData.OverallScore, 1e-9)

	assert.Equal(t, 1, f.history.savedCount(), "exactly one report per completed session")
}

func TestSubmitAnswer_MalformedFinalResponse(t *testing.T) {
	f := newFixture()
	// Send #6 closes the 5-question plan without a fenced JSON block.
	f.chat.replies = []string{
		"First question?", "q", "q", "q", "q",
		"Thanks for the chat, you did great!",
	}
	id := f.startInterview(t)

	for i := 1; i < 5; i++ {
		_, err := f.uc.SubmitAnswer(context.Background(), id, fmt.Sprintf("Answer %d", i))
		require.NoError(t, err)
	}

	snap, err := f.uc.SubmitAnswer(context.Background(), id, "Final answer")
	require.NoError(t, err)

	assert.Equal(t, string(model.StageError), snap.Stage)
	last := snap.Transcript[len(snap.Transcript)-1]
	assert.True(t, strings.HasPrefix(last.Text, "I had trouble generating your report"))
	assert.Contains(t, last.Text, "Thanks for the chat, you did great!")
	assert.Zero(t, f.history.savedCount(), "a malformed report is never persisted")
}

func TestSubmitAnswer_SaveFailureStillCompletes(t *testing.T) {
	f := newFixture()
	f.history.saveErr = errors.New("disk full")
	f.chat.replies = []string{"First question?", "q", "q", "q", "q", reportReply}
	id := f.startInterview(t)

	// 5-question plan: four mid turns, then the final one.
	for i := 1; i < 5; i++ {
		_, err := f.uc.SubmitAnswer(context.Background(), id, fmt.Sprintf("Answer %d", i))
		require.NoError(t, err)
	}

	snap, err := f.uc.SubmitAnswer(context.Background(), id, "Final answer")
	require.NoError(t, err)

	assert.Equal(t, string(model.StageComplete), snap.Stage)
}

func TestSubmitAnswer_SendFailureTerminatesSession(t *testing.T) {
	f := newFixture()
	f.chat.errAt = 2 // first answer turn fails
	id := f.startInterview(t)

	snap, err := f.uc.SubmitAnswer(context.Background(), id, "My answer")
	require.NoError(t, err)

	assert.Equal(t, string(model.StageError), snap.Stage)
	last := snap.Transcript[len(snap.Transcript)-1]
	assert.Equal(t, "Sorry, an error occurred. Please try again.", last.Text)

	// The session is terminal: further answers are rejected without a resend.
	sentBefore := len(f.chat.sentMessages())
	_, err = f.uc.SubmitAnswer(context.Background(), id, "Trying again")
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Len(t, f.chat.sentMessages(), sentBefore)
}

func TestSubmitAnswer_BusyWhileRequestInFlight(t *testing.T) {
	f := newFixture()
	id := f.startInterview(t)

	gate := make(chan struct{})
	f.chat.setGate(gate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.uc.SubmitAnswer(context.Background(), id, "Slow answer")
	}()

	require.Eventually(t, func() bool {
		snap, err := f.uc.GetSession(id)
		return err == nil && snap.Loading
	}, time.Second, 5*time.Millisecond)

	_, err := f.uc.SubmitAnswer(context.Background(), id, "Second answer")
	var busy *BusyError
	assert.ErrorAs(t, err, &busy)

	close(gate)
	<-done

	snap, err := f.uc.GetSession(id)
	require.NoError(t, err)
	assert.False(t, snap.Loading)
	assert.Equal(t, 1, snap.AnswerCount, "the rejected answer must not count")
}

func TestRestart_ResetsToSetup(t *testing.T) {
	f := newFixture()
	id := f.startInterview(t)
	_, err := f.uc.SubmitAnswer(context.Background(), id, "An answer")
	require.NoError(t, err)

	snap, err := f.uc.Restart(id)
	require.NoError(t, err)

	assert.Equal(t, string(model.StageSetup), snap.Stage)
	assert.Empty(t, snap.TargetRole)
	assert.Zero(t, snap.AnswerCount)
	require.Len(t, snap.Transcript, 1, "transcript resets to the greeting")
	assert.False(t, snap.Loading)
}

func TestRestart_DiscardsInFlightResult(t *testing.T) {
	f := newFixture()
	id := f.startInterview(t)

	gate := make(chan struct{})
	f.chat.setGate(gate)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.uc.SubmitAnswer(context.Background(), id, "Slow answer")
	}()

	require.Eventually(t, func() bool {
		snap, err := f.uc.GetSession(id)
		return err == nil && snap.Loading
	}, time.Second, 5*time.Millisecond)

	snap, err := f.uc.Restart(id)
	require.NoError(t, err)
	assert.Equal(t, string(model.StageSetup), snap.Stage)

	close(gate)
	<-done

	// The stale reply must not be applied to the reset session.
	snap, err = f.uc.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, string(model.StageSetup), snap.Stage)
	require.Len(t, snap.Transcript, 1)
	assert.Zero(t, snap.AnswerCount)
}

func TestLatestReport(t *testing.T) {
	f := newFixture()

	t.Run("empty history", func(t *testing.T) {
		assert.Nil(t, f.uc.LatestReport())
	})

	t.Run("deltas against previous report", func(t *testing.T) {
		f.history.history = []model.InterviewReport{
			{
				OverallScore: 7.0,
				Date:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Sections: []model.ReportSection{
					{Category: model.CategoryHR, Score: 7.5},
					{Category: model.CategoryTechnical, Score: 6.0},
					{Category: model.CategoryBehavioral, Score: 7.5},
				},
			},
			{
				OverallScore: 6.0,
				Date:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
				Sections: []model.ReportSection{
					{Category: model.CategoryHR, Score: 6.0},
					{Category: model.CategoryTechnical, Score: 5.5},
				},
			},
		}

		latest := f.uc.LatestReport()
		require.NotNil(t, latest)
		assert.InDelta(t, 1.0, latest.OverallDelta, 1e-9)
		assert.InDelta(t, 1.5, latest.SectionDeltas[model.CategoryHR], 1e-9)
		assert.InDelta(t, 0.5, latest.SectionDeltas[model.CategoryTechnical], 1e-9)
		assert.Zero(t, latest.SectionDeltas[model.CategoryBehavioral], "missing prior section yields zero delta")
	})

	t.Run("single report has zero deltas", func(t *testing.T) {
		f.history.history = f.history.history[:1]

		latest := f.uc.LatestReport()
		require.NotNil(t, latest)
		assert.Zero(t, latest.OverallDelta)
	})
}
