package flow

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shvbsle/survey-sensei/internal/content"
	"github.com/shvbsle/survey-sensei/internal/models"
)

var errUnexpectedCall = errors.New("unexpected service call")

// fakeService scripts the content service per method. Unset methods fail the
// operation, which surfaces as a test failure wherever a call was not
// expected.
type fakeService struct {
	mu    sync.Mutex
	calls []string

	startFn      func(subject models.IntakeSubject) (*content.StartResult, error)
	answerFn     func(sessionID string, questionNumber int, value models.AnswerValue) (*content.StepResult, error)
	skipFn       func(sessionID string, questionNumber int) (*content.StepResult, error)
	editFn       func(sessionID string, questionNumber int, value models.AnswerValue) (*content.StepResult, error)
	questionFn   func(sessionID string, questionNumber int) (*content.EditQuestion, error)
	generateFn   func(sessionID string) (*content.ReviewsResult, error)
	regenerateFn func(sessionID string) (*content.ReviewsResult, error)
	submitFn     func(sessionID string, optionIndex int) (*content.SubmitResult, error)
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeService) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeService) Start(_ context.Context, subject models.IntakeSubject) (*content.StartResult, error) {
	f.record("Start")
	if f.startFn == nil {
		return nil, fmt.Errorf("%w: Start", errUnexpectedCall)
	}
	return f.startFn(subject)
}

func (f *fakeService) Answer(_ context.Context, sessionID string, questionNumber int, value models.AnswerValue) (*content.StepResult, error) {
	f.record("Answer")
	if f.answerFn == nil {
		return nil, fmt.Errorf("%w: Answer", errUnexpectedCall)
	}
	return f.answerFn(sessionID, questionNumber, value)
}

func (f *fakeService) Skip(_ context.Context, sessionID string, questionNumber int) (*content.StepResult, error) {
	f.record("Skip")
	if f.skipFn == nil {
		return nil, fmt.Errorf("%w: Skip", errUnexpectedCall)
	}
	return f.skipFn(sessionID, questionNumber)
}

func (f *fakeService) Edit(_ context.Context, sessionID string, questionNumber int, value models.AnswerValue) (*content.StepResult, error) {
	f.record("Edit")
	if f.editFn == nil {
		return nil, fmt.Errorf("%w: Edit", errUnexpectedCall)
	}
	return f.editFn(sessionID, questionNumber, value)
}

func (f *fakeService) GetQuestionForEdit(_ context.Context, sessionID string, questionNumber int) (*content.EditQuestion, error) {
	f.record("GetQuestionForEdit")
	if f.questionFn == nil {
		return nil, fmt.Errorf("%w: GetQuestionForEdit", errUnexpectedCall)
	}
	return f.questionFn(sessionID, questionNumber)
}

func (f *fakeService) GenerateReviews(_ context.Context, sessionID string) (*content.ReviewsResult, error) {
	f.record("GenerateReviews")
	if f.generateFn == nil {
		return nil, fmt.Errorf("%w: GenerateReviews", errUnexpectedCall)
	}
	return f.generateFn(sessionID)
}

func (f *fakeService) RegenerateReviews(_ context.Context, sessionID string) (*content.ReviewsResult, error) {
	f.record("RegenerateReviews")
	if f.regenerateFn == nil {
		return nil, fmt.Errorf("%w: RegenerateReviews", errUnexpectedCall)
	}
	return f.regenerateFn(sessionID)
}

func (f *fakeService) SubmitReview(_ context.Context, sessionID string, optionIndex int) (*content.SubmitResult, error) {
	f.record("SubmitReview")
	if f.submitFn == nil {
		return nil, fmt.Errorf("%w: SubmitReview", errUnexpectedCall)
	}
	return f.submitFn(sessionID, optionIndex)
}

type fakeNotifier struct {
	mu      sync.Mutex
	reviews []models.Review
	err     error
}

func (n *fakeNotifier) ReviewSubmitted(_ context.Context, review models.Review) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviews = append(n.reviews, review)
	return n.err
}

type fakeIntakeValidator struct {
	err error
}

func (f *fakeIntakeValidator) ValidateSubject(models.IntakeSubject) error {
	return f.err
}

func flowSubject() models.IntakeSubject {
	return models.IntakeSubject{
		ShopperID: "shop_flowtest01",
		ProductID: "prod_flowtest01",
		Form:      models.IntakeForm{Email: "rivera@example.com", HasPastReviews: true},
	}
}

func flowQuestion(text string) models.SurveyQuestion {
	return models.SurveyQuestion{
		QuestionText: text,
		Options:      []string{"Excellent", "Good", "Fair", "Poor", "Other"},
	}
}

func continueStep(questionNumber int, text string) *content.StepResult {
	q := flowQuestion(text)
	return &content.StepResult{
		Status:         models.StepContinue,
		Question:       &q,
		QuestionNumber: questionNumber,
		Progress: models.Progress{
			QuestionsAnswered: questionNumber - 1,
			QuestionsAsked:    5,
			TotalEstimate:     5,
		},
	}
}

func completedStep(answered int) *content.StepResult {
	return &content.StepResult{
		Status: models.StepSurveyCompleted,
		Progress: models.Progress{
			QuestionsAnswered: answered,
			QuestionsAsked:    5,
			TotalEstimate:     5,
		},
	}
}

func defaultStart(models.IntakeSubject) (*content.StartResult, error) {
	return &content.StartResult{
		SessionID:      "sess_flowtest01",
		Question:       flowQuestion("How would you rate the overall quality?"),
		QuestionNumber: 1,
		TotalQuestions: 3,
	}, nil
}

// sequencedSteps replies with the given step results in order.
func sequencedSteps(steps ...*content.StepResult) func(string, int, models.AnswerValue) (*content.StepResult, error) {
	i := 0
	return func(string, int, models.AnswerValue) (*content.StepResult, error) {
		if i >= len(steps) {
			return nil, fmt.Errorf("%w: step %d", errUnexpectedCall, i+1)
		}
		step := steps[i]
		i++
		return step, nil
	}
}

func reviewOptions(stars ...int) []models.ReviewOption {
	options := make([]models.ReviewOption, len(stars))
	for i, s := range stars {
		options[i] = models.ReviewOption{
			ReviewText:  fmt.Sprintf("Candidate review %d for the trail runners.", i+1),
			ReviewStars: s,
			Tone:        "balanced",
		}
	}
	return options
}

func answer(label string) RawSelection {
	return RawSelection{Selected: []string{label}}
}

// startedController drives a fresh controller through intake and start.
func startedController(t *testing.T, svc *fakeService) *Controller {
	t.Helper()
	if svc.startFn == nil {
		svc.startFn = defaultStart
	}
	c := NewController(svc, nil, nil)
	ctx := context.Background()
	if _, err := c.SubmitIntake(ctx, flowSubject()); err != nil {
		t.Fatalf("SubmitIntake() error: %v", err)
	}
	if _, err := c.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	return c
}

// completedController drives a controller to the survey_completed state with
// two recorded answers.
func completedController(t *testing.T, svc *fakeService) *Controller {
	t.Helper()
	svc.answerFn = sequencedSteps(
		continueStep(2, "What stood out during daily use?"),
		completedStep(2),
	)
	c := startedController(t, svc)
	ctx := context.Background()
	if _, err := c.SubmitAnswer(ctx, answer("Good")); err != nil {
		t.Fatalf("SubmitAnswer(1) error: %v", err)
	}
	snap, err := c.SubmitAnswer(ctx, answer("Fair"))
	if err != nil {
		t.Fatalf("SubmitAnswer(2) error: %v", err)
	}
	if snap.Status != models.StatusSurveyCompleted {
		t.Fatalf("Status = %q, want survey_completed", snap.Status)
	}
	return c
}

func TestNewControllerInitialSnapshot(t *testing.T) {
	c := NewController(&fakeService{}, nil, nil)
	snap := c.Snapshot()
	if snap.FlowID == "" {
		t.Error("FlowID is empty")
	}
	if snap.Status != models.StatusStarting {
		t.Errorf("Status = %q, want starting", snap.Status)
	}
	if snap.Question != nil || len(snap.Responses) != 0 {
		t.Error("fresh flow carries survey state")
	}
	if snap.Panes.Mode != models.PaneModeTwo || snap.Panes.Expanded != models.PaneForm {
		t.Errorf("Panes = %+v, want two-pane form-expanded", snap.Panes)
	}
}

func TestSubmitIntake(t *testing.T) {
	c := NewController(&fakeService{}, nil, nil)
	ctx := context.Background()

	snap, err := c.SubmitIntake(ctx, flowSubject())
	if err != nil {
		t.Fatalf("SubmitIntake() error: %v", err)
	}
	if snap.Status != models.StatusStarting {
		t.Errorf("Status = %q, want starting until the survey opens", snap.Status)
	}
	if snap.Panes.Mode != models.PaneModeTwo {
		t.Errorf("Mode = %d, want two-pane", snap.Panes.Mode)
	}
	if snap.Panes.Expanded != models.PaneProduct {
		t.Errorf("Expanded = %q, want product after intake", snap.Panes.Expanded)
	}
	if snap.Intake == nil || snap.Intake.ShopperID != "shop_flowtest01" {
		t.Errorf("Intake = %+v, want the submitted subject", snap.Intake)
	}

	if _, err := c.SubmitIntake(ctx, flowSubject()); !errors.Is(err, ErrIntakeSubmitted) {
		t.Errorf("second SubmitIntake() error = %v, want ErrIntakeSubmitted", err)
	}
}

func TestSubmitIntakeValidation(t *testing.T) {
	ctx := context.Background()

	c := NewController(&fakeService{}, nil, nil)
	subject := flowSubject()
	subject.Form.Email = ""
	if _, err := c.SubmitIntake(ctx, subject); !errors.Is(err, models.ErrEmptyEmail) {
		t.Errorf("SubmitIntake(no email) error = %v, want ErrEmptyEmail", err)
	}

	catalogErr := errors.New("shopper not found")
	c = NewController(&fakeService{}, &fakeIntakeValidator{err: catalogErr}, nil)
	if _, err := c.SubmitIntake(ctx, flowSubject()); !errors.Is(err, catalogErr) {
		t.Errorf("SubmitIntake() error = %v, want catalog rejection", err)
	}

	// A rejected intake leaves the form open for another attempt.
	c.intake = &fakeIntakeValidator{}
	if _, err := c.SubmitIntake(ctx, flowSubject()); err != nil {
		t.Errorf("retry after rejection error: %v", err)
	}
}

func TestStart(t *testing.T) {
	svc := &fakeService{startFn: defaultStart}
	c := NewController(svc, nil, nil)
	ctx := context.Background()

	if _, err := c.Start(ctx); !errors.Is(err, ErrIntakeRequired) {
		t.Fatalf("Start() before intake error = %v, want ErrIntakeRequired", err)
	}

	if _, err := c.SubmitIntake(ctx, flowSubject()); err != nil {
		t.Fatalf("SubmitIntake() error: %v", err)
	}
	snap, err := c.Start(ctx)
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if snap.Status != models.StatusInProgress {
		t.Errorf("Status = %q, want in_progress", snap.Status)
	}
	if snap.SessionID != "sess_flowtest01" {
		t.Errorf("SessionID = %q", snap.SessionID)
	}
	if snap.Question == nil || snap.QuestionNumber != 1 {
		t.Fatalf("Question/QuestionNumber = %v/%d, want first question", snap.Question, snap.QuestionNumber)
	}
	if snap.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", snap.TotalQuestions)
	}
	if snap.Panes.Mode != models.PaneModeThree || snap.Panes.Expanded != models.PaneSurvey {
		t.Errorf("Panes = %+v, want three-pane survey-expanded", snap.Panes)
	}

	if _, err := c.Start(ctx); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestStartFailureKeepsFlowStarting(t *testing.T) {
	upstream := errors.New("model unavailable")
	svc := &fakeService{
		startFn: func(models.IntakeSubject) (*content.StartResult, error) {
			return nil, upstream
		},
	}
	c := NewController(svc, nil, nil)
	ctx := context.Background()
	if _, err := c.SubmitIntake(ctx, flowSubject()); err != nil {
		t.Fatalf("SubmitIntake() error: %v", err)
	}

	snap, err := c.Start(ctx)
	var startErr *StartError
	if !errors.As(err, &startErr) || !errors.Is(err, upstream) {
		t.Fatalf("Start() error = %v, want StartError wrapping upstream", err)
	}
	if snap.Status != models.StatusStarting {
		t.Errorf("Status = %q, want starting after failed start", snap.Status)
	}
	if snap.SessionID != "" || snap.Question != nil {
		t.Error("failed start leaked session state into the snapshot")
	}

	// The user may retry explicitly.
	svc.startFn = defaultStart
	if _, err := c.Start(ctx); err != nil {
		t.Errorf("retry Start() error: %v", err)
	}
}

func TestSubmitAnswerAdvancesSurvey(t *testing.T) {
	svc := &fakeService{
		answerFn: sequencedSteps(
			continueStep(2, "What stood out during daily use?"),
			completedStep(2),
		),
	}
	c := startedController(t, svc)
	ctx := context.Background()

	snap, err := c.SubmitAnswer(ctx, answer("Good"))
	if err != nil {
		t.Fatalf("SubmitAnswer() error: %v", err)
	}
	if snap.QuestionNumber != 2 {
		t.Errorf("QuestionNumber = %d, want 2", snap.QuestionNumber)
	}
	if len(snap.Responses) != 1 {
		t.Fatalf("Responses = %d entries, want 1", len(snap.Responses))
	}
	rec := snap.Responses[0]
	if rec.QuestionNumber != 1 || rec.Skipped {
		t.Errorf("record = %+v, want answered question 1", rec)
	}
	if got := rec.Value.Display(); got != "Good" {
		t.Errorf("recorded answer = %q, want Good", got)
	}
	if snap.TotalQuestions != 5 {
		t.Errorf("TotalQuestions = %d, want estimate adopted from step", snap.TotalQuestions)
	}

	snap, err = c.SubmitAnswer(ctx, answer("Fair"))
	if err != nil {
		t.Fatalf("SubmitAnswer() error: %v", err)
	}
	if snap.Status != models.StatusSurveyCompleted {
		t.Errorf("Status = %q, want survey_completed", snap.Status)
	}
	if snap.Question != nil || snap.QuestionNumber != 0 {
		t.Error("completed survey still displays a question")
	}
	if len(snap.Responses) != 2 {
		t.Errorf("Responses = %d entries, want 2", len(snap.Responses))
	}
}

func TestSubmitAnswerGuards(t *testing.T) {
	ctx := context.Background()

	c := NewController(&fakeService{}, nil, nil)
	if _, err := c.SubmitAnswer(ctx, answer("Good")); !errors.Is(err, ErrNoQuestion) {
		t.Errorf("SubmitAnswer() before start error = %v, want ErrNoQuestion", err)
	}

	svc := &fakeService{}
	started := startedController(t, svc)
	if _, err := started.SubmitAnswer(ctx, RawSelection{}); !errors.Is(err, models.ErrEmptyAnswer) {
		t.Errorf("SubmitAnswer(empty) error = %v, want ErrEmptyAnswer", err)
	}
	if _, err := started.SubmitAnswer(ctx, answer("Bananas")); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("SubmitAnswer(unknown) error = %v, want ErrUnknownOption", err)
	}
	if got := svc.count("Answer"); got != 0 {
		t.Errorf("Answer calls = %d, want 0 for locally rejected submissions", got)
	}
}

func TestSubmitAnswerFailureLeavesSnapshotUnchanged(t *testing.T) {
	upstream := errors.New("model timeout")
	svc := &fakeService{
		answerFn: func(string, int, models.AnswerValue) (*content.StepResult, error) {
			return nil, upstream
		},
	}
	c := startedController(t, svc)
	before := c.Snapshot()

	snap, err := c.SubmitAnswer(context.Background(), answer("Good"))
	var stepErr *StepError
	if !errors.As(err, &stepErr) || !errors.Is(err, upstream) {
		t.Fatalf("SubmitAnswer() error = %v, want StepError wrapping upstream", err)
	}
	if snap.LastError == "" {
		t.Error("LastError not surfaced after failed call")
	}
	before.LastActivityAt, snap.LastActivityAt = time.Time{}, time.Time{}
	before.LastError, snap.LastError = "", ""
	if !reflect.DeepEqual(before, snap) {
		t.Errorf("snapshot changed after failed call:\nbefore %+v\nafter  %+v", before, snap)
	}

	// A later accepted step clears the failure surface.
	svc.answerFn = sequencedSteps(continueStep(2, "What stood out during daily use?"))
	snap, err = c.SubmitAnswer(context.Background(), answer("Good"))
	if err != nil {
		t.Fatalf("retry SubmitAnswer() error: %v", err)
	}
	if snap.LastError != "" {
		t.Errorf("LastError = %q after success, want cleared", snap.LastError)
	}
}

func TestConcurrentSubmitsCollapseToOne(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	svc := &fakeService{
		answerFn: func(string, int, models.AnswerValue) (*content.StepResult, error) {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
			return continueStep(2, "What stood out during daily use?"), nil
		},
	}
	c := startedController(t, svc)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := c.SubmitAnswer(ctx, answer("Good"))
		done <- err
	}()
	<-entered

	if _, err := c.SubmitAnswer(ctx, answer("Fair")); !errors.Is(err, ErrBusy) {
		t.Errorf("second SubmitAnswer() error = %v, want ErrBusy", err)
	}
	if _, err := c.Skip(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("Skip() during submit error = %v, want ErrBusy", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first SubmitAnswer() error: %v", err)
	}
	if got := svc.count("Answer"); got != 1 {
		t.Errorf("Answer calls = %d, want 1", got)
	}
	snap := c.Snapshot()
	if len(snap.Responses) != 1 {
		t.Fatalf("Responses = %d entries, want 1", len(snap.Responses))
	}
	if got := snap.Responses[0].Value.Display(); got != "Good" {
		t.Errorf("recorded answer = %q, want the accepted submission", got)
	}
}

func TestSkip(t *testing.T) {
	svc := &fakeService{
		skipFn: func(_ string, questionNumber int) (*content.StepResult, error) {
			return continueStep(questionNumber+1, "What stood out during daily use?"), nil
		},
	}
	c := startedController(t, svc)

	snap, err := c.Skip(context.Background())
	if err != nil {
		t.Fatalf("Skip() error: %v", err)
	}
	if len(snap.Responses) != 1 || !snap.Responses[0].Skipped {
		t.Fatalf("Responses = %+v, want one skipped record", snap.Responses)
	}
	if !snap.Responses[0].Value.IsEmpty() {
		t.Errorf("skipped record carries a value: %+v", snap.Responses[0].Value)
	}
	if snap.QuestionNumber != 2 {
		t.Errorf("QuestionNumber = %d, want 2", snap.QuestionNumber)
	}
}

func TestSkipLimitRejectionLeavesStateUntouched(t *testing.T) {
	svc := &fakeService{
		skipFn: func(string, int) (*content.StepResult, error) {
			return nil, &content.SkipLimitError{
				Message:     "You have skipped 3 questions in a row. Please answer this one before skipping again.",
				Consecutive: 3,
				Total:       3,
			}
		},
	}
	c := startedController(t, svc)
	before := c.Snapshot()

	snap, err := c.Skip(context.Background())
	var limitErr *content.SkipLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("Skip() error = %v, want SkipLimitError", err)
	}
	if limitErr.Message == "" || limitErr.Consecutive != 3 {
		t.Errorf("limit error = %+v, want populated message and counters", limitErr)
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		t.Error("skip limit arrived wrapped in StepError, want it passed through")
	}
	if snap.LastError != limitErr.Message {
		t.Errorf("LastError = %q, want the limit message", snap.LastError)
	}

	before.LastActivityAt, snap.LastActivityAt = time.Time{}, time.Time{}
	before.LastError, snap.LastError = "", ""
	if !reflect.DeepEqual(before, snap) {
		t.Errorf("snapshot changed after rejected skip:\nbefore %+v\nafter  %+v", before, snap)
	}
}

func TestSkipGuards(t *testing.T) {
	svc := &fakeService{
		questionFn: func(_ string, questionNumber int) (*content.EditQuestion, error) {
			return &content.EditQuestion{
				Question:       flowQuestion("How would you rate the overall quality?"),
				QuestionNumber: questionNumber,
				PriorAnswer:    models.NewSingleAnswer("Good"),
			}, nil
		},
		answerFn: sequencedSteps(continueStep(2, "What stood out during daily use?")),
	}
	c := startedController(t, svc)
	ctx := context.Background()

	if _, err := c.SubmitAnswer(ctx, answer("Good")); err != nil {
		t.Fatalf("SubmitAnswer() error: %v", err)
	}
	if _, err := c.LoadForEdit(ctx, 1); err != nil {
		t.Fatalf("LoadForEdit() error: %v", err)
	}
	if _, err := c.Skip(ctx); !errors.Is(err, ErrSkipWhileEditing) {
		t.Errorf("Skip() while editing error = %v, want ErrSkipWhileEditing", err)
	}
	if got := svc.count("Skip"); got != 0 {
		t.Errorf("Skip calls = %d, want 0", got)
	}
}

func TestEditFlowBranchesTranscript(t *testing.T) {
	svc := &fakeService{
		questionFn: func(_ string, questionNumber int) (*content.EditQuestion, error) {
			return &content.EditQuestion{
				Question:       flowQuestion("How would you rate the overall quality? (updated)"),
				QuestionNumber: questionNumber,
				PriorAnswer:    models.NewSingleAnswer("Good"),
			}, nil
		},
		editFn: sequencedSteps(continueStep(2, "Branched follow-up question?")),
	}
	c := completedController(t, svc)
	ctx := context.Background()

	snap, err := c.LoadForEdit(ctx, 1)
	if err != nil {
		t.Fatalf("LoadForEdit() error: %v", err)
	}
	if !snap.Editing || snap.EditingQuestion != 1 {
		t.Fatalf("Editing/EditingQuestion = %v/%d, want editing question 1", snap.Editing, snap.EditingQuestion)
	}
	if snap.Status != models.StatusSurveyCompleted {
		t.Errorf("Status = %q, loading an edit must not change it", snap.Status)
	}
	if snap.Question == nil || snap.Question.QuestionText != "How would you rate the overall quality? (updated)" {
		t.Errorf("Question = %+v, want the freshly fetched copy", snap.Question)
	}
	if snap.QuestionNumber != 1 {
		t.Errorf("QuestionNumber = %d, want 1", snap.QuestionNumber)
	}
	if snap.PriorAnswer == nil || snap.PriorAnswer.Display() != "Good" {
		t.Errorf("PriorAnswer = %+v, want the recorded answer", snap.PriorAnswer)
	}

	snap, err = c.SubmitAnswer(ctx, answer("Poor"))
	if err != nil {
		t.Fatalf("SubmitAnswer(edit) error: %v", err)
	}
	if snap.Status != models.StatusInProgress {
		t.Errorf("Status = %q, want in_progress after accepted edit", snap.Status)
	}
	if snap.Editing {
		t.Error("Editing still set after accepted edit")
	}
	if len(snap.Responses) != 1 {
		t.Fatalf("Responses = %d entries, want transcript truncated to the edited question", len(snap.Responses))
	}
	rec := snap.Responses[0]
	if rec.QuestionNumber != 1 || rec.Value.Display() != "Poor" {
		t.Errorf("record = %+v, want replacement answer on question 1", rec)
	}
	if rec.QuestionText != "How would you rate the overall quality? (updated)" {
		t.Errorf("record text = %q, want the fetched question text", rec.QuestionText)
	}
	if snap.Question == nil || snap.Question.QuestionText != "Branched follow-up question?" {
		t.Errorf("Question = %+v, want the branched continuation", snap.Question)
	}
	if snap.QuestionNumber != 2 {
		t.Errorf("QuestionNumber = %d, want 2", snap.QuestionNumber)
	}
	if got := svc.count("Edit"); got != 1 {
		t.Errorf("Edit calls = %d, want 1", got)
	}
}

func TestEditDuplicateAnswerRestoresWithoutServiceCall(t *testing.T) {
	svc := &fakeService{
		questionFn: func(_ string, questionNumber int) (*content.EditQuestion, error) {
			return &content.EditQuestion{
				Question:       flowQuestion("How would you rate the overall quality?"),
				QuestionNumber: questionNumber,
				PriorAnswer:    models.NewSingleAnswer("Good"),
			}, nil
		},
		answerFn: sequencedSteps(continueStep(2, "What stood out during daily use?")),
	}
	c := startedController(t, svc)
	ctx := context.Background()

	if _, err := c.SubmitAnswer(ctx, answer("Good")); err != nil {
		t.Fatalf("SubmitAnswer() error: %v", err)
	}
	if _, err := c.LoadForEdit(ctx, 1); err != nil {
		t.Fatalf("LoadForEdit() error: %v", err)
	}

	snap, err := c.SubmitAnswer(ctx, answer("Good"))
	if !errors.Is(err, ErrDuplicateAnswer) {
		t.Fatalf("SubmitAnswer(duplicate) error = %v, want ErrDuplicateAnswer", err)
	}
	if snap.Editing {
		t.Error("Editing still set after duplicate rejection")
	}
	if snap.Question == nil || snap.Question.QuestionText != "What stood out during daily use?" {
		t.Errorf("Question = %+v, want the pre-edit question restored", snap.Question)
	}
	if snap.QuestionNumber != 2 {
		t.Errorf("QuestionNumber = %d, want the pre-edit number restored", snap.QuestionNumber)
	}
	if len(snap.Responses) != 1 || snap.Responses[0].Value.Display() != "Good" {
		t.Errorf("Responses = %+v, want the original transcript untouched", snap.Responses)
	}
	if got := svc.count("Edit"); got != 0 {
		t.Errorf("Edit calls = %d, want 0 for a duplicate", got)
	}
}

func TestCancelEdit(t *testing.T) {
	svc := &fakeService{
		questionFn: func(_ string, questionNumber int) (*content.EditQuestion, error) {
			return &content.EditQuestion{
				Question:       flowQuestion("How would you rate the overall quality?"),
				QuestionNumber: questionNumber,
				PriorAnswer:    models.NewSingleAnswer("Good"),
			}, nil
		},
		answerFn: sequencedSteps(continueStep(2, "What stood out during daily use?")),
	}
	c := startedController(t, svc)
	ctx := context.Background()

	if _, err := c.CancelEdit(); !errors.Is(err, ErrNotEditing) {
		t.Errorf("CancelEdit() outside an edit error = %v, want ErrNotEditing", err)
	}

	if _, err := c.SubmitAnswer(ctx, answer("Good")); err != nil {
		t.Fatalf("SubmitAnswer() error: %v", err)
	}
	before := c.Snapshot()
	if _, err := c.LoadForEdit(ctx, 1); err != nil {
		t.Fatalf("LoadForEdit() error: %v", err)
	}
	snap, err := c.CancelEdit()
	if err != nil {
		t.Fatalf("CancelEdit() error: %v", err)
	}
	if snap.Editing || snap.PriorAnswer != nil {
		t.Error("edit state survived cancellation")
	}
	if snap.Question == nil || snap.Question.QuestionText != before.Question.QuestionText {
		t.Errorf("Question = %+v, want %q restored verbatim", snap.Question, before.Question.QuestionText)
	}
	if snap.QuestionNumber != before.QuestionNumber {
		t.Errorf("QuestionNumber = %d, want %d restored", snap.QuestionNumber, before.QuestionNumber)
	}
}

func TestLoadForEditSecondTargetKeepsOriginalRestorePoint(t *testing.T) {
	svc := &fakeService{
		questionFn: func(_ string, questionNumber int) (*content.EditQuestion, error) {
			return &content.EditQuestion{
				Question:       flowQuestion(fmt.Sprintf("Stored question %d", questionNumber)),
				QuestionNumber: questionNumber,
				PriorAnswer:    models.NewSingleAnswer("Good"),
			}, nil
		},
		answerFn: sequencedSteps(
			continueStep(2, "What stood out during daily use?"),
			continueStep(3, "Would you buy it again?"),
		),
	}
	c := startedController(t, svc)
	ctx := context.Background()

	if _, err := c.SubmitAnswer(ctx, answer("Good")); err != nil {
		t.Fatalf("SubmitAnswer(1) error: %v", err)
	}
	if _, err := c.SubmitAnswer(ctx, answer("Good")); err != nil {
		t.Fatalf("SubmitAnswer(2) error: %v", err)
	}

	// Switch edit targets without cancelling in between; cancel must restore
	// the question displayed before the first edit intent.
	if _, err := c.LoadForEdit(ctx, 1); err != nil {
		t.Fatalf("LoadForEdit(1) error: %v", err)
	}
	snap, err := c.LoadForEdit(ctx, 2)
	if err != nil {
		t.Fatalf("LoadForEdit(2) error: %v", err)
	}
	if snap.EditingQuestion != 2 {
		t.Errorf("EditingQuestion = %d, want 2", snap.EditingQuestion)
	}

	snap, err = c.CancelEdit()
	if err != nil {
		t.Fatalf("CancelEdit() error: %v", err)
	}
	if snap.Question == nil || snap.Question.QuestionText != "Would you buy it again?" {
		t.Errorf("Question = %+v, want the pre-edit question back", snap.Question)
	}
	if snap.QuestionNumber != 3 {
		t.Errorf("QuestionNumber = %d, want 3", snap.QuestionNumber)
	}
}

func TestLoadForEditGuards(t *testing.T) {
	svc := &fakeService{
		generateFn: func(string) (*content.ReviewsResult, error) {
			return &content.ReviewsResult{Options: reviewOptions(4, 4, 5), SentimentBand: models.SentimentGood}, nil
		},
	}
	c := completedController(t, svc)
	ctx := context.Background()

	if _, err := c.LoadForEdit(ctx, 0); !errors.Is(err, models.ErrQuestionNumber) {
		t.Errorf("LoadForEdit(0) error = %v, want ErrQuestionNumber", err)
	}
	if _, err := c.LoadForEdit(ctx, 9); !errors.Is(err, models.ErrQuestionNumber) {
		t.Errorf("LoadForEdit(9) error = %v, want ErrQuestionNumber", err)
	}

	if _, err := c.Reviews().Generate(ctx); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if _, err := c.LoadForEdit(ctx, 1); !errors.Is(err, ErrEditingLocked) {
		t.Errorf("LoadForEdit() after generation error = %v, want ErrEditingLocked", err)
	}
}

func TestExpandPane(t *testing.T) {
	c := startedController(t, &fakeService{})

	snap, err := c.ExpandPane(models.PaneForm)
	if err != nil {
		t.Fatalf("ExpandPane(form) error: %v", err)
	}
	if snap.Panes.Expanded != models.PaneForm {
		t.Errorf("Expanded = %q, want form", snap.Panes.Expanded)
	}
	if snap.Panes.ScrollEpoch[models.PaneForm] != 2 {
		t.Errorf("form epoch = %d, want 2 after re-expansion", snap.Panes.ScrollEpoch[models.PaneForm])
	}

	if _, err := c.ExpandPane(models.PaneReviews); !errors.Is(err, models.ErrRegionNotInLayout) {
		t.Errorf("ExpandPane(reviews) error = %v, want ErrRegionNotInLayout", err)
	}
}
