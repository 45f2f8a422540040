package proctor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// ─── Test fakes ─────────────────────────────────────────────────────

type fakeClient struct {
	mu sync.Mutex

	lockShown      int
	lockHidden     int
	lastLockReason ViolationKind
	notices        []ViolationKind
	warnings       []string
	confirmAsked   []int
	enterCalls     int
	enterErr       error
	exitCalls      int
	releaseCalls   int
	submittingSeen int
	results        []*Result
	failures       []string
}

func (f *fakeClient) ShowLock(reason ViolationKind, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockShown++
	f.lastLockReason = reason
}

func (f *fakeClient) HideLock() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lockHidden++
}

func (f *fakeClient) Notice(kind ViolationKind, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, kind)
}

func (f *fakeClient) Warn(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, msg)
}

func (f *fakeClient) ConfirmSubmit(unanswered int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmAsked = append(f.confirmAsked, unanswered)
}

func (f *fakeClient) EnterFullscreen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enterCalls++
	return f.enterErr
}

func (f *fakeClient) ExitFullscreen() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exitCalls++
}

func (f *fakeClient) ReleaseMedia() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releaseCalls++
}

func (f *fakeClient) ShowSubmitting() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submittingSeen++
}

func (f *fakeClient) GotoResults(res *Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, res)
}

func (f *fakeClient) SubmitFailed(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, msg)
}

func (f *fakeClient) releases() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseCalls
}

func (f *fakeClient) locks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockShown
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (f *fakeSubmitter) Submit(_ context.Context, _ *Result) error {
	f.mu.Lock()
	f.calls++
	err := f.err
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSink struct {
	mu     sync.Mutex
	events []ViolationEvent
}

func (f *fakeSink) Record(ev ViolationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

// ─── Helpers ────────────────────────────────────────────────────────

func testQuestions(n int) []Question {
	qs := make([]Question, n)
	for i := range qs {
		qs[i] = Question{
			Text:         "question",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
		}
	}
	return qs
}

func newTestSession(t *testing.T, n int) (*Session, *fakeClient, *fakeSubmitter) {
	t.Helper()
	client := &fakeClient{}
	submitter := &fakeSubmitter{}
	s, err := New(Config{
		QuizID:          "quiz-1",
		StudentID:       7,
		Questions:       testQuestions(n),
		DurationSeconds: 600,
		Policy:          DefaultPolicy(),
		Client:          client,
		Submitter:       submitter,
		Telemetry:       &fakeSink{},
		Logger:          zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, client, submitter
}

// ─── Construction ───────────────────────────────────────────────────

func TestNewInitializesAllUnanswered(t *testing.T) {
	s, _, _ := newTestSession(t, 5)

	snap := s.Snapshot()
	if len(snap.Answers) != 5 {
		t.Fatalf("answers length = %d, want 5", len(snap.Answers))
	}
	for i, a := range snap.Answers {
		if a != Unanswered {
			t.Errorf("answers[%d] = %d, want %d", i, a, Unanswered)
		}
	}
	for _, k := range Kinds {
		if snap.Violations[k] != 0 {
			t.Errorf("ledger[%s] = %d, want 0", k, snap.Violations[k])
		}
	}
	if snap.StateName != "IN_PROGRESS" {
		t.Errorf("state = %s, want IN_PROGRESS", snap.StateName)
	}
}

func TestNewRejectsEmptyQuestionSet(t *testing.T) {
	_, err := New(Config{
		DurationSeconds: 60,
		Policy:          DefaultPolicy(),
		Client:          &fakeClient{},
		Submitter:       &fakeSubmitter{},
		Logger:          zerolog.Nop(),
	})
	if err == nil {
		t.Fatal("expected error for empty question set")
	}
}

// ─── Answer ledger ──────────────────────────────────────────────────

func TestSelectAnswerRecordsAndValidates(t *testing.T) {
	s, _, _ := newTestSession(t, 3)

	s.SelectAnswer(0, 2)
	s.SelectAnswer(1, 0)
	s.SelectAnswer(1, 0) // re-selecting is a no-op-equivalent
	s.SelectAnswer(5, 1) // out-of-range question
	s.SelectAnswer(2, 9) // out-of-range option
	s.SelectAnswer(-1, 0)
	s.SelectAnswer(2, -3)

	snap := s.Snapshot()
	want := []int{2, 0, Unanswered}
	for i, w := range want {
		if snap.Answers[i] != w {
			t.Errorf("answers[%d] = %d, want %d", i, snap.Answers[i], w)
		}
	}
	if len(snap.Answers) != 3 {
		t.Errorf("answers length changed to %d", len(snap.Answers))
	}
}

func TestSelectAnswerBlockedWhileLocked(t *testing.T) {
	s, _, _ := newTestSession(t, 3)

	s.Monitor().ObserveBlur() // locks immediately

	s.SelectAnswer(0, 1)
	snap := s.Snapshot()
	if !snap.Lock.Locked {
		t.Fatal("expected session to be locked after blur")
	}
	if snap.Answers[0] != Unanswered {
		t.Errorf("answers[0] = %d, want unanswered while locked", snap.Answers[0])
	}

	// Unlock via confirmed fullscreen re-entry, then selection works.
	s.FullscreenEntered()
	s.SelectAnswer(0, 1)
	if got := s.Snapshot().Answers[0]; got != 1 {
		t.Errorf("answers[0] = %d after unlock, want 1", got)
	}
}

// ─── Submission pipeline ────────────────────────────────────────────

func TestSubmitIdempotentUnderConcurrency(t *testing.T) {
	s, client, submitter := newTestSession(t, 2)
	submitter.delay = 20 * time.Millisecond
	s.SelectAnswer(0, 0)
	s.SelectAnswer(1, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RequestSubmit(false)
		}()
	}
	wg.Wait()

	if got := submitter.callCount(); got != 1 {
		t.Fatalf("submitter called %d times, want 1", got)
	}
	if got := s.Snapshot().StateName; got != "SUBMITTED" {
		t.Errorf("state = %s, want SUBMITTED", got)
	}
	if client.releases() != 1 {
		t.Errorf("media released %d times, want 1", client.releases())
	}
}

func TestManualSubmitWithUnansweredAsksConfirmation(t *testing.T) {
	s, client, submitter := newTestSession(t, 4)
	s.SelectAnswer(0, 0)

	s.RequestSubmit(true)

	if submitter.callCount() != 0 {
		t.Fatal("submitted without confirmation")
	}
	client.mu.Lock()
	asked := append([]int(nil), client.confirmAsked...)
	client.mu.Unlock()
	if len(asked) != 1 || asked[0] != 3 {
		t.Fatalf("confirm prompt = %v, want one prompt for 3 unanswered", asked)
	}

	// Cancel keeps the session in progress.
	s.CancelPendingSubmit()
	if got := s.Snapshot().StateName; got != "IN_PROGRESS" {
		t.Errorf("state after cancel = %s, want IN_PROGRESS", got)
	}
	if s.Snapshot().Answers[0] != 0 {
		t.Error("answers lost after cancelled submit")
	}

	// Confirm after a fresh request goes through.
	s.RequestSubmit(true)
	s.ConfirmPendingSubmit()
	if submitter.callCount() != 1 {
		t.Fatalf("submitter called %d times after confirm, want 1", submitter.callCount())
	}
}

func TestConfirmWithoutPendingRequestIsNoop(t *testing.T) {
	s, _, submitter := newTestSession(t, 2)
	s.ConfirmPendingSubmit()
	if submitter.callCount() != 0 {
		t.Fatal("confirm without pending request must not submit")
	}
}

func TestManualSubmitBlockedWhileLocked(t *testing.T) {
	s, _, submitter := newTestSession(t, 1)
	s.Monitor().ObserveBlur()

	s.RequestSubmit(true)
	if submitter.callCount() != 0 {
		t.Fatal("manual submit must be a no-op while locked")
	}
}

func TestSubmitFailureReturnsToInProgressForRetry(t *testing.T) {
	s, client, submitter := newTestSession(t, 2)
	submitter.err = errors.New("network down")
	s.SelectAnswer(0, 0)
	s.SelectAnswer(1, 1)

	s.RequestSubmit(true)

	if got := s.Snapshot().StateName; got != "IN_PROGRESS" {
		t.Fatalf("state after failed submit = %s, want IN_PROGRESS", got)
	}
	client.mu.Lock()
	failures := len(client.failures)
	client.mu.Unlock()
	if failures != 1 {
		t.Fatalf("failure reported %d times, want 1", failures)
	}

	// Answers survive; retry succeeds and submits exactly once more.
	snap := s.Snapshot()
	if snap.Answers[0] != 0 || snap.Answers[1] != 1 {
		t.Error("answers lost across failed submission")
	}
	submitter.mu.Lock()
	submitter.err = nil
	submitter.mu.Unlock()
	s.RequestSubmit(true)
	if submitter.callCount() != 2 {
		t.Fatalf("submitter calls = %d, want 2", submitter.callCount())
	}
	if got := s.Snapshot().StateName; got != "SUBMITTED" {
		t.Errorf("state = %s, want SUBMITTED", got)
	}
	// Media was released on the first attempt and never re-acquired.
	if client.releases() != 1 {
		t.Errorf("media released %d times, want 1", client.releases())
	}
}

func TestResultSnapshotImmuneToLateMutation(t *testing.T) {
	s, client, submitter := newTestSession(t, 2)
	submitter.delay = 20 * time.Millisecond
	s.SelectAnswer(0, 0)

	done := make(chan struct{})
	go func() {
		s.RequestSubmit(false)
		close(done)
	}()

	// Wait until submission started, then try to mutate.
	deadline := time.Now().Add(time.Second)
	for s.Snapshot().StateName == "IN_PROGRESS" && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.SelectAnswer(1, 1)
	<-done

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.results) != 1 {
		t.Fatalf("results delivered %d times, want 1", len(client.results))
	}
	res := client.results[0]
	if res.Breakdown[1].SelectedIndex != Unanswered {
		t.Errorf("breakdown picked up a post-submit mutation: %d", res.Breakdown[1].SelectedIndex)
	}
	if res.TotalCount != 2 {
		t.Errorf("total = %d, want fixed question count 2", res.TotalCount)
	}
}

// ─── Session clock ──────────────────────────────────────────────────

func TestTickCountsDownAndClampsAtZero(t *testing.T) {
	s, _, submitter := newTestSession(t, 2)
	s.mu.Lock()
	s.remaining = 3
	s.mu.Unlock()

	s.Tick()
	s.Tick()
	if got := s.Snapshot().Remaining; got != 1 {
		t.Fatalf("remaining = %d, want 1", got)
	}
	if submitter.callCount() != 0 {
		t.Fatal("submitted before time expired")
	}

	s.Tick()
	snap := s.Snapshot()
	if snap.Remaining != 0 {
		t.Errorf("remaining = %d, want clamped 0", snap.Remaining)
	}
	if submitter.callCount() != 1 {
		t.Fatalf("timeout submit calls = %d, want 1", submitter.callCount())
	}
	if snap.StateName != "SUBMITTED" {
		t.Errorf("state = %s, want SUBMITTED", snap.StateName)
	}
}

func TestTimeoutSubmitSkipsConfirmation(t *testing.T) {
	s, client, submitter := newTestSession(t, 3) // all unanswered
	s.mu.Lock()
	s.remaining = 1
	s.mu.Unlock()

	s.Tick()

	if submitter.callCount() != 1 {
		t.Fatalf("submitter calls = %d, want 1", submitter.callCount())
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.confirmAsked) != 0 {
		t.Error("timeout submit must bypass the confirmation prompt")
	}
}

func TestTickNoopAfterSubmissionBegins(t *testing.T) {
	s, _, _ := newTestSession(t, 1)
	s.SelectAnswer(0, 0)
	s.RequestSubmit(false)

	before := s.Snapshot().Remaining
	s.Tick()
	if got := s.Snapshot().Remaining; got != before {
		t.Errorf("clock ticked after submission: %d -> %d", before, got)
	}
}

// ─── Result bundle ──────────────────────────────────────────────────

func TestResultBundleFields(t *testing.T) {
	s, client, _ := newTestSession(t, 4)
	s.mu.Lock()
	s.remaining = 400 // 200s elapsed of 600
	s.mu.Unlock()

	s.Monitor().ObserveBlur()
	s.FullscreenEntered()
	s.SelectAnswer(0, 0) // correct (correct index 0)
	s.SelectAnswer(1, 0) // wrong (correct index 1)

	s.RequestSubmit(false)

	client.mu.Lock()
	defer client.mu.Unlock()
	res := client.results[0]
	if res.CorrectCount != 1 || res.TotalCount != 4 {
		t.Errorf("correct/total = %d/%d, want 1/4", res.CorrectCount, res.TotalCount)
	}
	if res.Score != 25.00 {
		t.Errorf("score = %v, want 25.00", res.Score)
	}
	if res.TimeTakenSeconds != 200 {
		t.Errorf("time taken = %d, want 200", res.TimeTakenSeconds)
	}
	if res.TabSwitchCount != 1 {
		t.Errorf("tab switches = %d, want 1", res.TabSwitchCount)
	}
	if res.Violations[ViolationTabSwitch] != 1 {
		t.Errorf("ledger tab switches = %d, want 1", res.Violations[ViolationTabSwitch])
	}
	if len(res.Breakdown) != 4 {
		t.Fatalf("breakdown length = %d, want 4", len(res.Breakdown))
	}
	if !res.Breakdown[0].IsCorrect || res.Breakdown[1].IsCorrect {
		t.Error("breakdown correctness flags wrong")
	}
}

// ─── Teardown ───────────────────────────────────────────────────────

func TestCleanupOnEveryExitPath(t *testing.T) {
	cases := []struct {
		name string
		exit func(s *Session)
	}{
		{"manual submit", func(s *Session) {
			s.SelectAnswer(0, 0)
			s.RequestSubmit(true)
		}},
		{"timeout auto-submit", func(s *Session) {
			s.mu.Lock()
			s.remaining = 1
			s.mu.Unlock()
			s.Tick()
		}},
		{"tab-switch escalation", func(s *Session) {
			for i := 0; i < DefaultPolicy().MaxTabSwitches; i++ {
				s.Monitor().ObserveBlur()
			}
		}},
		{"navigate away", func(s *Session) {
			s.Teardown()
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, client, _ := newTestSession(t, 1)
			tc.exit(s)
			// A racing second teardown must not double-release.
			s.Teardown()
			s.Teardown()

			if client.releases() != 1 {
				t.Errorf("media released %d times, want exactly 1", client.releases())
			}
			select {
			case <-s.done:
			default:
				t.Error("clock channel not closed on teardown")
			}
		})
	}
}

func TestTeardownHookFiresExactlyOnce(t *testing.T) {
	cases := []struct {
		name string
		exit func(s *Session)
	}{
		{"timeout auto-submit", func(s *Session) {
			s.mu.Lock()
			s.remaining = 1
			s.mu.Unlock()
			s.Tick()
		}},
		{"manual submit", func(s *Session) {
			s.SelectAnswer(0, 0)
			s.RequestSubmit(true)
		}},
		{"navigate away", func(s *Session) {
			s.Teardown()
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fired := 0
			s, err := New(Config{
				QuizID:          "quiz-1",
				StudentID:       7,
				Questions:       testQuestions(1),
				DurationSeconds: 600,
				Policy:          DefaultPolicy(),
				Client:          &fakeClient{},
				Submitter:       &fakeSubmitter{},
				Logger:          zerolog.Nop(),
				OnTeardown:      func() { fired++ },
			})
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			tc.exit(s)
			s.Teardown()
			s.Teardown()

			if fired != 1 {
				t.Fatalf("teardown hook fired %d times, want exactly 1", fired)
			}
		})
	}
}

func TestStartContextCancelTearsDown(t *testing.T) {
	s, client, _ := newTestSession(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for client.releases() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if client.releases() != 1 {
		t.Fatalf("media released %d times after cancel, want 1", client.releases())
	}
}
