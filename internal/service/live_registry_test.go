package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/proctorly/proctorly-backend/internal/proctor"
)

// nopSessionClient satisfies proctor.Client for registry wiring tests.
type nopSessionClient struct{}

func (nopSessionClient) ShowLock(proctor.ViolationKind, string) {}
func (nopSessionClient) HideLock()                              {}
func (nopSessionClient) Notice(proctor.ViolationKind, string)   {}
func (nopSessionClient) Warn(string)                            {}
func (nopSessionClient) ConfirmSubmit(int)                      {}
func (nopSessionClient) EnterFullscreen() error                 { return nil }
func (nopSessionClient) ExitFullscreen()                        {}
func (nopSessionClient) ReleaseMedia()                          {}
func (nopSessionClient) ShowSubmitting()                        {}
func (nopSessionClient) GotoResults(*proctor.Result)            {}
func (nopSessionClient) SubmitFailed(string)                    {}

type nopSubmitter struct{}

func (nopSubmitter) Submit(context.Context, *proctor.Result) error { return nil }

func newRegistrySession(onTeardown func()) (*proctor.Session, error) {
	return proctor.New(proctor.Config{
		QuizID:          "quiz-1",
		StudentID:       7,
		Questions:       []proctor.Question{{Text: "q", Options: []string{"a", "b"}, CorrectIndex: 0}},
		DurationSeconds: 60,
		Policy:          proctor.DefaultPolicy(),
		Client:          nopSessionClient{},
		Submitter:       nopSubmitter{},
		Logger:          zerolog.Nop(),
		OnTeardown:      onTeardown,
	})
}

func TestLiveRegistryReattach(t *testing.T) {
	r := NewLiveRegistry()
	quizID := "quiz-1"

	if got := r.Get(quizID, 7); got != nil {
		t.Fatal("expected no session initially")
	}

	sess := &proctor.Session{}
	r.Put(quizID, 7, sess)

	if got := r.Get(quizID, 7); got != sess {
		t.Fatal("expected registered session back")
	}
	if got := r.Get(quizID, 8); got != nil {
		t.Fatal("different student must not see the session")
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestLiveRegistryRemoveIsIdentityChecked(t *testing.T) {
	r := NewLiveRegistry()
	quizID := "quiz-1"

	first := &proctor.Session{}
	second := &proctor.Session{}

	r.Put(quizID, 7, first)
	r.Put(quizID, 7, second) // replaces first

	// A stale goroutine removing the old session must not evict the new one.
	r.Remove(quizID, 7, first)
	if got := r.Get(quizID, 7); got != second {
		t.Fatal("stale remove evicted the live session")
	}

	r.Remove(quizID, 7, second)
	if r.Count() != 0 {
		t.Fatalf("count = %d, want 0", r.Count())
	}
}

func TestLiveRegistryEvictsSessionAfterSubmitTeardown(t *testing.T) {
	r := NewLiveRegistry()

	var sess *proctor.Session
	built, err := newRegistrySession(func() { r.Remove("quiz-1", 7, sess) })
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sess = built
	r.Put("quiz-1", 7, sess)

	// Automatic submit (the timeout path) must clear the registry entry
	// even though no socket is attached to observe it.
	sess.RequestSubmit(false)

	if snap := sess.Snapshot(); snap.StateName != "SUBMITTED" {
		t.Fatalf("state = %s, want SUBMITTED", snap.StateName)
	}
	if r.Count() != 0 {
		t.Fatalf("count = %d after submit teardown, want 0", r.Count())
	}
	if got := r.Get("quiz-1", 7); got != nil {
		t.Fatal("submitted session still retrievable from registry")
	}
}

func TestLiveRegistryGetOrCreateCollapsesRaces(t *testing.T) {
	r := NewLiveRegistry()

	var created int32
	sessions := make([]*proctor.Session, 8)
	var wg sync.WaitGroup
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, _, err := r.GetOrCreate("quiz-1", 7, func() (*proctor.Session, error) {
				atomic.AddInt32(&created, 1)
				return newRegistrySession(nil)
			})
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	if created != 1 {
		t.Fatalf("create ran %d times, want exactly 1", created)
	}
	for i := 1; i < len(sessions); i++ {
		if sessions[i] != sessions[0] {
			t.Fatal("racing connections got different controllers")
		}
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}
