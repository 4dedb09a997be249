package design

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"server/internal/domain"
)

type fakeRecords struct {
	mu         sync.Mutex
	processing []string
	completed  map[string][]string
	meta       map[string]domain.DesignMetadata
	failed     map[string]string
	done       chan struct{}
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		completed: make(map[string][]string),
		meta:      make(map[string]domain.DesignMetadata),
		failed:    make(map[string]string),
		done:      make(chan struct{}, 1),
	}
}

func (f *fakeRecords) MarkProcessing(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processing = append(f.processing, id)
	return nil
}

func (f *fakeRecords) Complete(_ context.Context, id string, urls []string, _ time.Duration, meta domain.DesignMetadata) error {
	f.mu.Lock()
	f.completed[id] = urls
	f.meta[id] = meta
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeRecords) Fail(_ context.Context, id, msg string) error {
	f.mu.Lock()
	f.failed[id] = msg
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

type upperTranslator struct{}

func (upperTranslator) ToEnglish(_ context.Context, text string) string {
	return strings.ToUpper(text)
}

func TestRunnerCompletesRecord(t *testing.T) {
	records := newFakeRecords()
	gen := &fakeGenerator{name: "primary", result: Result{
		Success:      true,
		OutputImages: []string{"u1", "u2"},
		Attempts:     3,
	}}
	runner := NewRunner(RunnerOptions{
		Records: records,
		Orch:    NewOrchestrator(gen, nil, nil),
	})

	runner.Run(context.Background(), Task{
		DesignID: "d1",
		Request:  Request{Intervention: InterventionExtreme},
		Style:    "Modern",
		RoomType: "Bedroom",
	})

	if len(records.processing) != 1 || records.processing[0] != "d1" {
		t.Fatalf("record not marked processing: %v", records.processing)
	}
	urls, ok := records.completed["d1"]
	if !ok || len(urls) != 2 {
		t.Fatalf("record not completed: %v", records.completed)
	}
	meta := records.meta["d1"]
	if meta.Attempts != 3 || meta.GeneratedCount != 2 || meta.Style != "Modern" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestRunnerFailsRecordOnGenerationFailure(t *testing.T) {
	records := newFakeRecords()
	gen := &fakeGenerator{name: "primary", result: Result{
		Success:  false,
		Error:    "Timeout after 60 attempts",
		Attempts: 60,
	}}
	runner := NewRunner(RunnerOptions{Records: records, Orch: NewOrchestrator(gen, nil, nil)})

	runner.Run(context.Background(), Task{DesignID: "d2"})

	if msg := records.failed["d2"]; msg != "Timeout after 60 attempts" {
		t.Fatalf("failure message not recorded: %q", msg)
	}
	if _, ok := records.completed["d2"]; ok {
		t.Fatal("failed record must not be completed")
	}
}

func TestRunnerTranslatesInstruction(t *testing.T) {
	records := newFakeRecords()
	var seen string
	gen := &captureGenerator{onGenerate: func(req Request) { seen = req.CustomInstruction }}
	runner := NewRunner(RunnerOptions{
		Records:    records,
		Orch:       NewOrchestrator(gen, nil, nil),
		Translator: upperTranslator{},
	})

	runner.Run(context.Background(), Task{
		DesignID: "d3",
		Request:  Request{CustomInstruction: "canapé gris"},
	})

	if seen != "CANAPÉ GRIS" {
		t.Fatalf("instruction not translated before generation: %q", seen)
	}
}

func TestRunnerRunRecoversFromPanic(t *testing.T) {
	records := newFakeRecords()
	gen := &captureGenerator{onGenerate: func(Request) { panic("provider blew up") }}
	runner := NewRunner(RunnerOptions{Records: records, Orch: NewOrchestrator(gen, nil, nil)})

	runner.Run(context.Background(), Task{DesignID: "d5", Claimed: true})

	if msg := records.failed["d5"]; msg == "" {
		t.Fatalf("panicked record must be failed: %v", records.failed)
	}
	if _, ok := records.completed["d5"]; ok {
		t.Fatal("panicked record must not be completed")
	}
}

func TestRunnerSkipsMarkProcessingForClaimedTask(t *testing.T) {
	records := newFakeRecords()
	gen := &fakeGenerator{name: "primary", result: Result{
		Success:      true,
		OutputImages: []string{"u1"},
		Attempts:     1,
	}}
	runner := NewRunner(RunnerOptions{Records: records, Orch: NewOrchestrator(gen, nil, nil)})

	runner.Run(context.Background(), Task{DesignID: "d6", Claimed: true})

	if len(records.processing) != 0 {
		t.Fatalf("claimed task must not re-mark processing: %v", records.processing)
	}
	if _, ok := records.completed["d6"]; !ok {
		t.Fatalf("claimed task not completed: %v", records.completed)
	}
}

func TestRunnerStartRecoversFromPanic(t *testing.T) {
	records := newFakeRecords()
	gen := &captureGenerator{onGenerate: func(Request) { panic("provider blew up") }}
	runner := NewRunner(RunnerOptions{Records: records, Orch: NewOrchestrator(gen, nil, nil)})

	runner.Start(context.Background(), Task{DesignID: "d4"})

	select {
	case <-records.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not reach a terminal state after panic")
	}
	if msg := records.failed["d4"]; msg == "" {
		t.Fatalf("panicked record must be failed: %v", records.failed)
	}
}

type captureGenerator struct {
	onGenerate func(Request)
}

func (g *captureGenerator) Generate(_ context.Context, req Request) (Result, error) {
	g.onGenerate(req)
	return Result{Success: true, OutputImages: []string{"u"}, Attempts: 1}, nil
}

func (g *captureGenerator) Name() string { return "capture" }
