package orch

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/CodeRoom/internal/app"
	"github.com/dkeye/CodeRoom/internal/app/executor"
	"github.com/dkeye/CodeRoom/internal/app/executor/mock"
	"github.com/dkeye/CodeRoom/internal/core"
	"go.uber.org/mock/gomock"
)

func newOrchWithRunner(t *testing.T, runner executor.Runner, opts Options) *Orchestrator {
	t.Helper()
	o := New(context.Background(), app.NewRegistry(), app.NewRoomManager(), app.SimplePolicy{}, runner, opts)
	t.Cleanup(o.Close)
	return o
}

func TestRunBroadcastsResultToRoom(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mock.NewMockRunner(ctrl)
	code := 0
	runner.EXPECT().
		Execute(gomock.Any(), executor.Request{Source: "print(1)", Language: "python", Stdin: ""}).
		Return(executor.Result{Stdout: "1\n", Output: "1\n", Code: &code})

	o := newOrchWithRunner(t, runner, Options{})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "a")
	o.Join(b.sid, "r1", "b")
	a.drain()
	b.drain()

	if !o.Run(a.sid, "r1", executor.Request{Source: "print(1)", Language: "python"}) {
		t.Fatal("run was not accepted")
	}
	for _, c := range []*client{a, b} {
		m := c.expect(t, core.EventCodeResponse)
		run, _ := m["run"].(map[string]any)
		if run["stdout"] != "1\n" || m["failed"] != false || m["requestedBy"] != "A" {
			t.Errorf("%s got %v", c.sid, m)
		}
	}
}

func TestRunFailureIsAPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mock.NewMockRunner(ctrl)
	runner.EXPECT().Execute(gomock.Any(), gomock.Any()).Return(executor.Failure("execution service unreachable"))

	o := newOrchWithRunner(t, runner, Options{RunScope: app.ScopeSender})
	a := connect(o, "A", 16)
	b := connect(o, "B", 16)
	o.Join(a.sid, "r1", "a")
	o.Join(b.sid, "r1", "b")
	a.drain()
	b.drain()

	o.Run(a.sid, "r1", executor.Request{Source: "x", Language: "go"})
	m := a.expect(t, core.EventCodeResponse)
	run, _ := m["run"].(map[string]any)
	if m["failed"] != true || run["stdout"] != "execution service unreachable" {
		t.Fatalf("got %v", m)
	}
	b.expectNone(t, 50*time.Millisecond)
}

func TestRunFromNonMemberIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mock.NewMockRunner(ctrl)

	o := newOrchWithRunner(t, runner, Options{})
	a := connect(o, "A", 16)
	if o.Run(a.sid, "r1", executor.Request{Source: "x", Language: "go"}) {
		t.Fatal("non-member run must be rejected")
	}
}
