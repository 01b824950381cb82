package video

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// testLogger discards output so test runs stay quiet.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAdapter is a scriptable Adapter for driver and facade tests.
// Step 0 is the base clip; step i is extension i. Each completed step
// yields a payload whose handle is "handle-<step>" so chain linkage is
// observable from the outside.
type fakeAdapter struct {
	provider Provider

	failSubmit error // makes Submit fail immediately
	failAtStep int   // step whose Await fails (-1 = never)
	failErr    error // error returned at failAtStep

	submittedPrompts []string
	extendedHandles  []string
	extendedPrompts  []string
	lastRequest      Request

	step int
}

func newFakeAdapter(p Provider) *fakeAdapter {
	return &fakeAdapter{provider: p, failAtStep: -1}
}

func (f *fakeAdapter) Provider() Provider { return f.provider }

func (f *fakeAdapter) Submit(ctx context.Context, prompt string, req Request) (*Operation, error) {
	if f.failSubmit != nil {
		return nil, f.failSubmit
	}
	f.step = 0
	f.submittedPrompts = append(f.submittedPrompts, prompt)
	f.lastRequest = req
	return &Operation{Provider: f.provider, Kind: KindPolled, Token: "op-0"}, nil
}

func (f *fakeAdapter) Extend(ctx context.Context, previousHandle, prompt string, req Request) (*Operation, error) {
	f.step++
	f.extendedHandles = append(f.extendedHandles, previousHandle)
	f.extendedPrompts = append(f.extendedPrompts, prompt)
	return &Operation{Provider: f.provider, Kind: KindPolled, Token: fmt.Sprintf("op-%d", f.step)}, nil
}

func (f *fakeAdapter) Await(ctx context.Context, op *Operation) (FinalPayload, error) {
	if f.failAtStep >= 0 && f.step == f.failAtStep {
		if f.failErr != nil {
			return FinalPayload{}, f.failErr
		}
		return FinalPayload{}, &GenerationError{Provider: f.provider, Message: fmt.Sprintf("scripted failure at step %d", f.step)}
	}
	return FinalPayload{
		VideoURL:       fmt.Sprintf("https://clips.example/clip-%d.mp4", f.step),
		ProviderHandle: fmt.Sprintf("handle-%d", f.step),
	}, nil
}

func (f *fakeAdapter) MaterializeURI(ctx context.Context, payload FinalPayload) (string, string, error) {
	return payload.VideoURL, payload.LocalPath, nil
}
