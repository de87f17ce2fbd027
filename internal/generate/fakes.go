package generate

import (
	"context"
	"fmt"
	"sync"
)

// FakeText is an in-memory TextGenerator for tests. Responses are consumed
// in FIFO order; when the queue is empty Err (or a default error) is
// returned.
type FakeText struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Calls     []string
}

// Queue appends responses to return from subsequent CompleteJSON calls.
func (f *FakeText) Queue(responses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses = append(f.Responses, responses...)
}

func (f *FakeText) CompleteJSON(_ context.Context, _, userPrompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, userPrompt)
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", fmt.Errorf("fake text: no response queued for call %d", len(f.Calls))
	}
	response := f.Responses[0]
	f.Responses = f.Responses[1:]
	return response, nil
}

func (f *FakeText) HealthCheck(context.Context) error { return f.Err }

// FakeImage is an in-memory ImageGenerator that records prompts and returns
// fixed bytes.
type FakeImage struct {
	mu      sync.Mutex
	Bytes   []byte
	Err     error
	Prompts []string
	Refs    [][]int
}

func (f *FakeImage) GenerateImage(_ context.Context, prompt string, referenceImages [][]byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	sizes := make([]int, len(referenceImages))
	for i, ref := range referenceImages {
		sizes[i] = len(ref)
	}
	f.Refs = append(f.Refs, sizes)
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Bytes == nil {
		return []byte("\x89PNG fake"), nil
	}
	return f.Bytes, nil
}

// FakeSpeech is an in-memory SpeechGenerator with a fixed voice catalog.
type FakeSpeech struct {
	mu     sync.Mutex
	Voices []Voice
	Err    error
	// Lines records every synthesized voiceID/text pair.
	Lines []struct{ VoiceID, Text string }
}

func (f *FakeSpeech) ListVoices(context.Context) ([]Voice, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Voices, nil
}

func (f *FakeSpeech) Synthesize(_ context.Context, voiceID, text string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lines = append(f.Lines, struct{ VoiceID, Text string }{voiceID, text})
	if f.Err != nil {
		return nil, f.Err
	}
	return []byte("ID3 fake " + voiceID), nil
}

// FakeVideo is an in-memory VideoGenerator that records prompts.
type FakeVideo struct {
	mu        sync.Mutex
	Bytes     []byte
	Err       error
	Prompts   []string
	SeedSizes []int
}

func (f *FakeVideo) GenerateVideo(_ context.Context, prompt string, seedImage []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	f.SeedSizes = append(f.SeedSizes, len(seedImage))
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Bytes == nil {
		return []byte("ftyp fake clip"), nil
	}
	return f.Bytes, nil
}
