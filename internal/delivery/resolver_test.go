package delivery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iabetor/voxskill/internal/storage"
	"github.com/iabetor/voxskill/internal/tts"
)

type stubEngine struct {
	audio *tts.Audio
	err   error
	calls int
}

func (s *stubEngine) Synthesize(ctx context.Context, text, voice string) (*tts.Audio, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

type stubUploader struct {
	mu     sync.Mutex
	keys   []string
	err    error
	bucket string
	region string
}

func (u *stubUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return "", u.err
	}
	u.keys = append(u.keys, key)
	return storage.PublicURL(u.bucket, u.region, key), nil
}

func (u *stubUploader) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.keys)
}

func makeAudio(n int) *tts.Audio {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return &tts.Audio{Data: data, MimeType: "audio/mpeg"}
}

func TestResolve_InlineRoundTrip(t *testing.T) {
	engine := &stubEngine{audio: makeAudio(1024)}
	r := New(engine, nil, nil, Options{})

	ref, err := r.Resolve(context.Background(), Request{Text: "hello", Voice: "en-CA-LiamNeural"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != KindInlineDataURI {
		t.Fatalf("expected inline reference, got %s", ref.Kind)
	}

	mimeType, data, err := DecodeDataURI(ref.Value)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if mimeType != "audio/mpeg" {
		t.Errorf("mime type: got %q, want %q", mimeType, "audio/mpeg")
	}
	if !bytes.Equal(data, engine.audio.Data) {
		t.Error("decoded bytes do not match synthesized audio")
	}
}

func TestResolve_ConcreteScenario(t *testing.T) {
	// 20000 bytes, no storage config: inline data URI whose decoded
	// length is exactly 20000 bytes.
	engine := &stubEngine{audio: makeAudio(20000)}
	r := New(engine, nil, nil, Options{})

	ref, err := r.Resolve(context.Background(), Request{
		Text:  "Keep going, you've got this!",
		Voice: "en-CA-LiamNeural",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != KindInlineDataURI {
		t.Fatalf("expected inline reference, got %s", ref.Kind)
	}
	if !strings.HasPrefix(ref.Value, "data:audio/mpeg;base64,") {
		t.Errorf("unexpected data URI prefix: %s", ref.Value[:40])
	}
	_, data, err := DecodeDataURI(ref.Value)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(data) != 20000 {
		t.Errorf("decoded length: got %d, want 20000", len(data))
	}
}

func TestResolve_PayloadTooLarge(t *testing.T) {
	// base64 expands 4/3: 90000 bytes encode past the 100000 ceiling
	engine := &stubEngine{audio: makeAudio(90000)}
	r := New(engine, nil, nil, Options{InlineLimit: 100000})

	_, err := r.Resolve(context.Background(), Request{Text: "long speech"})
	var dErr *DeliveryError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if dErr.Reason != ReasonPayloadTooLarge {
		t.Errorf("reason: got %s, want %s", dErr.Reason, ReasonPayloadTooLarge)
	}
}

func TestResolve_RemoteURL(t *testing.T) {
	engine := &stubEngine{audio: makeAudio(500000)}
	up := &stubUploader{bucket: "my-bucket", region: "us-east-1"}
	r := New(engine, up, nil, Options{KeyPrefix: "tts"})

	ref, err := r.Resolve(context.Background(), Request{Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != KindRemoteURL {
		t.Fatalf("expected remote reference, got %s", ref.Kind)
	}
	if !strings.Contains(ref.Value, "my-bucket") || !strings.Contains(ref.Value, "us-east-1") {
		t.Errorf("URL should contain bucket and region: %s", ref.Value)
	}
	if !strings.Contains(ref.Value, "/tts/") {
		t.Errorf("URL should contain the key prefix: %s", ref.Value)
	}
	if !strings.HasSuffix(ref.Value, ".mp3") {
		t.Errorf("URL should end with .mp3: %s", ref.Value)
	}
}

func TestResolve_UniqueKeysConcurrent(t *testing.T) {
	const n = 50
	engine := &stubEngine{audio: makeAudio(128)}
	up := &stubUploader{bucket: "b", region: "r"}
	r := New(engine, up, nil, Options{})

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// 相同文本的并发请求也必须拿到不同的对象键
			if _, err := r.Resolve(context.Background(), Request{Text: "same text"}); err != nil {
				t.Errorf("resolve failed: %v", err)
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, key := range up.keys {
		if seen[key] {
			t.Fatalf("duplicate object key issued: %s", key)
		}
		seen[key] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d unique keys, got %d", n, len(seen))
	}
}

func TestResolve_SynthesisFailureSkipsUpload(t *testing.T) {
	engine := &stubEngine{err: fmt.Errorf("engine exploded")}
	up := &stubUploader{bucket: "b", region: "r"}
	r := New(engine, up, nil, Options{})

	_, err := r.Resolve(context.Background(), Request{Text: "hello"})
	var sErr *SynthesisError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected SynthesisError, got %v", err)
	}
	if up.callCount() != 0 {
		t.Errorf("upload must not be attempted after synthesis failure, got %d calls", up.callCount())
	}
}

func TestResolve_EmptyAudioIsSynthesisError(t *testing.T) {
	engine := &stubEngine{audio: &tts.Audio{Data: nil, MimeType: "audio/mpeg"}}
	r := New(engine, nil, nil, Options{})

	_, err := r.Resolve(context.Background(), Request{Text: "hello"})
	var sErr *SynthesisError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected SynthesisError for empty audio, got %v", err)
	}
}

func TestResolve_EmptyTextRejected(t *testing.T) {
	engine := &stubEngine{audio: makeAudio(16)}
	r := New(engine, nil, nil, Options{})

	_, err := r.Resolve(context.Background(), Request{Text: ""})
	var sErr *SynthesisError
	if !errors.As(err, &sErr) {
		t.Fatalf("expected SynthesisError for empty text, got %v", err)
	}
	if engine.calls != 0 {
		t.Errorf("engine must not be invoked for empty text, got %d calls", engine.calls)
	}
}

func TestResolve_UploadFailureFallsBackToInline(t *testing.T) {
	engine := &stubEngine{audio: makeAudio(1024)}
	up := &stubUploader{bucket: "b", region: "r", err: fmt.Errorf("access denied")}
	r := New(engine, up, nil, Options{})

	ref, err := r.Resolve(context.Background(), Request{Text: "hello"})
	if err != nil {
		t.Fatalf("expected fallback to inline, got error: %v", err)
	}
	if ref.Kind != KindInlineDataURI {
		t.Errorf("expected inline reference after upload failure, got %s", ref.Kind)
	}
}

func TestResolve_UploadFailureStrict(t *testing.T) {
	engine := &stubEngine{audio: makeAudio(1024)}
	up := &stubUploader{bucket: "b", region: "r", err: fmt.Errorf("access denied")}
	r := New(engine, up, nil, Options{Strict: true})

	_, err := r.Resolve(context.Background(), Request{Text: "hello"})
	var dErr *DeliveryError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if dErr.Reason != ReasonUploadFailed {
		t.Errorf("reason: got %s, want %s", dErr.Reason, ReasonUploadFailed)
	}
}

func TestResolve_UploadFallbackStillBoundedByLimit(t *testing.T) {
	// 上传失败后回退内联，但超限时仍然必须报错
	engine := &stubEngine{audio: makeAudio(90000)}
	up := &stubUploader{bucket: "b", region: "r", err: fmt.Errorf("access denied")}
	r := New(engine, up, nil, Options{InlineLimit: 100000})

	_, err := r.Resolve(context.Background(), Request{Text: "hello"})
	var dErr *DeliveryError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if dErr.Reason != ReasonPayloadTooLarge {
		t.Errorf("reason: got %s, want %s", dErr.Reason, ReasonPayloadTooLarge)
	}
}

type captureRecorder struct {
	mu   sync.Mutex
	recs []Record
}

func (c *captureRecorder) Record(ctx context.Context, rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
	return nil
}

func TestResolve_RecorderReceivesRecord(t *testing.T) {
	engine := &stubEngine{audio: makeAudio(2048)}
	rec := &captureRecorder{}
	r := New(engine, nil, rec, Options{})

	ref, err := r.Resolve(context.Background(), Request{Text: "hello", Voice: "en-CA-LiamNeural"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rec.recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(rec.recs))
	}
	got := rec.recs[0]
	if got.AudioBytes != 2048 {
		t.Errorf("AudioBytes: got %d, want 2048", got.AudioBytes)
	}
	if got.Kind != KindInlineDataURI {
		t.Errorf("Kind: got %s, want %s", got.Kind, KindInlineDataURI)
	}
	if got.ValueLen != len(ref.Value) {
		t.Errorf("ValueLen: got %d, want %d", got.ValueLen, len(ref.Value))
	}
	if got.Voice != "en-CA-LiamNeural" {
		t.Errorf("Voice: got %q", got.Voice)
	}
}

func TestResolve_FailureYieldsNoRecord(t *testing.T) {
	engine := &stubEngine{err: fmt.Errorf("engine exploded")}
	rec := &captureRecorder{}
	r := New(engine, nil, rec, Options{})

	if _, err := r.Resolve(context.Background(), Request{Text: "hello"}); err == nil {
		t.Fatal("expected error")
	}
	if len(rec.recs) != 0 {
		t.Errorf("failed resolve must not be recorded, got %d records", len(rec.recs))
	}
}

func TestResolve_ClipTooLong(t *testing.T) {
	engine := &stubEngine{audio: makeAudio(1024)}
	up := &stubUploader{bucket: "b", region: "r"}
	r := New(engine, up, nil, Options{
		MaxClipDuration: 240 * time.Second,
		DurationProbe: func([]byte) (time.Duration, error) {
			return 300 * time.Second, nil
		},
	})

	_, err := r.Resolve(context.Background(), Request{Text: "a very long story"})
	var dErr *DeliveryError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if dErr.Reason != ReasonClipTooLong {
		t.Errorf("reason: got %s, want %s", dErr.Reason, ReasonClipTooLong)
	}
	if up.callCount() != 0 {
		t.Errorf("overlong clip must not be uploaded, got %d calls", up.callCount())
	}
}

func TestResolve_ClipWithinLimitPasses(t *testing.T) {
	engine := &stubEngine{audio: makeAudio(1024)}
	r := New(engine, nil, nil, Options{
		MaxClipDuration: 240 * time.Second,
		DurationProbe: func([]byte) (time.Duration, error) {
			return 30 * time.Second, nil
		},
	})

	ref, err := r.Resolve(context.Background(), Request{Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != KindInlineDataURI {
		t.Errorf("expected inline reference, got %s", ref.Kind)
	}
}

func TestResolve_UndecodableAudioSkipsDurationCheck(t *testing.T) {
	// 载荷不是合法 MP3 时时长检查跳过，不影响投递
	engine := &stubEngine{audio: makeAudio(1024)}
	r := New(engine, nil, nil, Options{MaxClipDuration: time.Second})

	ref, err := r.Resolve(context.Background(), Request{Text: "hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Kind != KindInlineDataURI {
		t.Errorf("expected inline reference, got %s", ref.Kind)
	}
}
