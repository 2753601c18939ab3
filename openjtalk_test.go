package openjtalk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/njd"
)

// fakeAnalyzer 返回固定的特征与标签，并记录收到的特征。
type fakeAnalyzer struct {
	feats     []njd.Feature
	labels    []string
	gotFeats  []njd.Feature
	runCalls  int
	makeCalls int
}

func (f *fakeAnalyzer) RunFrontend(_ context.Context, text string) ([]njd.Feature, error) {
	f.runCalls++
	return f.feats, nil
}

func (f *fakeAnalyzer) MakeLabel(_ context.Context, feats []njd.Feature) ([]string, error) {
	f.makeCalls++
	f.gotFeats = feats
	return f.labels, nil
}

// fakeSynthesizer 记录收到的标签与参数，返回固定波形。
type fakeSynthesizer struct {
	gotLabels []string
	gotParams SynthesisParams
	samples   []float32
	rate      int
}

func (f *fakeSynthesizer) Synthesize(_ context.Context, labels []string, params SynthesisParams) ([]float32, int, error) {
	f.gotLabels = labels
	f.gotParams = params
	return f.samples, f.rate, nil
}

// fakeEstimator 把所有重音核改写为固定值。
type fakeEstimator struct {
	acc   int
	calls int
}

func (f *fakeEstimator) Estimate(_ context.Context, feats []njd.Feature) ([]njd.Feature, error) {
	f.calls++
	out := make([]njd.Feature, len(feats))
	for i, ft := range feats {
		ft.Acc = f.acc
		out[i] = ft
	}
	return out, nil
}

func konnichiwaFeatures() []njd.Feature {
	return []njd.Feature{
		{String: "こんにちは", Pos: "感動詞", Orig: "こんにちは", Read: "コンニチハ", Pron: "コンニチワ", Acc: 0, MoraSize: 5, ChainFlag: -1},
	}
}

func konnichiwaLabels() []string {
	return []string{
		"xx^xx-sil+k=o/A:xx",
		"xx^sil-k+o=N/A:-4",
		"sil^k-o+N=n/A:-4",
		"k^o-N+n=i/A:-3",
		"o^N-n+i=ch/A:-2",
		"N^n-i+ch=i/A:-2",
		"n^i-ch+i=w/A:-1",
		"i^ch-i+w=a/A:-1",
		"ch^i-w+a=sil/A:0",
		"i^w-a+sil=xx/A:0",
		"w^a-sil+xx=xx/A:xx",
	}
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	eng, err := New(context.Background(), Config{}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return eng
}

func TestTTS_ComposesPipeline(t *testing.T) {
	an := &fakeAnalyzer{feats: konnichiwaFeatures(), labels: konnichiwaLabels()}
	syn := &fakeSynthesizer{samples: []float32{0.1, 0.2}, rate: 48000}
	eng := newTestEngine(t, WithAnalyzer(an), WithSynthesizer(syn))
	ctx := context.Background()

	samples, sr, err := eng.TTS(ctx, "こんにちは", SynthesisParams{Speed: 1.5})
	if err != nil {
		t.Fatalf("TTS failed: %v", err)
	}
	if sr != 48000 || len(samples) != 2 {
		t.Errorf("unexpected result: sr=%d len=%d", sr, len(samples))
	}
	if syn.gotParams.Speed != 1.5 {
		t.Errorf("expected speed 1.5 to reach synthesizer, got %f", syn.gotParams.Speed)
	}

	// TTS 必须等价于 Synthesize(MakeLabel(RunFrontend(text)))
	if len(syn.gotLabels) != len(konnichiwaLabels()) {
		t.Fatalf("expected %d labels, got %d", len(konnichiwaLabels()), len(syn.gotLabels))
	}
	feats, _ := eng.RunFrontend(ctx, "こんにちは")
	labels, _ := eng.MakeLabel(ctx, feats)
	for i := range labels {
		if labels[i] != syn.gotLabels[i] {
			t.Errorf("label %d mismatch: %s vs %s", i, labels[i], syn.gotLabels[i])
		}
	}
}

func TestTTS_RunMarineAppliesEstimator(t *testing.T) {
	an := &fakeAnalyzer{feats: konnichiwaFeatures(), labels: konnichiwaLabels()}
	syn := &fakeSynthesizer{rate: 48000}
	est := &fakeEstimator{acc: 7}
	eng := newTestEngine(t, WithAnalyzer(an), WithSynthesizer(syn), WithAccentEstimator(est))

	if _, _, err := eng.TTS(context.Background(), "こんにちは", SynthesisParams{RunMarine: true}); err != nil {
		t.Fatalf("TTS failed: %v", err)
	}
	if est.calls != 1 {
		t.Errorf("expected estimator to be called once, got %d", est.calls)
	}
	if len(an.gotFeats) == 0 || an.gotFeats[0].Acc != 7 {
		t.Errorf("expected corrected features to reach MakeLabel, got %+v", an.gotFeats)
	}
}

func TestTTS_NoMarineByDefault(t *testing.T) {
	an := &fakeAnalyzer{feats: konnichiwaFeatures(), labels: konnichiwaLabels()}
	syn := &fakeSynthesizer{rate: 48000}
	est := &fakeEstimator{acc: 7}
	eng := newTestEngine(t, WithAnalyzer(an), WithSynthesizer(syn), WithAccentEstimator(est))

	if _, _, err := eng.TTS(context.Background(), "こんにちは", SynthesisParams{}); err != nil {
		t.Fatalf("TTS failed: %v", err)
	}
	if est.calls != 0 {
		t.Errorf("expected estimator not to be called, got %d calls", est.calls)
	}
}

func TestEstimateAccent_MissingDependency(t *testing.T) {
	an := &fakeAnalyzer{feats: konnichiwaFeatures(), labels: konnichiwaLabels()}
	eng := newTestEngine(t, WithAnalyzer(an))

	_, err := eng.EstimateAccent(context.Background(), konnichiwaFeatures())
	if err == nil {
		t.Fatal("expected error without accent estimator")
	}
	var depErr *DependencyError
	if !errors.As(err, &depErr) {
		t.Fatalf("expected *DependencyError, got %T: %v", err, err)
	}
	if depErr.Dependency != "marine" {
		t.Errorf("expected dependency marine, got %s", depErr.Dependency)
	}
	if !strings.Contains(err.Error(), "marine") {
		t.Errorf("expected message to name marine, got: %v", err)
	}
}

func TestSynthesize_NoSynthesizerConfigured(t *testing.T) {
	an := &fakeAnalyzer{feats: konnichiwaFeatures(), labels: konnichiwaLabels()}
	eng := newTestEngine(t, WithAnalyzer(an))

	if _, _, err := eng.Synthesize(context.Background(), konnichiwaLabels(), SynthesisParams{}); err == nil {
		t.Fatal("expected error when no synthesizer is configured")
	}
}

func TestDefault_SameInstanceAcrossGoroutines(t *testing.T) {
	an := &fakeAnalyzer{feats: konnichiwaFeatures(), labels: konnichiwaLabels()}
	Init(Config{}, WithAnalyzer(an))
	t.Cleanup(func() { Init(Config{}) })

	const n = 16
	engines := make([]*Engine, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := Default(context.Background())
			if err != nil {
				t.Errorf("Default failed: %v", err)
				return
			}
			engines[i] = e
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if engines[i] != engines[0] {
			t.Fatalf("goroutine %d got a different engine instance", i)
		}
	}
}

func TestInit_ResetsSingleton(t *testing.T) {
	an := &fakeAnalyzer{feats: konnichiwaFeatures(), labels: konnichiwaLabels()}
	Init(Config{}, WithAnalyzer(an))
	t.Cleanup(func() { Init(Config{}) })

	first, err := Default(context.Background())
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	Init(Config{}, WithAnalyzer(an))
	second, err := Default(context.Background())
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	if first == second {
		t.Fatal("expected Init to discard the previous singleton")
	}
}

func TestVersion_NeverEmpty(t *testing.T) {
	if Version() == "" {
		t.Fatal("expected non-empty version string")
	}
}
