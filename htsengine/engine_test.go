package htsengine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TrellixVulnTeam/pyopenjtalk-F9A2/audio"
)

func TestBuildArgs_Defaults(t *testing.T) {
	args := buildArgs("mei.htsvoice", Params{}, "/tmp/out.wav", "/tmp/in.lab")
	want := []string{"-m", "mei.htsvoice", "-r", "1", "-ow", "/tmp/out.wav", "/tmp/in.lab"}
	if len(args) != len(want) {
		t.Fatalf("expected %v, got %v", want, args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, args)
		}
	}
}

func TestBuildArgs_SpeedAndHalfTone(t *testing.T) {
	args := buildArgs("mei.htsvoice", Params{Speed: 2, HalfTone: 3.5}, "o.wav", "i.lab")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-r 2") {
		t.Errorf("expected -r 2 in args, got %v", args)
	}
	if !strings.Contains(joined, "-fm 3.5") {
		t.Errorf("expected -fm 3.5 in args, got %v", args)
	}
}

// writeFakeHTSEngine 安装一个假的 hts_engine：扫描参数找到 -ow 的输出路径，
// 把 $JTALK_TEST_WAV 指向的 WAV 复制过去。
func writeFakeHTSEngine(t *testing.T, dir string) string {
	t.Helper()
	script := `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-ow" ]; then out="$a"; fi
  prev="$a"
done
if [ -z "$out" ]; then echo "missing -ow" >&2; exit 1; fi
cp "$JTALK_TEST_WAV" "$out"
`
	path := filepath.Join(dir, "hts_engine")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake hts_engine: %v", err)
	}
	return path
}

func TestSynthesize_DecodesOutput(t *testing.T) {
	dir := t.TempDir()

	// 准备固定的合成结果 WAV
	fixture := filepath.Join(dir, "fixture.wav")
	samples := []float32{0, 0.5, -0.5, 0.25}
	if err := audio.EncodeWAVFile(fixture, samples, 48000); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("JTALK_TEST_WAV", fixture)

	bin := writeFakeHTSEngine(t, dir)
	eng := New(bin, filepath.Join(dir, "mei.htsvoice"))

	labels := []string{
		"xx^xx-sil+k=o/A:...",
		"xx^sil-k+o=N/A:...",
		"sil^k-o+N=n/A:...",
	}
	got, sr, err := eng.Synthesize(context.Background(), labels, Params{})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if sr != 48000 {
		t.Errorf("expected sample rate 48000, got %d", sr)
	}
	if len(got) != len(samples) {
		t.Errorf("expected %d samples, got %d", len(samples), len(got))
	}
}

func TestSynthesize_EmptyLabels(t *testing.T) {
	eng := New("hts_engine", "mei.htsvoice")
	if _, _, err := eng.Synthesize(context.Background(), nil, Params{}); err == nil {
		t.Fatal("expected error for empty label sequence")
	}
}

func TestSynthesize_MissingVoice(t *testing.T) {
	eng := New("hts_engine", "")
	if _, _, err := eng.Synthesize(context.Background(), []string{"lab"}, Params{}); err == nil {
		t.Fatal("expected error when voice path is not configured")
	}
}

func TestSynthesize_NativeErrorSurfacesStderr(t *testing.T) {
	dir := t.TempDir()
	script := "#!/bin/sh\necho 'HTS_Engine: voice model not found' >&2\nexit 1\n"
	bin := filepath.Join(dir, "hts_engine")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake hts_engine: %v", err)
	}

	eng := New(bin, "missing.htsvoice")
	_, _, err := eng.Synthesize(context.Background(), []string{"lab"}, Params{})
	if err == nil {
		t.Fatal("expected error from failing hts_engine")
	}
	if !strings.Contains(err.Error(), "voice model not found") {
		t.Errorf("expected stderr in error, got: %v", err)
	}
}
