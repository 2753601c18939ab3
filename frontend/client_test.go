package frontend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFakeFrontend installs a shell script standing in for the frontend
// binary and returns its path.
func writeFakeFrontend(t *testing.T, script string) string {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "jtalk-frontend")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("write fake frontend: %v", err)
	}
	return bin
}

const featuresJSON = `[
  {"string":"こんにちは","pos":"感動詞","pos_group1":"*","pos_group2":"*","pos_group3":"*",
   "ctype":"*","cform":"*","orig":"こんにちは","read":"コンニチハ","pron":"コンニチワ",
   "acc":0,"mora_size":5,"chain_rule":"*","chain_flag":-1}
]`

func TestRunFrontend_ParsesFeatures(t *testing.T) {
	bin := writeFakeFrontend(t, `
if [ "$1" != "run-frontend" ]; then echo "bad subcommand $1" >&2; exit 2; fi
if [ "$2" != "-x" ] || [ -z "$3" ]; then echo "missing dict dir" >&2; exit 2; fi
cat >/dev/null
cat <<'EOF'
`+featuresJSON+`
EOF`)

	c := New(bin, "/tmp/dic")
	feats, err := c.RunFrontend(context.Background(), "こんにちは")
	if err != nil {
		t.Fatalf("RunFrontend failed: %v", err)
	}
	if len(feats) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(feats))
	}
	f := feats[0]
	if f.String != "こんにちは" || f.Pron != "コンニチワ" || f.MoraSize != 5 || f.ChainFlag != -1 {
		t.Errorf("unexpected feature: %+v", f)
	}
}

func TestMakeLabel_ParsesLines(t *testing.T) {
	bin := writeFakeFrontend(t, `
if [ "$1" != "make-label" ]; then echo "bad subcommand $1" >&2; exit 2; fi
cat >/dev/null
printf 'xx^xx-sil+k=o/A:...\n'
printf 'xx^sil-k+o=N/A:...\n'
printf 'sil^k-o+N=n/A:...\n'
printf '\n'`)

	c := New(bin, "/tmp/dic")
	labels, err := c.MakeLabel(context.Background(), nil)
	if err != nil {
		t.Fatalf("MakeLabel failed: %v", err)
	}
	if len(labels) != 3 {
		t.Fatalf("expected 3 labels (blank line dropped), got %d: %v", len(labels), labels)
	}
	if labels[1] != "xx^sil-k+o=N/A:..." {
		t.Errorf("unexpected label: %q", labels[1])
	}
}

func TestRunFrontend_NativeErrorSurfacesStderr(t *testing.T) {
	bin := writeFakeFrontend(t, `
cat >/dev/null
echo "mecab: dictionary not found" >&2
exit 1`)

	c := New(bin, "/tmp/missing-dic")
	_, err := c.RunFrontend(context.Background(), "テスト")
	if err == nil {
		t.Fatal("expected error from failing frontend")
	}
	if !strings.Contains(err.Error(), "mecab: dictionary not found") {
		t.Errorf("native stderr should surface verbatim, got: %v", err)
	}
}

func TestRunFrontend_BinaryMissing(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "no-such-binary"), "/tmp/dic")
	if _, err := c.RunFrontend(context.Background(), "テスト"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestRunFrontend_InvalidJSON(t *testing.T) {
	bin := writeFakeFrontend(t, `
cat >/dev/null
echo "not json"`)

	c := New(bin, "/tmp/dic")
	if _, err := c.RunFrontend(context.Background(), "テスト"); err == nil {
		t.Fatal("expected error for invalid JSON output")
	}
}
