package cache

import (
	"fmt"
	"os"
	"testing"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("こんにちは", "openjtalk", "mei", "speed=1")
	b := Key("こんにちは", "openjtalk", "mei", "speed=1")
	if a != b {
		t.Fatal("expected identical keys for identical inputs")
	}
	if a == Key("こんにちは", "openjtalk", "mei", "speed=2") {
		t.Fatal("expected different keys for different params")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestStore_PutAndLookup(t *testing.T) {
	s, err := Open(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	key := Key("text", "openjtalk", "mei", "")
	if _, _, ok, err := s.Lookup(key); err != nil || ok {
		t.Fatalf("expected miss on empty store, ok=%v err=%v", ok, err)
	}

	data := []byte("RIFF fake wav payload")
	path, err := s.Put(key, data, 48000)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	gotPath, sr, ok, err := s.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if gotPath != path || sr != 48000 {
		t.Errorf("unexpected hit: path=%s sr=%d", gotPath, sr)
	}
	got, err := os.ReadFile(gotPath)
	if err != nil || string(got) != string(data) {
		t.Errorf("cached file content mismatch: %v", err)
	}
}

func TestStore_MissingFileInvalidatesEntry(t *testing.T) {
	s, err := Open(t.TempDir(), 10)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	key := Key("text", "openjtalk", "mei", "")
	path, err := s.Put(key, []byte("payload"), 48000)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	os.Remove(path)

	if _, _, ok, err := s.Lookup(key); err != nil || ok {
		t.Fatalf("expected miss after file removal, ok=%v err=%v", ok, err)
	}
}

func TestStore_EvictsOldestWhenOverLimit(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 1) // 1 MB 上限
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	// 每条 512 KB，第三条写入后总量超限，最旧的一条应被淘汰
	chunk := make([]byte, 512*1024)
	keys := make([]string, 3)
	for i := range keys {
		keys[i] = Key(fmt.Sprintf("text-%d", i), "openjtalk", "mei", "")
		if _, err := s.Put(keys[i], chunk, 48000); err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
	}

	if _, _, ok, _ := s.Lookup(keys[0]); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if _, _, ok, _ := s.Lookup(keys[2]); !ok {
		t.Error("expected newest entry to survive")
	}
}

func TestStore_UnlimitedWhenZero(t *testing.T) {
	s, err := Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	chunk := make([]byte, 256*1024)
	for i := 0; i < 4; i++ {
		key := Key(fmt.Sprintf("text-%d", i), "openjtalk", "mei", "")
		if _, err := s.Put(key, chunk, 48000); err != nil {
			t.Fatalf("Put %d failed: %v", i, err)
		}
	}
	for i := 0; i < 4; i++ {
		key := Key(fmt.Sprintf("text-%d", i), "openjtalk", "mei", "")
		if _, _, ok, _ := s.Lookup(key); !ok {
			t.Errorf("expected entry %d to survive with no size limit", i)
		}
	}
}
