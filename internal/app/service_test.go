package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

func TestServiceShuffleRewritesDocumentCompactly(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeTestFile(t, cfg.DataPath, `{
		"featured": [{"id": 1}, {"id": 2}, {"id": 3}],
		"new": [{"id": 4}],
		"nature": [{"id": 5}, {"id": 6}, {"id": 7}],
		"cities": [{"id": 8}, {"id": 9}]
	}`)

	svc := newTestService(t, cfg, WithPermFunc(reversePerm))
	result, err := svc.Shuffle(ShuffleOptions{})
	if err != nil {
		t.Fatalf("shuffle: %v", err)
	}

	want := strings.Join([]string{
		`{`,
		`  "featured": [`,
		`    {"id":1},{"id":2},`,
		`    {"id":3}`,
		`  ],`,
		`  "new": [`,
		`    {"id":4}`,
		`  ],`,
		`  "cities": [`,
		`    {"id":9},{"id":8}`,
		`  ],`,
		`  "nature": [`,
		`    {"id":7},{"id":6},`,
		`    {"id":5}`,
		`  ]`,
		`}`,
	}, "\n")
	if diff := cmp.Diff(want, readTestFile(t, cfg.DataPath)); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}
	if result.Shuffled != 2 || result.Excluded != 2 || result.Items != 9 {
		t.Fatalf("unexpected result %+v", result)
	}
	if diff := cmp.Diff([]string{"featured", "new", "cities", "nature"}, result.Order); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(svc.Paths().LockPath); !os.IsNotExist(err) {
		t.Fatalf("lock file left behind, err=%v", err)
	}
}

func TestServiceShuffleUsesConfiguredExclude(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.ExcludeCategories = 0
	writeTestFile(t, cfg.DataPath, `{"a":[1,2],"b":[3]}`)

	result, err := newTestService(t, cfg, WithPermFunc(reversePerm)).Shuffle(ShuffleOptions{})
	if err != nil {
		t.Fatalf("shuffle: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "a"}, result.Order); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestServiceShuffleDefaultRandomnessKeepsPrefix(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeTestFile(t, cfg.DataPath, shuffleFixture)

	result, err := newTestService(t, cfg).Shuffle(ShuffleOptions{})
	if err != nil {
		t.Fatalf("shuffle: %v", err)
	}
	if result.Order[0] != "featured" || result.Order[1] != "new" {
		t.Fatalf("fixed categories moved: %v", result.Order)
	}
	doc := mustParse(t, readTestFile(t, cfg.DataPath))
	featured, _ := doc.Get("featured")
	if diff := cmp.Diff([]string{`{"id":1}`, `{"id":2}`, `{"id":3}`}, rawStrings(featured.Items)); diff != "" {
		t.Fatalf("fixed category items reordered (-want +got):\n%s", diff)
	}
}

func TestServiceShuffleDryRunLeavesFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	original := `{"a":[1],"b":[2],"c":[3],"d":[4]}`
	writeTestFile(t, cfg.DataPath, original)

	result, err := newTestService(t, cfg, WithPermFunc(reversePerm)).Shuffle(ShuffleOptions{DryRun: true})
	if err != nil {
		t.Fatalf("shuffle: %v", err)
	}
	if got := readTestFile(t, cfg.DataPath); got != original {
		t.Fatalf("dry run changed the file: %q", got)
	}
	if !strings.Contains(string(result.Rendered), `"d": [`) {
		t.Fatalf("expected rendered output, got %q", result.Rendered)
	}
}

func TestServiceShuffleMalformedDocumentFailsBeforeWrite(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	for _, content := range []string{`{"a":[1,2`, `[1,2,3]`} {
		writeTestFile(t, cfg.DataPath, content)
		_, err := newTestService(t, cfg, WithPermFunc(reversePerm)).Shuffle(ShuffleOptions{})
		if ExitCode(err) != ExitInputError {
			t.Fatalf("expected input error for %q, got %v", content, err)
		}
		if got := readTestFile(t, cfg.DataPath); got != content {
			t.Fatalf("document changed: %q", got)
		}
	}
}

func TestServiceShuffleMissingDocument(t *testing.T) {
	cfg := testConfig(t.TempDir())
	_, err := newTestService(t, cfg).Shuffle(ShuffleOptions{})
	if !errors.Is(err, ErrMissingFile) {
		t.Fatalf("expected ErrMissingFile, got %v", err)
	}
}

func TestServiceShuffleKeepsFileMode(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeTestFile(t, cfg.DataPath, `{"a":[1],"b":[2],"c":[3]}`)
	if err := os.Chmod(cfg.DataPath, 0o640); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if _, err := newTestService(t, cfg, WithPermFunc(reversePerm)).Shuffle(ShuffleOptions{}); err != nil {
		t.Fatalf("shuffle: %v", err)
	}
	stat, err := os.Stat(cfg.DataPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if stat.Mode().Perm() != 0o640 {
		t.Fatalf("expected mode 0640, got %v", stat.Mode().Perm())
	}
}

func TestExitCodeUnwrapsWrappedErrors(t *testing.T) {
	err := WrapExit(ExitIOFailure, errors.New("disk full"))
	if ExitCode(err) != ExitIOFailure {
		t.Fatalf("expected io failure code")
	}
	if ExitCode(errors.Join(errors.New("context"), err)) != ExitIOFailure {
		t.Fatalf("expected code through wrapping")
	}
	if ExitCode(errors.New("plain")) != ExitUserError {
		t.Fatalf("expected user error for plain errors")
	}
	if ExitCode(nil) != ExitSuccess {
		t.Fatalf("expected success for nil")
	}
	if WrapExit(ExitIOFailure, nil) != nil {
		t.Fatalf("expected nil wrap of nil error")
	}
}

func rawStrings(items []json.RawMessage) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, string(item))
	}
	return out
}

func TestServiceWritesFailWhenDocumentIsLocked(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	original := `{"a":[1],"b":[2],"c":[3]}`
	writeTestFile(t, cfg.DataPath, original)
	writeTestFile(t, cfg.Sources["paid"], `{"x":[9]}`)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 17, 6, 0, 0, 0, time.UTC))
	svc := newTestService(t, cfg, WithClock(clock), WithLockWait(0), WithPermFunc(reversePerm))
	writeLockHolder(t, svc.Paths().LockPath, 4242, clock.Now())

	_, err := svc.Shuffle(ShuffleOptions{})
	if ExitCode(err) != ExitIOFailure {
		t.Fatalf("shuffle: expected io failure, got %v", err)
	}
	_, err = svc.Switch(SwitchOptions{Source: "paid"})
	if ExitCode(err) != ExitIOFailure {
		t.Fatalf("switch: expected io failure, got %v", err)
	}

	if got := readTestFile(t, cfg.DataPath); got != original {
		t.Fatalf("document changed: %q", got)
	}
	if _, err := os.Stat(svc.Paths().BackupPath); !os.IsNotExist(err) {
		t.Fatalf("backup written without the lock, err=%v", err)
	}
}

func TestServiceShuffleReadsDocumentUnderLock(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	writeTestFile(t, cfg.DataPath, `{"a":[1],"b":[2],"c":[3]}`)

	svc := newTestService(t, cfg, WithPermFunc(reversePerm))
	err := svc.rewriteLocked(cfg.DataPath, func() ([]byte, error) {
		if _, err := os.Stat(svc.Paths().LockPath); err != nil {
			t.Fatalf("render ran without the lock: %v", err)
		}
		return []byte(`{"z":[0]}`), nil
	})
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if got := readTestFile(t, cfg.DataPath); got != `{"z":[0]}` {
		t.Fatalf("unexpected content %q", got)
	}
	if _, err := os.Stat(svc.Paths().LockPath); !os.IsNotExist(err) {
		t.Fatalf("lock left behind, err=%v", err)
	}
}

func TestServiceRewriteFailureIsIOFailure(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, testConfig(dir))

	target := filepath.Join(dir, "missing", "hello.json")
	err := svc.rewriteLocked(target, func() ([]byte, error) {
		return []byte(`{}`), nil
	})
	if ExitCode(err) != ExitIOFailure {
		t.Fatalf("expected io failure, got %v", err)
	}
}
