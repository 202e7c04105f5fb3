package safefile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen_Success(t *testing.T) {
	path := writeFile(t, "test.txt", "test content")

	f, info, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v, want nil", err)
	}
	defer f.Close()

	if !info.Mode().IsRegular() {
		t.Error("expected regular file")
	}
}

func TestOpen_FileNotExist(t *testing.T) {
	_, _, err := Open("/nonexistent/path/file.txt")
	if !os.IsNotExist(err) {
		t.Errorf("Open() error = %v, want os.IsNotExist", err)
	}
}

func TestOpen_RejectsDirectory(t *testing.T) {
	_, _, err := Open(t.TempDir())
	if !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("Open() error = %v, want ErrNotRegularFile", err)
	}
}

func TestOpen_RejectsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test requires Unix")
	}

	target := writeFile(t, "target.txt", "test")
	link := filepath.Join(filepath.Dir(target), "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	_, _, err := Open(link)
	if !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("Open() error = %v, want ErrNotRegularFile", err)
	}
}

func TestOpen_RejectsFIFO(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("FIFO test requires Unix")
	}

	fifo := filepath.Join(t.TempDir(), "fifo")
	if err := syscall.Mkfifo(fifo, 0644); err != nil {
		t.Skipf("mkfifo not supported: %v", err)
	}

	_, _, err := Open(fifo)
	if !errors.Is(err, ErrNotRegularFile) {
		t.Errorf("Open() error = %v, want ErrNotRegularFile", err)
	}
}

func TestReadAll(t *testing.T) {
	path := writeFile(t, "p.yaml", "version: 1\n")

	data, err := ReadAll(path, 1024)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "version: 1\n" {
		t.Errorf("ReadAll() = %q", data)
	}

	if _, err := ReadAll(path, 4); !errors.Is(err, ErrTooLarge) {
		t.Errorf("ReadAll() error = %v, want ErrTooLarge", err)
	}
}

func TestReadLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"empty", "", nil},
		{"single no newline", "a", []string{"a"}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"keeps blank lines", "a\n\nb", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "log.txt", tt.content)
			got, err := ReadLines(path, Limits{})
			if err != nil {
				t.Fatalf("ReadLines() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ReadLines() = %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadLines_Limits(t *testing.T) {
	path := writeFile(t, "log.txt", "short\n"+strings.Repeat("x", 100)+"\n")

	if _, err := ReadLines(path, Limits{MaxLineBytes: 50}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("line limit: error = %v, want ErrTooLarge", err)
	}
	if _, err := ReadLines(path, Limits{MaxBytes: 10}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("byte limit: error = %v, want ErrTooLarge", err)
	}
	if _, err := ReadLines(path, Limits{MaxBytes: 1000, MaxLineBytes: 1000}); err != nil {
		t.Errorf("within limits: error = %v", err)
	}
}

func TestScanLines_LimitWithoutStat(t *testing.T) {
	r := strings.NewReader("aaaa\nbbbb\ncccc\n")
	if _, err := ScanLines(r, Limits{MaxBytes: 8}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("ScanLines() error = %v, want ErrTooLarge", err)
	}
}

func TestScanLines_NoTruncation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int64
		wantErr bool
		want    []string
	}{
		{"cut after newline", "aaaa\nbbb\ncccc\n", 8, true, nil},
		{"cut mid line", "aaaa\nbbbb\n", 7, true, nil},
		{"one byte over", "aaaa\nbbb\n", 8, true, nil},
		{"exact size", "aaaa\nbbb\n", 9, false, []string{"aaaa", "bbb"}},
		{"exact size no newline", "aaaa\nbbb", 8, false, []string{"aaaa", "bbb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScanLines(strings.NewReader(tt.content), Limits{MaxBytes: tt.max})
			if tt.wantErr {
				if !errors.Is(err, ErrTooLarge) {
					t.Fatalf("ScanLines() = %q, %v, want ErrTooLarge", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ScanLines() error = %v", err)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("ScanLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestScanLines_SmallLineLimit(t *testing.T) {
	r := strings.NewReader("short\n" + strings.Repeat("x", 100) + "\n")
	if _, err := ScanLines(r, Limits{MaxLineBytes: 50}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("ScanLines() error = %v, want ErrTooLarge", err)
	}

	r = strings.NewReader("short\n" + strings.Repeat("x", 40) + "\n")
	got, err := ScanLines(r, Limits{MaxLineBytes: 50})
	if err != nil || len(got) != 2 {
		t.Errorf("ScanLines() = %q, %v, want two lines", got, err)
	}
}
