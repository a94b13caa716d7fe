package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".wahook", "sessions", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestAppDBPath(t *testing.T) {
	got := AppDBPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "wahook.db")) {
		t.Errorf("AppDBPath(test) = %q, want suffix sessions/test/wahook.db", got)
	}
}

func TestMediaDir(t *testing.T) {
	got := MediaDir("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "media")) {
		t.Errorf("MediaDir(test) = %q, want suffix sessions/test/media", got)
	}
}

func TestLogPath(t *testing.T) {
	got := LogPath("test")
	if !strings.HasSuffix(got, filepath.Join("sessions", "test", "logs", "wahookd.log")) {
		t.Errorf("LogPath(test) = %q, want suffix sessions/test/logs/wahookd.log", got)
	}
}
