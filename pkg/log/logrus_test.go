package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestSimpleFormatter(t *testing.T) {
	f := &SimpleFormatter{TimestampFormat: "2006/01/02"}
	entry := &logrus.Entry{
		Time:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "link lost",
		Data:    logrus.Fields{"motor": 3, "cycle": 12},
	}

	out, err := f.Format(entry)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	expected := "2024/03/01 [WAR] link lost cycle=12 motor=3\n"
	if string(out) != expected {
		t.Errorf("Expected %q, got %q", expected, string(out))
	}
}

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger("warn", &buf)

	logger.Infof("hidden")
	logger.WithField("path", "/dev/ttyACM0").Warnf("shown %d", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info entry should be filtered at warn level, got %q", out)
	}
	if !strings.Contains(out, "[WAR] shown 1 path=/dev/ttyACM0") {
		t.Errorf("Expected warn entry with field, got %q", out)
	}
}

func TestNewLogrusLoggerWritesJSONFile(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := NewLogrusLogger("debug", filepath.Join(tempDir, "logs"))
	if err != nil {
		t.Fatalf("NewLogrusLogger failed: %v", err)
	}
	logger.WithField("version", "test").Infof("Application started")

	f, err := os.Open(filepath.Join(tempDir, "logs", JSONLogFilename))
	if err != nil {
		t.Fatalf("Failed to open json log: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatalf("Expected at least one json line")
	}
	var line map[string]interface{}
	if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
		t.Fatalf("Json log line is not valid json: %v", err)
	}
	if line["msg"] != "Application started" {
		t.Errorf("Expected msg 'Application started', got %v", line["msg"])
	}
	if line["version"] != "test" {
		t.Errorf("Expected version field 'test', got %v", line["version"])
	}
}
