package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/dudu/centerface/internal/config"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{"", logrus.InfoLevel, false},
		{"debug", logrus.DebugLevel, false},
		{"WARN", logrus.WarnLevel, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, closer, err := New(config.LogConfig{Level: tt.level})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			defer closer.Close()
			if log.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewFileAndJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, closer, err := New(config.LogConfig{Level: "info", Format: "json", File: path})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := log.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("formatter = %T, want *logrus.JSONFormatter", log.Formatter)
	}

	log.WithField("faces", 3).Info("detected")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"faces":3`) {
		t.Errorf("log file = %q, want faces field", data)
	}
}
