package logging

import "testing"

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		production bool
		wantErr    bool
	}{
		{"debug development", "debug", false, false},
		{"info production", "info", true, false},
		{"warn console", "warn", false, false},
		{"error json", "error", true, false},
		{"unknown level defaults to info", "trace", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.level, tt.production)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InitLogger(%q, %v) error = %v, wantErr %v", tt.level, tt.production, err, tt.wantErr)
			}
			if err == nil && Logger == nil {
				t.Fatal("InitLogger succeeded but Logger is still nil")
			}
		})
	}
	Sync()
}

func TestHelpersNoopBeforeInit(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	// must not panic with a nil Logger
	Info("msg")
	Debug("msg")
	Warn("msg")
	Error("msg")

	if lg := ForPipeline("cam0"); lg == nil {
		t.Fatal("ForPipeline returned nil logger")
	}
}
