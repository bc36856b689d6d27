// Package config implements the inbound contract of the out-of-scope
// Loaders collaborator: it turns a YAML document into a validated list of
// pipeline.Params, the way the original's Loaders/VideoConfig produce a
// fully populated VideoParams per device section.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/coholabs/v4pipe/logging"
	"github.com/coholabs/v4pipe/pipeline"
	"github.com/coholabs/v4pipe/task"
	"github.com/coholabs/v4pipe/v4l2"
	"go.uber.org/zap"
)

// RectConfig is the YAML shape of a v4l2.Rect.
type RectConfig struct {
	Left   int32  `yaml:"left"`
	Top    int32  `yaml:"top"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
}

func (r RectConfig) toRect() v4l2.Rect {
	return v4l2.Rect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
}

// PipelineConfig is the YAML shape of one pipeline.Params. String fields
// name V4L2 constants by their short symbolic name (e.g. "YUYV", "mmap",
// "highest") rather than their numeric value.
type PipelineConfig struct {
	Name           string     `yaml:"name"`
	DevicePath     string     `yaml:"device_path"`
	RequestedCaps  uint32     `yaml:"requested_caps"`
	PixelFormat    string     `yaml:"pixel_format"`
	Colorspace     string     `yaml:"colorspace"`
	Priority       string     `yaml:"priority"`
	DesiredFps     uint32     `yaml:"desired_fps"`
	Width          uint32     `yaml:"width"`
	Height         uint32     `yaml:"height"`
	Cropping       RectConfig `yaml:"cropping"`
	Composing      RectConfig `yaml:"composing"`
	BufferCount    uint32     `yaml:"buffer_count"`
	MemoryStrategy string     `yaml:"memory_strategy"`
	AwaitMode      string     `yaml:"await_mode"`
}

// Document is the root of a v4pipe YAML configuration file: one section per
// capture pipeline.
type Document struct {
	Pipelines []PipelineConfig `yaml:"pipelines"`
}

// Load reads path, applies V4PIPE_* environment overrides, validates every
// pipeline section, and returns the resulting pipeline.Params list. The
// first invalid section aborts the whole load — a partially-loaded
// configuration is never handed to the caller.
func Load(path string) ([]pipeline.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	ApplyEnvOverrides(&doc)

	params := make([]pipeline.Params, 0, len(doc.Pipelines))
	for _, pc := range doc.Pipelines {
		if err := Validate(pc); err != nil {
			return nil, err
		}
		p, err := ToParams(pc)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

// ApplyEnvOverrides overrides each pipeline's device path and desired
// framerate from V4PIPE_<NAME>_DEVICE_PATH / V4PIPE_<NAME>_FPS, the same
// log-every-override pattern the ambient stack's own config package uses.
func ApplyEnvOverrides(doc *Document) {
	for i := range doc.Pipelines {
		pc := &doc.Pipelines[i]
		prefix := "V4PIPE_" + envName(pc.Name)

		if val := os.Getenv(prefix + "_DEVICE_PATH"); val != "" {
			logging.Info("config override from environment",
				zap.String("pipeline", pc.Name), zap.String("var", prefix+"_DEVICE_PATH"), zap.String("value", val))
			pc.DevicePath = val
		}

		if val := os.Getenv(prefix + "_FPS"); val != "" {
			if fps, err := strconv.ParseUint(val, 10, 32); err == nil {
				logging.Info("config override from environment",
					zap.String("pipeline", pc.Name), zap.String("var", prefix+"_FPS"), zap.Uint64("value", fps))
				pc.DesiredFps = uint32(fps)
			} else {
				logging.Warn("invalid fps in environment override",
					zap.String("pipeline", pc.Name), zap.String("value", val), zap.Error(err))
			}
		}
	}
}

func envName(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			out[i] = c - ('a' - 'A')
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out[i] = c
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// Validate checks the fields this package is responsible for: a non-empty
// name, an existing capture-capable device path, bufferCount >= 2, and a
// positive fps. It does not open the device beyond what IsCaptureDevice
// needs.
func Validate(pc PipelineConfig) error {
	if pc.Name == "" {
		return fmt.Errorf("config: pipeline name must not be empty")
	}
	if pc.BufferCount < 2 {
		return fmt.Errorf("config: pipeline %q: buffer_count must be >= 2, got %d", pc.Name, pc.BufferCount)
	}
	if pc.DesiredFps == 0 {
		return fmt.Errorf("config: pipeline %q: desired_fps must be > 0", pc.Name)
	}

	ok, err := v4l2.IsCaptureDevice(pc.DevicePath)
	if err != nil {
		return fmt.Errorf("config: pipeline %q: device %s: %w", pc.Name, pc.DevicePath, err)
	}
	if !ok {
		return fmt.Errorf("config: pipeline %q: %s is not a video capture device", pc.Name, pc.DevicePath)
	}
	return nil
}

// ToParams converts a validated PipelineConfig into a pipeline.Params.
func ToParams(pc PipelineConfig) (pipeline.Params, error) {
	pixFmt, ok := pixelFormats[pc.PixelFormat]
	if !ok {
		return pipeline.Params{}, fmt.Errorf("config: pipeline %q: unknown pixel_format %q", pc.Name, pc.PixelFormat)
	}
	colorspace, ok := colorspaces[pc.Colorspace]
	if !ok {
		return pipeline.Params{}, fmt.Errorf("config: pipeline %q: unknown colorspace %q", pc.Name, pc.Colorspace)
	}
	priority, ok := priorities[pc.Priority]
	if !ok {
		return pipeline.Params{}, fmt.Errorf("config: pipeline %q: unknown priority %q", pc.Name, pc.Priority)
	}
	memStrategy, ok := memoryStrategies[pc.MemoryStrategy]
	if !ok {
		return pipeline.Params{}, fmt.Errorf("config: pipeline %q: unknown memory_strategy %q", pc.Name, pc.MemoryStrategy)
	}
	awaitMode, ok := awaitModes[pc.AwaitMode]
	if !ok {
		return pipeline.Params{}, fmt.Errorf("config: pipeline %q: unknown await_mode %q", pc.Name, pc.AwaitMode)
	}

	return pipeline.Params{
		Name:           pc.Name,
		DevicePath:     pc.DevicePath,
		RequestedCaps:  pc.RequestedCaps,
		BufferType:     v4l2.BufTypeVideoCapture,
		PixelFormat:    pixFmt,
		Colorspace:     colorspace,
		Priority:       priority,
		DesiredFps:     pc.DesiredFps,
		CaptureArea:    v4l2.Area{Width: pc.Width, Height: pc.Height},
		CroppingArea:   pc.Cropping.toRect(),
		ComposingArea:  pc.Composing.toRect(),
		BufferCount:    pc.BufferCount,
		MemoryStrategy: memStrategy,
		AwaitMode:      awaitMode,
	}, nil
}

var pixelFormats = map[string]v4l2.FourCCType{
	"RGB24": v4l2.PixelFmtRGB24,
	"GREY":  v4l2.PixelFmtGrey,
	"YUYV":  v4l2.PixelFmtYUYV,
	"YYUV":  v4l2.PixelFmtYYUV,
	"YVYU":  v4l2.PixelFmtYVYU,
	"UYVY":  v4l2.PixelFmtUYVY,
	"VYUY":  v4l2.PixelFmtVYUY,
	"MJPEG": v4l2.PixelFmtMJPEG,
	"JPEG":  v4l2.PixelFmtJPEG,
	"MPEG":  v4l2.PixelFmtMPEG,
	"H264":  v4l2.PixelFmtH264,
	"MPEG4": v4l2.PixelFmtMPEG4,
}

var colorspaces = map[string]v4l2.ColorspaceType{
	"DEFAULT":       v4l2.ColorspaceDefault,
	"SMPTE170M":     v4l2.ColorspaceSMPTE170M,
	"SMPTE240M":     v4l2.ColorspaceSMPTE240M,
	"REC709":        v4l2.ColorspaceREC709,
	"470_SYSTEM_M":  v4l2.Colorspace470SystemM,
	"470_SYSTEM_BG": v4l2.Colorspace470SystemBG,
	"JPEG":          v4l2.ColorspaceJPEG,
	"SRGB":          v4l2.ColorspaceSRGB,
	"OPRGB":         v4l2.ColorspaceOPRGB,
	"BT2020":        v4l2.ColorspaceBT2020,
	"RAW":           v4l2.ColorspaceRaw,
	"DCI_P3":        v4l2.ColorspaceDCIP3,
}

var priorities = map[string]task.Priority{
	"default": task.PriorityDefault,
	"lowest":  task.PriorityLowest,
	"highest": task.PriorityHighest,
}

var memoryStrategies = map[string]v4l2.MemoryType{
	"mmap":    v4l2.MemoryMmap,
	"userptr": v4l2.MemoryUserPointer,
}

var awaitModes = map[string]v4l2.AwaitMode{
	"blocking":    v4l2.Blocking,
	"nonblocking": v4l2.NonBlockingWithTimeout,
}
