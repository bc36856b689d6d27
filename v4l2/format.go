package v4l2

// #include <linux/videodev2.h>
import "C"

import (
	"fmt"
	"unsafe"
)

// FourCCType is a type alias for uint32, representing a Four Character Code
// (FourCC) used to identify pixel formats in V4L2.
// See https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/pixfmt.html
type FourCCType = uint32

// Predefined Pixel Format FourCC Constants. This is the set of formats
// config.PipelineConfig's pixel_format field can name.
var (
	PixelFmtRGB24 FourCCType = C.V4L2_PIX_FMT_RGB24
	PixelFmtGrey  FourCCType = C.V4L2_PIX_FMT_GREY
	PixelFmtYUYV  FourCCType = C.V4L2_PIX_FMT_YUYV
	PixelFmtYYUV  FourCCType = C.V4L2_PIX_FMT_YYUV
	PixelFmtYVYU  FourCCType = C.V4L2_PIX_FMT_YVYU
	PixelFmtUYVY  FourCCType = C.V4L2_PIX_FMT_UYVY
	PixelFmtVYUY  FourCCType = C.V4L2_PIX_FMT_VYUY
	PixelFmtMJPEG FourCCType = C.V4L2_PIX_FMT_MJPEG
	PixelFmtJPEG  FourCCType = C.V4L2_PIX_FMT_JPEG
	PixelFmtMPEG  FourCCType = C.V4L2_PIX_FMT_MPEG
	PixelFmtH264  FourCCType = C.V4L2_PIX_FMT_H264
	PixelFmtMPEG4 FourCCType = C.V4L2_PIX_FMT_MPEG4
)

// PixelFormats maps the FourCC constants above to a human-readable
// description, used by PixFormat.String for logging.
var PixelFormats = map[FourCCType]string{
	PixelFmtRGB24: "24-bit RGB 8-8-8",
	PixelFmtGrey:  "8-bit Greyscale",
	PixelFmtYUYV:  "YUYV 4:2:2",
	PixelFmtYYUV:  "YYUV 4:2:2",
	PixelFmtYVYU:  "YVYU 4:2:2",
	PixelFmtUYVY:  "UYVY 4:2:2",
	PixelFmtVYUY:  "VYUY 4:2:2",
	PixelFmtMJPEG: "Motion-JPEG",
	PixelFmtJPEG:  "JFIF JPEG",
	PixelFmtMPEG:  "MPEG-1/2/4",
	PixelFmtH264:  "H.264",
	PixelFmtMPEG4: "MPEG-4 Part 2 ES",
}

// ColorspaceType is a type alias for uint32, representing the color space a
// pixel format is interpreted in.
// See https://www.kernel.org/doc/html/latest/userspace-api/media/v4l/colorspaces-defs.html
type ColorspaceType = uint32

// Colorspace Type Constants. This is the set of colorspaces
// config.PipelineConfig's colorspace field can name.
const (
	ColorspaceDefault     ColorspaceType = C.V4L2_COLORSPACE_DEFAULT
	ColorspaceSMPTE170M   ColorspaceType = C.V4L2_COLORSPACE_SMPTE170M
	ColorspaceSMPTE240M   ColorspaceType = C.V4L2_COLORSPACE_SMPTE240M
	ColorspaceREC709      ColorspaceType = C.V4L2_COLORSPACE_REC709
	Colorspace470SystemM  ColorspaceType = C.V4L2_COLORSPACE_470_SYSTEM_M
	Colorspace470SystemBG ColorspaceType = C.V4L2_COLORSPACE_470_SYSTEM_BG
	ColorspaceJPEG        ColorspaceType = C.V4L2_COLORSPACE_JPEG
	ColorspaceSRGB        ColorspaceType = C.V4L2_COLORSPACE_SRGB
	ColorspaceOPRGB       ColorspaceType = C.V4L2_COLORSPACE_OPRGB
	ColorspaceBT2020      ColorspaceType = C.V4L2_COLORSPACE_BT2020
	ColorspaceRaw         ColorspaceType = C.V4L2_COLORSPACE_RAW
	ColorspaceDCIP3       ColorspaceType = C.V4L2_COLORSPACE_DCI_P3
)

// Colorspaces maps the constants above to a human-readable description,
// used by PixFormat.String for logging.
var Colorspaces = map[ColorspaceType]string{
	ColorspaceDefault:     "Default",
	ColorspaceSMPTE170M:   "SMPTE 170M",
	ColorspaceSMPTE240M:   "SMPTE 240M",
	ColorspaceREC709:      "Rec. 709",
	Colorspace470SystemM:  "470 System M",
	Colorspace470SystemBG: "470 System BG",
	ColorspaceJPEG:        "JPEG",
	ColorspaceSRGB:        "sRGB",
	ColorspaceOPRGB:       "opRGB",
	ColorspaceBT2020:      "BT.2020",
	ColorspaceRaw:         "Raw",
	ColorspaceDCIP3:       "DCI-P3",
}

// FieldType is a type alias for uint32, representing the field order of
// interlaced video frames. Configure never requests a specific field order
// (the driver's default is accepted), but GetPixFormat still reports back
// whatever the driver chose, which PixFormat.String logs.
type FieldType = uint32

// Field Order Type Constants
const (
	FieldAny        FieldType = C.V4L2_FIELD_ANY
	FieldNone       FieldType = C.V4L2_FIELD_NONE
	FieldInterlaced FieldType = C.V4L2_FIELD_INTERLACED
)

// Fields maps the constants above to a human-readable description.
var Fields = map[FieldType]string{
	FieldAny:        "any",
	FieldNone:       "none",
	FieldInterlaced: "interlaced",
}

// PixFormat is the subset of the kernel's v4l2_pix_format struct this
// package negotiates: dimensions, pixel encoding, colorspace, field order,
// and the resulting per-line/per-image byte sizes the driver reports back.
// See https://www.kernel.org/doc/html/v4.9/media/uapi/v4l/pixfmt-002.html
type PixFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  FourCCType
	Field        FieldType
	BytesPerLine uint32
	SizeImage    uint32
	Colorspace   ColorspaceType
}

// String returns a human-readable summary of the negotiated format, used
// when logging Start/Configure outcomes.
func (f PixFormat) String() string {
	return fmt.Sprintf(
		"%s [%dx%d]; field=%s; bytes per line=%d; size image=%d; colorspace=%s",
		PixelFormats[f.PixelFormat],
		f.Width, f.Height,
		Fields[f.Field],
		f.BytesPerLine,
		f.SizeImage,
		Colorspaces[f.Colorspace],
	)
}

// GetPixFormat retrieves the current pixel format for the device's video
// capture stream (VIDIOC_G_FMT).
func GetPixFormat(fd uintptr) (PixFormat, error) {
	var v4l2Format C.struct_v4l2_format
	v4l2Format._type = C.uint(BufTypeVideoCapture)

	if err := send("v4l2.GetPixFormat", fd, C.VIDIOC_G_FMT, uintptr(unsafe.Pointer(&v4l2Format))); err != nil {
		return PixFormat{}, err
	}

	v4l2PixFmt := *(*C.struct_v4l2_pix_format)(unsafe.Pointer(&v4l2Format.fmt[0]))
	return PixFormat{
		Width:        uint32(v4l2PixFmt.width),
		Height:       uint32(v4l2PixFmt.height),
		PixelFormat:  FourCCType(v4l2PixFmt.pixelformat),
		Field:        FieldType(v4l2PixFmt.field),
		BytesPerLine: uint32(v4l2PixFmt.bytesperline),
		SizeImage:    uint32(v4l2PixFmt.sizeimage),
		Colorspace:   ColorspaceType(v4l2PixFmt.colorspace),
	}, nil
}

// SetPixFormat applies pixFmt to the device's video capture stream
// (VIDIOC_S_FMT). The kernel may adjust width, height, or other fields to
// match what the driver actually supports; callers should re-read with
// GetPixFormat afterward rather than assume pixFmt was applied verbatim.
func SetPixFormat(fd uintptr, pixFmt PixFormat) error {
	var v4l2Format C.struct_v4l2_format
	v4l2Format._type = C.uint(BufTypeVideoCapture)

	v4l2PixFmt := (*C.struct_v4l2_pix_format)(unsafe.Pointer(&v4l2Format.fmt[0]))
	v4l2PixFmt.width = C.uint(pixFmt.Width)
	v4l2PixFmt.height = C.uint(pixFmt.Height)
	v4l2PixFmt.pixelformat = C.uint(pixFmt.PixelFormat)
	v4l2PixFmt.field = C.uint(pixFmt.Field)
	v4l2PixFmt.colorspace = C.uint(pixFmt.Colorspace)

	return send("v4l2.SetPixFormat", fd, C.VIDIOC_S_FMT, uintptr(unsafe.Pointer(&v4l2Format)))
}
