package v4l2

import "testing"

func TestPixFormatStringIncludesNegotiatedFields(t *testing.T) {
	f := PixFormat{
		Width:        1280,
		Height:       720,
		PixelFormat:  PixelFmtYUYV,
		Field:        FieldNone,
		BytesPerLine: 2560,
		SizeImage:    1843200,
		Colorspace:   ColorspaceSRGB,
	}

	got := f.String()
	want := "YUYV 4:2:2 [1280x720]; field=none; bytes per line=2560; size image=1843200; colorspace=sRGB"
	if got != want {
		t.Fatalf("PixFormat.String() = %q, want %q", got, want)
	}
}

func TestPixFormatStringUnknownFormatFieldAndColorspace(t *testing.T) {
	f := PixFormat{Width: 640, Height: 480, PixelFormat: 0xdeadbeef, Field: 99, Colorspace: 99}

	got := f.String()
	want := " [640x480]; field=; bytes per line=0; size image=0; colorspace="
	if got != want {
		t.Fatalf("PixFormat.String() = %q, want %q", got, want)
	}
}

func TestPixelFormatsCoversEveryFormatAPipelineCanRequest(t *testing.T) {
	for _, fourcc := range []FourCCType{
		PixelFmtRGB24, PixelFmtGrey, PixelFmtYUYV, PixelFmtYYUV, PixelFmtYVYU,
		PixelFmtUYVY, PixelFmtVYUY, PixelFmtMJPEG, PixelFmtJPEG, PixelFmtMPEG,
		PixelFmtH264, PixelFmtMPEG4,
	} {
		if _, ok := PixelFormats[fourcc]; !ok {
			t.Errorf("PixelFormats missing description for fourcc %#x", fourcc)
		}
	}
}

func TestColorspacesCoversEveryColorspaceAPipelineCanRequest(t *testing.T) {
	for _, cs := range []ColorspaceType{
		ColorspaceDefault, ColorspaceSMPTE170M, ColorspaceSMPTE240M, ColorspaceREC709,
		Colorspace470SystemM, Colorspace470SystemBG, ColorspaceJPEG, ColorspaceSRGB,
		ColorspaceOPRGB, ColorspaceBT2020, ColorspaceRaw, ColorspaceDCIP3,
	} {
		if _, ok := Colorspaces[cs]; !ok {
			t.Errorf("Colorspaces missing description for colorspace %#x", cs)
		}
	}
}
