package v4l2

/*
#include <linux/videodev2.h>
*/
import "C"

import (
	"unsafe"

	"github.com/coholabs/v4pipe/errs"
)

// SelectionTarget identifies which rectangle a selection ioctl reads or
// writes — the active crop/compose area or the device's fixed default.
type SelectionTarget = uint32

const (
	SelTargetCrop         SelectionTarget = C.V4L2_SEL_TGT_CROP
	SelTargetCropDefault  SelectionTarget = C.V4L2_SEL_TGT_CROP_DEFAULT
	SelTargetCropBounds   SelectionTarget = C.V4L2_SEL_TGT_CROP_BOUNDS
	SelTargetCompose      SelectionTarget = C.V4L2_SEL_TGT_COMPOSE
	SelTargetComposeDef   SelectionTarget = C.V4L2_SEL_TGT_COMPOSE_DEFAULT
	SelTargetComposeBound SelectionTarget = C.V4L2_SEL_TGT_COMPOSE_BOUNDS
)

// SelectionFlag constrains how the driver is allowed to adjust a requested
// rectangle when it cannot honor it exactly.
type SelectionFlag = uint32

const (
	// SelFlagGE asks the driver to return a rectangle greater than or equal
	// to the one requested (used for crop).
	SelFlagGE SelectionFlag = C.V4L2_SEL_FLAG_GE
	// SelFlagLE asks for a rectangle less than or equal to the one
	// requested (used for compose, per setComposingArea's policy).
	SelFlagLE SelectionFlag = C.V4L2_SEL_FLAG_LE
)

// getSelection issues VIDIOC_G_SELECTION for the given buffer type and
// target, returning the rectangle the driver reports.
func getSelection(fd uintptr, bufType BufType, target SelectionTarget) (Rect, error) {
	var sel C.struct_v4l2_selection
	sel._type = C.uint(bufType)
	sel.target = C.uint(target)

	if err := send("v4l2.GetSelection", fd, C.VIDIOC_G_SELECTION, uintptr(unsafe.Pointer(&sel))); err != nil {
		return Rect{}, err
	}
	return rectFromC(sel.r), nil
}

// setSelection issues VIDIOC_S_SELECTION, requesting rect for target under
// flags, and returns the rectangle the driver actually accepted.
func setSelection(fd uintptr, bufType BufType, target SelectionTarget, flags SelectionFlag, rect Rect) (Rect, error) {
	var sel C.struct_v4l2_selection
	sel._type = C.uint(bufType)
	sel.target = C.uint(target)
	sel.flags = C.uint(flags)
	sel.r = rectToC(rect)

	if err := send("v4l2.SetSelection", fd, C.VIDIOC_S_SELECTION, uintptr(unsafe.Pointer(&sel))); err != nil {
		return Rect{}, err
	}
	return rectFromC(sel.r), nil
}

func rectFromC(r C.struct_v4l2_rect) Rect {
	return Rect{
		Left:   int32(r.left),
		Top:    int32(r.top),
		Width:  uint32(r.width),
		Height: uint32(r.height),
	}
}

func rectToC(r Rect) C.struct_v4l2_rect {
	var out C.struct_v4l2_rect
	out.left = C.__s32(r.Left)
	out.top = C.__s32(r.Top)
	out.width = C.__u32(r.Width)
	out.height = C.__u32(r.Height)
	return out
}

// clampToDefault clamps rect into def, the policy setCroppingArea uses:
// left/top are clamped into [def.Left, def.Left+def.Width) and
// [def.Top, def.Top+def.Height) (a rect starting before def is moved in,
// keeping its width/height), and width/height are trimmed so the result
// never extends past def's right/bottom edge. A rect entirely outside def
// collapses to def itself.
func clampToDefault(rect, def Rect) Rect {
	if int64(rect.Left)+int64(rect.Width) <= int64(def.Left) ||
		int64(rect.Top)+int64(rect.Height) <= int64(def.Top) {
		return def
	}

	left := rect.Left
	if left < def.Left {
		left = def.Left
	}
	top := rect.Top
	if top < def.Top {
		top = def.Top
	}

	defRight := def.Left + int32(def.Width)
	defBottom := def.Top + int32(def.Height)
	if left >= defRight || top >= defBottom {
		return def
	}

	width := rect.Width
	if maxWidth := uint32(defRight - left); width > maxWidth {
		width = maxWidth
	}
	height := rect.Height
	if maxHeight := uint32(defBottom - top); height > maxHeight {
		height = maxHeight
	}
	if width == 0 || height == 0 {
		return def
	}

	return Rect{Left: left, Top: top, Width: width, Height: height}
}

// SetCroppingArea clamps rect into the device's default crop rectangle
// (queried via SelTargetCropDefault) and writes the clamped result with
// SelFlagGE, returning whatever the driver finally accepted.
func SetCroppingArea(fd uintptr, bufType BufType, rect Rect) (Rect, error) {
	def, err := getSelection(fd, bufType, SelTargetCropDefault)
	if err != nil {
		return Rect{}, errs.New("v4l2.SetCroppingArea", errs.Params, err)
	}
	clamped := clampToDefault(rect, def)
	return setSelection(fd, bufType, SelTargetCrop, SelFlagGE, clamped)
}

// SetComposingArea clamps rect into the device's default composing
// rectangle and writes it with SelFlagLE, permitting the driver to return a
// smaller rectangle than requested.
func SetComposingArea(fd uintptr, bufType BufType, rect Rect) (Rect, error) {
	def, err := getSelection(fd, bufType, SelTargetComposeDef)
	if err != nil {
		return Rect{}, errs.New("v4l2.SetComposingArea", errs.Params, err)
	}
	clamped := clampToDefault(rect, def)
	return setSelection(fd, bufType, SelTargetCompose, SelFlagLE, clamped)
}
