//go:build with_cv
// +build with_cv

package frame

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ToMat copies the pixels into an OpenCV matrix (CV_8UC3, BGR), the layout
// OpenCV expects natively. The caller must Close the Mat.
func (f *Frame) ToMat() (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.Mat{}, err
	}
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pixels)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("unable to build a Mat from the frame: %w", err)
	}
	return mat, nil
}
