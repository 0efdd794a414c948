package thumbnail

import "errors"

// ErrUnsupportedImage indicates the input bytes could not be decoded as an
// image in any registered format.
var ErrUnsupportedImage = errors.New("unsupported image")
