package segmentation

import "runtime"

// SharedLibraryPath returns the default onnxruntime shared library location
// for the current platform. Deployments with the library elsewhere set
// Config.LibraryPath instead.
func SharedLibraryPath() string {
	if runtime.GOOS == "windows" {
		return "third_party/onnxruntime.dll"
	}
	if runtime.GOOS == "darwin" {
		return "third_party/libonnxruntime.dylib"
	}
	if runtime.GOARCH == "arm64" {
		return "third_party/onnxruntime_arm64.so"
	}
	return "third_party/onnxruntime.so"
}
