package segmentation

import (
	"image"
	"sync"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// Config configures the ONNX selfie-segmentation backend.
type Config struct {
	// ModelPath is the path to the segmentation ONNX model.
	ModelPath string
	// InputSize is the square model input resolution (e.g. 256).
	InputSize int
	// InputName and OutputName are the model's tensor names.
	InputName  string
	OutputName string
	// ApplySigmoid squashes raw logits into [0,1]. Leave false for models
	// that already emit probabilities.
	ApplySigmoid bool
	// LibraryPath overrides the onnxruntime shared library location.
	// Empty selects the per-platform default.
	LibraryPath string
	// IntraOpThreads and InterOpThreads bound runtime parallelism.
	// Zero uses the runtime defaults.
	IntraOpThreads int
	InterOpThreads int
}

// ortInit guards environment initialization, which onnxruntime allows only
// once per process. ortInitErr keeps the result so a failed first attempt
// is reported to every later constructor, not just the first.
var (
	ortInit    sync.Once
	ortInitErr error
)

// ONNXSegmenter runs a selfie-segmentation model through a long-lived ONNX
// Runtime session. Session setup is expensive relative to per-frame
// inference, so the session and both tensors are created once and reused.
type ONNXSegmenter struct {
	cfg     Config
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]

	// Per-frame scratch, reused to avoid Mat churn at camera rate.
	resized   gocv.Mat
	planes    gocv.Mat
	modelMask gocv.Mat
}

// NewONNXSegmenter creates the runtime environment (once per process) and a
// session for the configured model.
//
// Arguments:
//   - cfg: The backend configuration.
//
// Returns:
//   - *ONNXSegmenter: The ready segmenter.
//   - error: An error if the runtime or session cannot be created.
func NewONNXSegmenter(cfg Config) (*ONNXSegmenter, error) {
	if cfg.InputSize <= 0 {
		return nil, errors.Errorf("invalid model input size %d", cfg.InputSize)
	}
	if cfg.InputName == "" || cfg.OutputName == "" {
		return nil, errors.New("model input and output tensor names are required")
	}

	libPath := cfg.LibraryPath
	if libPath == "" {
		libPath = SharedLibraryPath()
	}

	ortInit.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, errors.Wrap(ortInitErr, "initializing onnxruntime environment")
	}

	n := cfg.InputSize
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n), int64(n), 3))
	if err != nil {
		return nil, errors.Wrap(err, "creating input tensor")
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(n), int64(n), 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, errors.Wrap(err, "creating output tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrap(err, "creating session options")
	}
	defer options.Destroy()
	if cfg.IntraOpThreads > 0 {
		options.SetIntraOpNumThreads(cfg.IntraOpThreads)
	}
	if cfg.InterOpThreads > 0 {
		options.SetInterOpNumThreads(cfg.InterOpThreads)
	}
	options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended)

	session, err := ort.NewAdvancedSession(
		cfg.ModelPath,
		[]string{cfg.InputName},
		[]string{cfg.OutputName},
		[]ort.ArbitraryTensor{inputTensor},
		[]ort.ArbitraryTensor{outputTensor},
		options,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, errors.Wrapf(err, "creating session for %s", cfg.ModelPath)
	}

	return &ONNXSegmenter{
		cfg:       cfg,
		session:   session,
		input:     inputTensor,
		output:    outputTensor,
		resized:   gocv.NewMat(),
		planes:    gocv.NewMat(),
		modelMask: gocv.NewMatWithSize(n, n, gocv.MatTypeCV32F),
	}, nil
}

// Segment runs one inference and writes the frame-resolution probability
// mask into dst.
func (s *ONNXSegmenter) Segment(frame gocv.Mat, dst *gocv.Mat) error {
	if frame.Empty() {
		return errors.New("empty frame")
	}

	if err := s.prepareInput(frame); err != nil {
		return err
	}

	if err := s.session.Run(); err != nil {
		return errors.Wrap(err, "running segmentation inference")
	}

	s.readOutput()

	// Scale the model-resolution mask back up to the frame, per the
	// provider contract (mask dimensions == frame dimensions).
	gocv.Resize(s.modelMask, dst, image.Pt(frame.Cols(), frame.Rows()), 0, 0, gocv.InterpolationLinear)
	return nil
}

// prepareInput fills the NHWC input tensor with the frame scaled to the
// model resolution and normalized to [0,1].
func (s *ONNXSegmenter) prepareInput(frame gocv.Mat) error {
	n := s.cfg.InputSize
	gocv.Resize(frame, &s.resized, image.Pt(n, n), 0, 0, gocv.InterpolationLinear)
	s.resized.ConvertToWithParams(&s.planes, gocv.MatTypeCV32FC3, 1.0/255.0, 0)

	src, err := s.planes.DataPtrFloat32()
	if err != nil {
		return errors.Wrap(err, "reading normalized input planes")
	}
	data := s.input.GetData()
	if len(data) != len(src) {
		return errors.Errorf("input tensor holds %d floats, frame produced %d", len(data), len(src))
	}
	copy(data, src)
	return nil
}

// readOutput copies the output tensor into the model-resolution mask Mat,
// applying the sigmoid when the model emits logits.
func (s *ONNXSegmenter) readOutput() {
	out := s.output.GetData()
	mask, _ := s.modelMask.DataPtrFloat32()
	if s.cfg.ApplySigmoid {
		for i, v := range out {
			mask[i] = 1.0 / (1.0 + math32.Exp(-v))
		}
		return
	}
	copy(mask, out)
}

// Close destroys the session and tensors and releases the scratch Mats.
func (s *ONNXSegmenter) Close() error {
	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	if s.output != nil {
		s.output.Destroy()
		s.output = nil
	}
	s.resized.Close()
	s.planes.Close()
	s.modelMask.Close()
	return nil
}
