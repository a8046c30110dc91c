//go:build cgo

package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/captcha-tools-mcp/internal/model"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// Environment owns the process-wide runtime initialization.
type Environment struct {
	closeOnce sync.Once
}

// NewEnvironment loads the shared library at libPath and initializes the
// runtime. Only one Environment may be open at a time.
func NewEnvironment(libPath string) (*Environment, error) {
	if ort.IsInitialized() {
		return nil, fmt.Errorf("onnx runtime is already initialized")
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize onnx runtime from %s: %w", libPath, err)
	}
	return &Environment{}, nil
}

// Close tears the runtime down.
func (e *Environment) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = ort.DestroyEnvironment()
	})
	return err
}

// Session is one loaded model graph.
type Session struct {
	session *ort.DynamicAdvancedSession
	options *ort.SessionOptions
	outputs int
}

// NewSession loads the model at path with every declared output. threads
// bounds intra-op parallelism; values below 1 mean one thread.
func NewSession(env *Environment, path string, threads int) (*Session, error) {
	if env == nil {
		return nil, fmt.Errorf("onnx session needs an open environment")
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model info from %s: %w", path, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s has %d inputs and %d outputs", path, len(inputs), len(outputs))
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	if threads < 1 {
		threads = 1
	}
	if err := options.SetIntraOpNumThreads(threads); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to set intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(1); err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to set inter-op threads: %w", err)
	}

	outputNames := make([]string, len(outputs))
	for i, o := range outputs {
		outputNames[i] = o.Name
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{inputs[0].Name}, outputNames, options)
	if err != nil {
		options.Destroy()
		return nil, fmt.Errorf("failed to create session for %s: %w", path, err)
	}

	return &Session{session: session, options: options, outputs: len(outputNames)}, nil
}

// Factory returns a model.Factory building sessions for path.
func Factory(env *Environment, path string, threads int) model.Factory {
	return func() (model.Runner, error) {
		return NewSession(env, path, threads)
	}
}

// Run executes the graph on in and copies every output out of native memory.
func (s *Session) Run(in tensor.Tensor) ([]tensor.Output, error) {
	input, err := ort.NewTensor(ort.NewShape(in.Shape...), in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	values := make([]ort.Value, s.outputs)
	defer func() {
		for _, v := range values {
			if v != nil {
				v.Destroy()
			}
		}
	}()
	if err := s.session.Run([]ort.Value{input}, values); err != nil {
		return nil, err
	}

	outs := make([]tensor.Output, len(values))
	for i, v := range values {
		out, err := convert(v)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outs[i] = out
	}
	return outs, nil
}

// convert copies a runtime value. Integer outputs of any width become int64.
func convert(v ort.Value) (tensor.Output, error) {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		data := append([]float32(nil), t.GetData()...)
		return tensor.NewFloatOutput(t.GetShape(), data)
	case *ort.Tensor[int64]:
		data := append([]int64(nil), t.GetData()...)
		return tensor.NewIntOutput(t.GetShape(), data)
	case *ort.Tensor[int32]:
		return tensor.NewIntOutput(t.GetShape(), widen(t.GetData()))
	case *ort.Tensor[uint32]:
		return tensor.NewIntOutput(t.GetShape(), widen(t.GetData()))
	case nil:
		return tensor.Output{}, fmt.Errorf("runtime returned no value")
	default:
		return tensor.Output{}, fmt.Errorf("unsupported output type %T", v)
	}
}

func widen[T int32 | uint32](src []T) []int64 {
	out := make([]int64, len(src))
	for i, v := range src {
		out[i] = int64(v)
	}
	return out
}

// Close destroys the session.
func (s *Session) Close() error {
	err := s.session.Destroy()
	if s.options != nil {
		s.options.Destroy()
	}
	return err
}
