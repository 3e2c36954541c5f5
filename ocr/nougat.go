package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ModelSize selects the Nougat checkpoint variant.
type ModelSize string

const (
	// ModelSmall is the ~250M parameter checkpoint.
	ModelSmall ModelSize = "small"
	// ModelBase is the ~350M parameter checkpoint.
	ModelBase ModelSize = "base"
)

// ParseModelSize parses a model size flag value.
func ParseModelSize(s string) (ModelSize, error) {
	switch ModelSize(s) {
	case ModelSmall, ModelBase:
		return ModelSize(s), nil
	}
	return "", fmt.Errorf("unknown model size %q (want small or base)", s)
}

// checkpoint returns the checkpoint directory name for the size.
func (s ModelSize) checkpoint() string { return "nougat-" + string(s) }

// DefaultModelDir returns the default checkpoint cache location,
// ~/.cache/paper2epub.
func DefaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(home, ".cache", "paper2epub")
}

// NougatConfig configures the neural engine.
type NougatConfig struct {
	// ModelDir is the directory holding checkpoint subdirectories
	// (nougat-small, nougat-base), each with encoder.onnx, decoder.onnx
	// and tokenizer.json. Empty means DefaultModelDir.
	ModelDir string
	// Size selects the checkpoint. Empty means ModelSmall.
	Size ModelSize
	// Device selects the execution provider. Empty means DeviceAuto.
	Device Device
	// BatchSize is the number of pages encoded per inference call.
	// Values below 1 mean 1.
	BatchSize int
	// MaxTokens caps the autoregressive decode length per page.
	// Values below 1 mean 3072.
	MaxTokens int
	// Logger receives load and fallback notices. Nil means slog.Default.
	Logger *slog.Logger
}

// Nougat runs a Nougat-style encoder/decoder OCR model through ONNX
// Runtime. Sessions are loaded lazily on the first recognition call and
// released by Close; the zero-cost construction keeps startup cheap when
// only part of the pipeline is exercised.
type Nougat struct {
	cfg NougatConfig

	mu      sync.Mutex
	loaded  bool
	device  Device
	encoder *ort.DynamicAdvancedSession
	decoder *ort.DynamicAdvancedSession
	tok     *tokenizer
}

// NewNougat creates the engine without touching the filesystem or the ONNX
// runtime; loading happens on first use or via Load.
func NewNougat(cfg NougatConfig) *Nougat {
	if cfg.ModelDir == "" {
		cfg.ModelDir = DefaultModelDir()
	}
	if cfg.Size == "" {
		cfg.Size = ModelSmall
	}
	if cfg.Device == "" {
		cfg.Device = DeviceAuto
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if cfg.MaxTokens < 1 {
		cfg.MaxTokens = 3072
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Nougat{cfg: cfg}
}

// Name identifies the engine and checkpoint.
func (n *Nougat) Name() string { return "nougat-" + string(n.cfg.Size) }

// Device returns the resolved execution device. Before loading it returns
// the configured (possibly "auto") device.
func (n *Nougat) Device() Device {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.loaded {
		return n.device
	}
	return n.cfg.Device
}

// The ONNX runtime environment is process-wide; initialization is guarded
// so concurrent engines share one.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func initRuntime() error {
	ortInitOnce.Do(func() {
		if p := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); p != "" {
			ort.SetSharedLibraryPath(p)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// Load eagerly initializes the model. It is safe to call concurrently and
// more than once.
func (n *Nougat) Load() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ensureLoadedLocked()
}

func (n *Nougat) ensureLoadedLocked() error {
	if n.loaded {
		return nil
	}

	if err := initRuntime(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}

	dir := filepath.Join(n.cfg.ModelDir, n.cfg.Size.checkpoint())
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("model checkpoint %s: %w", n.cfg.Size.checkpoint(), err)
	}

	tok, err := loadTokenizer(filepath.Join(dir, "tokenizer.json"))
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("create session options: %w", err)
	}
	defer opts.Destroy()

	n.device = n.applyDevice(opts)

	encoder, err := ort.NewDynamicAdvancedSession(
		filepath.Join(dir, "encoder.onnx"),
		[]string{"pixel_values"},
		[]string{"last_hidden_state"},
		opts,
	)
	if err != nil {
		return fmt.Errorf("load encoder: %w", err)
	}

	decoder, err := ort.NewDynamicAdvancedSession(
		filepath.Join(dir, "decoder.onnx"),
		[]string{"input_ids", "encoder_hidden_states"},
		[]string{"logits"},
		opts,
	)
	if err != nil {
		encoder.Destroy()
		return fmt.Errorf("load decoder: %w", err)
	}

	n.encoder = encoder
	n.decoder = decoder
	n.tok = tok
	n.loaded = true
	n.cfg.Logger.Info("model loaded",
		"checkpoint", n.cfg.Size.checkpoint(),
		"device", string(n.device))
	return nil
}

// applyDevice resolves the configured device and attaches the matching
// execution provider to the session options. Provider setup failures
// degrade to CPU rather than failing the load.
func (n *Nougat) applyDevice(opts *ort.SessionOptions) Device {
	device := n.cfg.Device.Resolve()
	switch device {
	case DeviceCUDA:
		cudaOpts, err := ort.NewCUDAProviderOptions()
		if err == nil {
			err = opts.AppendExecutionProviderCUDA(cudaOpts)
			cudaOpts.Destroy()
		}
		if err != nil {
			n.cfg.Logger.Warn("CUDA unavailable, falling back to CPU", "error", err)
			return DeviceCPU
		}
	case DeviceMPS:
		if err := opts.AppendExecutionProviderCoreML(0); err != nil {
			n.cfg.Logger.Warn("CoreML unavailable, falling back to CPU", "error", err)
			return DeviceCPU
		}
	}
	return device
}

// Recognize runs a single page through the model.
func (n *Nougat) Recognize(ctx context.Context, in Input) (Result, error) {
	results, err := n.RecognizeBatch(ctx, []Input{in})
	if err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// RecognizeBatch runs pages through the model in configured batch-size
// groups. Results are returned in input order.
func (n *Nougat) RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error) {
	if err := n.Load(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(inputs))
	for start := 0; start < len(inputs); start += n.cfg.BatchSize {
		end := start + n.cfg.BatchSize
		if end > len(inputs) {
			end = len(inputs)
		}
		batch, err := n.recognizeChunk(ctx, inputs[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

// recognizeChunk encodes one batch of pages and greedily decodes each.
func (n *Nougat) recognizeChunk(ctx context.Context, chunk []Input) ([]Result, error) {
	data := make([]float32, 0, len(chunk)*tensorLen)
	for _, in := range chunk {
		page, err := prepareInput(in.Image)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", in.PageIndex, err)
		}
		data = append(data, page...)
	}

	pixels, err := ort.NewTensor(
		ort.NewShape(int64(len(chunk)), inputChannels, inputHeight, inputWidth), data)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer pixels.Destroy()

	encOut := []ort.Value{nil}
	if err := n.encoder.Run([]ort.Value{pixels}, encOut); err != nil {
		return nil, fmt.Errorf("encoder inference: %w", err)
	}
	hidden, ok := encOut[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("encoder inference: unexpected output type")
	}
	defer hidden.Destroy()

	shape := hidden.GetShape()
	if len(shape) != 3 {
		return nil, fmt.Errorf("encoder inference: unexpected output rank %d", len(shape))
	}
	seq, dim := shape[1], shape[2]
	hiddenData := hidden.GetData()
	per := int(seq * dim)

	results := make([]Result, 0, len(chunk))
	for i, in := range chunk {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		text, err := n.decodeSample(ctx, hiddenData[i*per:(i+1)*per], seq, dim)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", in.PageIndex, err)
		}
		results = append(results, Result{InputID: in.ID, PageIndex: in.PageIndex, Markdown: text})
	}
	return results, nil
}

// decodeSample runs greedy autoregressive decoding for one page against
// its encoder hidden states.
func (n *Nougat) decodeSample(ctx context.Context, hidden []float32, seq, dim int64) (string, error) {
	state, err := ort.NewTensor(ort.NewShape(1, seq, dim), hidden)
	if err != nil {
		return "", fmt.Errorf("create state tensor: %w", err)
	}
	defer state.Destroy()

	bos := n.tok.bosID
	if bos < 0 {
		bos = 0
	}
	ids := []int64{bos}
	for len(ids) < n.cfg.MaxTokens {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		next, err := n.nextToken(ids, state)
		if err != nil {
			return "", err
		}
		if next == n.tok.eosID {
			break
		}
		ids = append(ids, next)
	}
	return n.tok.Decode(ids), nil
}

// nextToken runs one decoder step and returns the argmax of the final
// position's logits.
func (n *Nougat) nextToken(ids []int64, state *ort.Tensor[float32]) (int64, error) {
	in, err := ort.NewTensor(ort.NewShape(1, int64(len(ids))), append([]int64(nil), ids...))
	if err != nil {
		return 0, fmt.Errorf("create token tensor: %w", err)
	}
	defer in.Destroy()

	out := []ort.Value{nil}
	if err := n.decoder.Run([]ort.Value{in, state}, out); err != nil {
		return 0, fmt.Errorf("decoder inference: %w", err)
	}
	logits, ok := out[0].(*ort.Tensor[float32])
	if !ok {
		return 0, fmt.Errorf("decoder inference: unexpected output type")
	}
	defer logits.Destroy()

	shape := logits.GetShape()
	if len(shape) != 3 {
		return 0, fmt.Errorf("decoder inference: unexpected output rank %d", len(shape))
	}
	vocab := int(shape[2])
	data := logits.GetData()
	last := data[(len(ids)-1)*vocab : len(ids)*vocab]

	best := 0
	for i, v := range last {
		if v > last[best] {
			best = i
		}
	}
	return int64(best), nil
}

// Close releases the ONNX sessions and model memory. The engine can be
// reused afterwards; the next recognition call reloads the model.
func (n *Nougat) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.loaded {
		return nil
	}
	n.encoder.Destroy()
	n.decoder.Destroy()
	n.encoder = nil
	n.decoder = nil
	n.tok = nil
	n.loaded = false
	return nil
}
