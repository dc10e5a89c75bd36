package onnx

import (
	"errors"
	"fmt"
	"math"
	"sync"

	tokenizer "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Config configures a local sentence-transformer style model.
type Config struct {
	ModelPath     string
	TokenizerPath string
	// LibraryPath points at the onnxruntime shared library. Empty uses the
	// platform default lookup.
	LibraryPath string
	// Dimension is the hidden size. Zero detects it from one embedding at startup.
	Dimension int
	// MaxTokens truncates long inputs. Zero means 512.
	MaxTokens int
	// InputNames defaults to input_ids, attention_mask, token_type_ids.
	InputNames []string
	OutputName string
	Threads    int
}

var envMu sync.Mutex

// Embedder runs a transformer encoder through onnxruntime and mean-pools the
// last hidden state into a unit vector. Calls are serialized.
type Embedder struct {
	mu         sync.Mutex
	tk         *tokenizer.Tokenizer
	session    *ort.DynamicAdvancedSession
	inputNames []string
	maxTokens  int
	dimension  int
}

// New loads the tokenizer and model.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("onnx embedder needs model_path and tokenizer_path")
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, err
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()
	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("failed to set graph optimization: %w", err)
	}
	if err := opts.SetIntraOpNumThreads(cfg.Threads); err != nil {
		return nil, fmt.Errorf("failed to set thread count: %w", err)
	}

	inputs := cfg.InputNames
	if len(inputs) == 0 {
		inputs = []string{"input_ids", "attention_mask", "token_type_ids"}
	}
	output := cfg.OutputName
	if output == "" {
		output = "last_hidden_state"
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputs, []string{output}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	e := &Embedder{
		tk:         tk,
		session:    session,
		inputNames: inputs,
		maxTokens:  cfg.MaxTokens,
		dimension:  cfg.Dimension,
	}
	if e.maxTokens <= 0 {
		e.maxTokens = 512
	}
	if e.dimension == 0 {
		vec, err := e.Embed("dimension check")
		if err != nil {
			_ = e.Close()
			return nil, fmt.Errorf("detect model dimension: %w", err)
		}
		e.dimension = len(vec)
	}
	return e, nil
}

func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "onnx" }

// Dimension returns the hidden size of the model.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed tokenizes text, runs the encoder and returns the pooled vector.
func (e *Embedder) Embed(text string) ([]float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	enc, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}
	ids := enc.GetIds()
	mask := enc.GetAttentionMask()
	types := enc.GetTypeIds()
	n := min(len(ids), e.maxTokens)

	feeds := map[string][]int64{
		"input_ids":      toInt64(ids, n),
		"attention_mask": toInt64(mask, n),
		"token_type_ids": toInt64(types, n),
	}
	shape := ort.NewShape(1, int64(n))
	inputs := make([]ort.Value, 0, len(e.inputNames))
	for _, name := range e.inputNames {
		data, ok := feeds[name]
		if !ok {
			return nil, fmt.Errorf("unsupported model input %q", name)
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s tensor: %w", name, err)
		}
		defer t.Destroy()
		inputs = append(inputs, t)
	}

	outputs := make([]ort.Value, 1)
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	defer outputs[0].Destroy()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("output tensor is not float32 type")
	}
	s := hidden.GetShape()
	if len(s) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", s)
	}
	vec := meanPool(hidden.GetData(), feeds["attention_mask"], int(s[1]), int(s[2]))
	if e.dimension != 0 && len(vec) != e.dimension {
		return nil, fmt.Errorf("model returned %d-dimensional vector, expected %d", len(vec), e.dimension)
	}
	return vec, nil
}

// Close releases the session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	return err
}

func toInt64(v []int, n int) []int64 {
	out := make([]int64, n)
	for i := 0; i < n && i < len(v); i++ {
		out[i] = int64(v[i])
	}
	return out
}

// meanPool averages the token states selected by mask for a single sequence
// and L2-normalizes the result.
func meanPool(hidden []float32, mask []int64, seqLen, dim int) []float64 {
	vec := make([]float64, dim)
	count := 0.0
	for t := 0; t < seqLen && t < len(mask); t++ {
		if mask[t] == 0 {
			continue
		}
		row := hidden[t*dim : (t+1)*dim]
		for i, v := range row {
			vec[i] += float64(v)
		}
		count++
	}
	if count == 0 {
		return vec
	}
	norm := 0.0
	for i := range vec {
		vec[i] /= count
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
