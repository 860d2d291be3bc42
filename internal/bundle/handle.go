package bundle

// Handle is the immutable result of a fully successful resolution. Every
// path it exposes existed and passed validation at construction time; no
// partially valid handle is ever built.
type Handle struct {
	root         string
	executable   string
	modelsDir    string
	defaultModel string
}

// Root is the verified bundle root directory.
func (h Handle) Root() string { return h.root }

// Executable is the verified recognizer binary path.
func (h Handle) Executable() string { return h.executable }

// ModelsDir is the trusted models directory.
func (h Handle) ModelsDir() string { return h.modelsDir }

// DefaultModel is the verified default model path.
func (h Handle) DefaultModel() string { return h.defaultModel }

// Valid reports whether the handle was produced by Resolve, as opposed to
// being the zero value.
func (h Handle) Valid() bool { return h.root != "" }
