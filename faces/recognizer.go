package faces

import (
	"errors"
	"log"
	"sync"
)

var (
	// ErrModelsNotLoaded is returned by every extraction call once model loading has failed
	ErrModelsNotLoaded = errors.New("could not load face recognition models")
	// ErrRecognizerClosed is returned by extraction calls made after Close
	ErrRecognizerClosed = errors.New("face recognizer is closed")
)

// Engine detects faces in JPEG data and computes a descriptor for each of them.
// Implementations must allow concurrent Recognize calls against the loaded weights.
type Engine interface {
	Recognize(jpegData []byte) ([]Face, error)
	Close()
}

// EngineFactory loads the detector, landmark and recognition weights found in modelsDir
type EngineFactory func(modelsDir string) (Engine, error)

// Recognizer owns the loaded models. It is created once by the service that uses it
// and handed to whatever needs descriptors.
type Recognizer struct {
	// MaxImageSize is the longest image side in pixels fed to the engine. 0 means as-is.
	MaxImageSize uint

	modelsDir string
	open      EngineFactory
	once      sync.Once
	err       error

	// mu guards engine and closed. Engine calls hold it for reading so Close waits for them.
	mu     sync.RWMutex
	engine Engine
	closed bool
}

func NewRecognizer(modelsDir string, open EngineFactory) *Recognizer {
	return &Recognizer{
		modelsDir: modelsDir,
		open:      open,
	}
}

// Load loads the models on first use. Later calls return the first result without
// touching the disk again; a failed load is not retried.
func (r *Recognizer) Load() error {
	r.once.Do(func() {
		if r.isClosed() {
			r.err = ErrRecognizerClosed
			return
		}
		log.Printf("Loading face recognition models from %s", r.modelsDir)
		engine, err := r.open(r.modelsDir)
		if err != nil {
			log.Printf("Error loading face recognition models: %v", err)
			r.err = ErrModelsNotLoaded
			return
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			engine.Close()
			r.err = ErrRecognizerClosed
			return
		}
		r.engine = engine
		log.Println("Face recognition models loaded")
	})
	return r.err
}

func (r *Recognizer) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

func (r *Recognizer) recognize(jpegData []byte) ([]Face, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed || r.engine == nil {
		return nil, ErrRecognizerClosed
	}
	return r.engine.Recognize(jpegData)
}

// Close waits for running engine calls and releases the engine. Later calls fail with ErrRecognizerClosed.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.engine != nil {
		r.engine.Close()
		r.engine = nil
	}
}
