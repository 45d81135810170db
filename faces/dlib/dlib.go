// Package dlib provides the go-face (dlib) backed face engine.
// The models directory must contain shape_predictor_5_face_landmarks.dat,
// dlib_face_recognition_resnet_model_v1.dat and mmod_human_face_detector.dat.
package dlib

import (
	"wedding/faces"

	"github.com/Kagami/go-face"
)

type Engine struct {
	recognizer *face.Recognizer
	cnn        bool
}

// Open uses the HOG detector
func Open(modelsDir string) (faces.Engine, error) {
	return open(modelsDir, false)
}

// OpenCNN uses the CNN detector. Much slower, better at different angles.
func OpenCNN(modelsDir string) (faces.Engine, error) {
	return open(modelsDir, true)
}

func open(modelsDir string, cnn bool) (faces.Engine, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, err
	}
	return &Engine{recognizer: rec, cnn: cnn}, nil
}

func (e *Engine) Recognize(jpegData []byte) (result []faces.Face, err error) {
	var found []face.Face
	if e.cnn {
		found, err = e.recognizer.RecognizeCNN(jpegData)
	} else {
		found, err = e.recognizer.Recognize(jpegData)
	}
	if err != nil {
		return nil, err
	}
	result = make([]faces.Face, 0, len(found))
	for _, f := range found {
		result = append(result, faces.Face{
			Rectangle:  f.Rectangle,
			Descriptor: faces.Descriptor(f.Descriptor),
		})
	}
	return result, nil
}

func (e *Engine) Close() {
	e.recognizer.Close()
}
