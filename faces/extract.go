package faces

import (
	"bytes"
	"fmt"
	"io"
	"log"
)

// ImageSource is where stored images are read from (a storage bucket)
type ImageSource interface {
	Load(path string, writer io.Writer) (int64, error)
}

// DetectFaces finds every face in the encoded image and describes it
func (r *Recognizer) DetectFaces(data []byte) ([]Face, error) {
	if err := r.Load(); err != nil {
		return nil, err
	}
	img, err := prepareImage(data, r.MaxImageSize)
	if err != nil {
		return nil, err
	}
	found, err := r.recognize(img.data)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}
	result := make([]Face, len(found))
	for i := range found {
		result[i] = Face{
			Rectangle:  img.toSource(found[i].Rectangle),
			Descriptor: found[i].Descriptor,
		}
	}
	return result, nil
}

// SingleDescriptor returns the descriptor of the (largest) face in the image stored at path,
// or nil if there is no face in it
func (r *Recognizer) SingleDescriptor(src ImageSource, path string) (*Descriptor, error) {
	found, err := r.detectStored(src, path)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		log.Printf("No face detected in %s", path)
		return nil, nil
	}
	largest := 0
	for i := range found {
		if area(&found[i]) > area(&found[largest]) {
			largest = i
		}
	}
	return &found[largest].Descriptor, nil
}

// AllDescriptors returns the descriptors of all faces in the image stored at path.
// The result is empty (not nil) when there are none.
func (r *Recognizer) AllDescriptors(src ImageSource, path string) ([]Descriptor, error) {
	found, err := r.detectStored(src, path)
	if err != nil {
		return nil, err
	}
	result := make([]Descriptor, 0, len(found))
	for _, f := range found {
		result = append(result, f.Descriptor)
	}
	if len(result) == 0 {
		log.Printf("No faces detected in %s", path)
	}
	return result, nil
}

func (r *Recognizer) detectStored(src ImageSource, path string) ([]Face, error) {
	if err := r.Load(); err != nil {
		return nil, err
	}
	buf := bytes.Buffer{}
	if _, err := src.Load(path, &buf); err != nil {
		log.Printf("Error reading image file %s: %v", path, err)
		return nil, fmt.Errorf("could not read image %s: %w", path, err)
	}
	return r.DetectFaces(buf.Bytes())
}

func area(f *Face) int {
	size := f.Rectangle.Size()
	return size.X * size.Y
}
