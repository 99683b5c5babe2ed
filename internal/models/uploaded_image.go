package models

import "fmt"

// EncodedImage is an image in its transport form: standard base64 plus the
// MIME type it was declared with.
type EncodedImage struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

func (e EncodedImage) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", e.MIMEType, e.Data)
}

// UploadedImage is immutable after construction.
type UploadedImage struct {
	Name     string
	MIMEType string
	Raw      []byte
	Encoded  EncodedImage
}

func (u UploadedImage) Size() int64 {
	return int64(len(u.Raw))
}

// StoredImage points at an uploaded image archived in object storage.
type StoredImage struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}
