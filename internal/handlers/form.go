package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"vidcompress/internal/asset"
)

// maxFieldBytes caps each non-file form field.
const maxFieldBytes = 64 * 1024

// multipartOverhead is allowed on top of the file limit for headers and fields.
const multipartOverhead = asset.MiB

var errMissingBody = errors.New("request is not multipart/form-data")

// uploadForm is a parsed multipart upload.
type uploadForm struct {
	files  map[string]*asset.Asset
	fields map[string]string
}

func (f *uploadForm) file(name string) *asset.Asset { return f.files[name] }

func (f *uploadForm) field(name string) string { return f.fields[name] }

// readUploadForm streams a multipart body, keeping each file part in memory
// up to limit bytes. Only the named file fields are accepted.
func readUploadForm(w http.ResponseWriter, r *http.Request, limit int64, fileFields ...string) (*uploadForm, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		return nil, errMissingBody
	}

	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit*int64(len(fileFields))+multipartOverhead)
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMissingBody, err)
	}

	allowed := make(map[string]bool, len(fileFields))
	for _, name := range fileFields {
		allowed[name] = true
	}

	form := &uploadForm{
		files:  make(map[string]*asset.Asset),
		fields: make(map[string]string),
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return form, nil
		}
		if err != nil {
			return nil, err
		}

		name := part.FormName()
		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			_ = part.Close()
			if err != nil {
				return nil, err
			}
			form.fields[name] = string(value)
			continue
		}

		if !allowed[name] || form.files[name] != nil {
			_ = part.Close()
			continue
		}

		a, err := asset.Read(part.FileName(), part, limit)
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		form.files[name] = asset.WithContentType(a.Name(), partContentType(part.Header.Get("Content-Type")), a.Bytes())
	}
}

// partContentType drops the generic type browsers send for unknown files so
// the extension decides instead.
func partContentType(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		return ""
	}
	return ct
}

// formStatus maps a readUploadForm error to an HTTP status.
func formStatus(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, asset.ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errMissingBody):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}
