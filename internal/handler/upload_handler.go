package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"listingboard/internal/apperr"
	"listingboard/internal/middleware"
	"listingboard/internal/service"
)

const (
	imagesField    = "images"
	multipartSlack = 1 << 20
)

type UploadResponse struct {
	URLs []string `json:"urls"`
}

type DeleteImageRequest struct {
	ImageURL string `json:"imageUrl"`
}

// UploadImages streams a multipart form with up to MaxUploadFiles parts named
// "images". Parts are counted before their bodies are read, and each body is
// read up to one byte past MaxUploadSize.
func (h *Handlers) UploadImages(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.UserFromContext(r.Context())
	if !ok {
		WriteError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	maxFiles := h.Cfg.MaxUploadFiles
	if maxFiles <= 0 {
		maxFiles = service.DefaultMaxUploadFiles
	}
	maxSize := h.Cfg.MaxUploadSize
	if maxSize <= 0 {
		maxSize = service.DefaultMaxUploadSize
	}
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*(maxSize+1)+multipartSlack)

	files, err := readImageParts(r, maxFiles, maxSize)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if len(files) == 0 {
		HandleError(w, r, apperr.Invalid("No images provided"))
		return
	}

	urls, err := h.MediaService.UploadImages(r.Context(), claims.UserID, files)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, UploadResponse{URLs: urls}, http.StatusOK)
}

// readImageParts collects the image parts of the form. A part larger than
// maxSize ends the read; it is returned with Size maxSize+1 so the media
// service reports it.
func readImageParts(r *http.Request, maxFiles int, maxSize int64) ([]service.UploadFile, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "Invalid multipart form", err)
	}

	var files []service.UploadFile
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return files, nil
		}
		if err != nil {
			return nil, multipartError(err)
		}

		if part.FormName() != imagesField {
			if _, err := io.Copy(io.Discard, part); err != nil {
				return nil, multipartError(err)
			}
			continue
		}
		if len(files) == maxFiles {
			return nil, apperr.Invalid("Too many images")
		}

		data, err := io.ReadAll(io.LimitReader(part, maxSize+1))
		if err != nil {
			return nil, multipartError(err)
		}

		files = append(files, service.UploadFile{
			Filename:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Size:        int64(len(data)),
			Content:     bytes.NewReader(data),
		})
		if int64(len(data)) > maxSize {
			return files, nil
		}
	}
}

func multipartError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.New(apperr.TooLarge, "Upload exceeds the allowed size")
	}
	return apperr.Wrap(apperr.InvalidInput, "Invalid multipart form", err)
}

func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	var req DeleteImageRequest
	if err := decodeJSON(r, &req); err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.MediaService.DeleteImage(r.Context(), req.ImageURL); err != nil {
		HandleError(w, r, err)
		return
	}

	WriteJSON(w, MessageResponse{Message: "Image deleted successfully"}, http.StatusOK)
}
