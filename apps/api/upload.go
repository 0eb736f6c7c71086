package main

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/mahaj/chatcore/pkg/blob"
)

// 10MB upload cap.
const maxUploadSize = 10 << 20

type UploadResponse struct {
	URL string `json:"url"`
}

// UploadHandler accepts a multipart file, hands it to the blob store,
// and returns the retrievable URL.
func UploadHandler(blobs blob.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "File too large or malformed form", http.StatusBadRequest)
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file field is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "Failed to read file", http.StatusInternalServerError)
			return
		}

		url, err := blobs.Store(r.Context(), data)
		if err != nil {
			http.Error(w, "Failed to store file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UploadResponse{URL: url})
	}
}
