package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/media"
)

// maxImageBytes bounds a single product image upload.
const maxImageBytes = 10 << 20

func (s *Server) upsertProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if err := decodeJSON(r, &p); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if p.ID == "" || p.Title == "" {
		http.Error(w, "id and title are required", http.StatusBadRequest)
		return
	}

	if err := s.catalog.Upsert(r.Context(), &p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrReferenced) {
			http.Error(w, "product is referenced by existing orders", http.StatusConflict)
			return
		}
		writeError(w, err)
		return
	}

	if s.media.Enabled() {
		if err := s.media.DeleteProductImages(r.Context(), id); err != nil {
			s.logger.Warn("image cleanup failed",
				zap.String("product_id", id),
				zap.Error(err),
			)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uploadProductImage(w http.ResponseWriter, r *http.Request) {
	if !s.media.Enabled() {
		http.Error(w, "media storage is not configured", http.StatusServiceUnavailable)
		return
	}

	id := chi.URLParam(r, "id")
	if _, _, err := s.catalog.GetByIDWithStats(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		http.Error(w, "bad multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		http.Error(w, "read upload", http.StatusBadRequest)
		return
	}

	url, err := s.media.UploadProductImage(r.Context(), id, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		if errors.Is(err, media.ErrDisabled) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.logger.Error("image upload failed",
			zap.String("product_id", id),
			zap.Error(err),
		)
		http.Error(w, "upload failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, map[string]string{"image_url": url})
}
