package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

type FilesRepository interface {
	Files(ctx context.Context) ([]*domain.File, error)
	FilesByStatus(ctx context.Context, status domain.Status) ([]*domain.File, error)
}

type FilesHandler struct {
	filesRepository FilesRepository
}

func NewFilesHandler(filesRepository FilesRepository) *FilesHandler {
	return &FilesHandler{
		filesRepository: filesRepository,
	}
}

type GetFilesResponse struct {
	Files []*domain.File `json:"files"`
}

// GetFiles lists the mapping files seen in the watch directory, optionally
// filtered with ?status=.
func (h *FilesHandler) GetFiles(w http.ResponseWriter, r *http.Request) {
	var (
		files []*domain.File
		err   error
	)

	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.Status(s)
		if !status.Valid() {
			http.Error(w, fmt.Sprintf("invalid status %q", s), http.StatusBadRequest)
			return
		}

		files, err = h.filesRepository.FilesByStatus(r.Context(), status)
	} else {
		files, err = h.filesRepository.Files(r.Context())
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if files == nil {
		files = []*domain.File{}
	}

	writeJSON(w, GetFilesResponse{Files: files})
}
