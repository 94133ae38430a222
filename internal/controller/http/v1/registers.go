package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type RegistersRepository interface {
	Devices(ctx context.Context) ([]*domain.DeviceSummary, error)
	RegistersByDevice(ctx context.Context, device string, limit, offset uint64) ([]*domain.MapEntry, int, error)
}

type RegistersHandler struct {
	registersRepository RegistersRepository
}

func NewRegistersHandler(registersRepository RegistersRepository) *RegistersHandler {
	return &RegistersHandler{
		registersRepository: registersRepository,
	}
}

type GetRegistersByDeviceResponse struct {
	Device     string             `json:"device"`
	Registers  []*domain.MapEntry `json:"registers"`
	Pagination Pagination         `json:"pagination"`
}

func (h *RegistersHandler) GetRegistersByDevice(w http.ResponseWriter, r *http.Request) {
	device := chi.URLParam(r, "device")

	page, limit, err := parsePagination(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	offset := (page - 1) * limit

	registers, total, err := h.registersRepository.RegistersByDevice(r.Context(), device, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if registers == nil {
		registers = []*domain.MapEntry{}
	}

	writeJSON(w, GetRegistersByDeviceResponse{
		Device:     device,
		Registers:  registers,
		Pagination: NewPagination(page, limit, total),
	})
}

type GetDevicesResponse struct {
	Devices []*domain.DeviceSummary `json:"devices"`
}

func (h *RegistersHandler) GetDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := h.registersRepository.Devices(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if devices == nil {
		devices = []*domain.DeviceSummary{}
	}

	writeJSON(w, GetDevicesResponse{Devices: devices})
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func parsePagination(r *http.Request) (page uint64, limit uint64, err error) {
	page, limit = 1, defaultLimit

	if p := r.URL.Query().Get("page"); p != "" {
		page, err = strconv.ParseUint(p, 10, 64)
		if err != nil || page == 0 {
			return 0, 0, errors.New("invalid page")
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err = strconv.ParseUint(l, 10, 64)
		if err != nil || limit < 1 || limit > maxLimit {
			return 0, 0, errors.New("invalid limit, must be in [1;100]")
		}
	}

	return page, limit, nil
}
