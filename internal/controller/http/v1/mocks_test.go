package v1_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockRegistersRepository struct {
	mock.Mock
}

func NewMockRegistersRepository(t *testing.T) *MockRegistersRepository {
	m := &MockRegistersRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRegistersRepository) Devices(ctx context.Context) ([]*domain.DeviceSummary, error) {
	ret := m.Called(ctx)

	var r0 []*domain.DeviceSummary
	if v := ret.Get(0); v != nil {
		r0 = v.([]*domain.DeviceSummary)
	}

	return r0, ret.Error(1)
}

func (m *MockRegistersRepository) RegistersByDevice(
	ctx context.Context,
	device string,
	limit, offset uint64,
) ([]*domain.MapEntry, int, error) {
	ret := m.Called(ctx, device, limit, offset)

	var r0 []*domain.MapEntry
	if v := ret.Get(0); v != nil {
		r0 = v.([]*domain.MapEntry)
	}

	return r0, ret.Int(1), ret.Error(2)
}

type MockFilesRepository struct {
	mock.Mock
}

func NewMockFilesRepository(t *testing.T) *MockFilesRepository {
	m := &MockFilesRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockFilesRepository) Files(ctx context.Context) ([]*domain.File, error) {
	ret := m.Called(ctx)

	var r0 []*domain.File
	if v := ret.Get(0); v != nil {
		r0 = v.([]*domain.File)
	}

	return r0, ret.Error(1)
}

func (m *MockFilesRepository) FilesByStatus(ctx context.Context, status domain.Status) ([]*domain.File, error) {
	ret := m.Called(ctx, status)

	var r0 []*domain.File
	if v := ret.Get(0); v != nil {
		r0 = v.([]*domain.File)
	}

	return r0, ret.Error(1)
}

func get(t *testing.T, handler http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}
