package pipeline_test

import (
	"context"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	mock "github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockFilesProvider

type MockFilesProvider struct {
	mock.Mock
}

type MockFilesProvider_Expecter struct {
	mock *mock.Mock
}

func NewMockFilesProvider(t testingT) *MockFilesProvider {
	m := &MockFilesProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockFilesProvider) EXPECT() *MockFilesProvider_Expecter {
	return &MockFilesProvider_Expecter{mock: &_m.Mock}
}

func (_m *MockFilesProvider) Files(ctx context.Context) ([]*domain.File, error) {
	ret := _m.Called(ctx)

	var r0 []*domain.File
	if v := ret.Get(0); v != nil {
		r0 = v.([]*domain.File)
	}

	return r0, ret.Error(1)
}

type MockFilesProvider_Files_Call struct {
	*mock.Call
}

func (_e *MockFilesProvider_Expecter) Files(ctx any) *MockFilesProvider_Files_Call {
	return &MockFilesProvider_Files_Call{Call: _e.mock.On("Files", ctx)}
}

func (_c *MockFilesProvider_Files_Call) Return(files []*domain.File, err error) *MockFilesProvider_Files_Call {
	_c.Call.Return(files, err)
	return _c
}

// MockFileUpdater

type MockFileUpdater struct {
	mock.Mock
}

type MockFileUpdater_Expecter struct {
	mock *mock.Mock
}

func NewMockFileUpdater(t testingT) *MockFileUpdater {
	m := &MockFileUpdater{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockFileUpdater) EXPECT() *MockFileUpdater_Expecter {
	return &MockFileUpdater_Expecter{mock: &_m.Mock}
}

func (_m *MockFileUpdater) UpdateOrCreateFile(ctx context.Context, file *domain.File) error {
	ret := _m.Called(ctx, file)
	return ret.Error(0)
}

type MockFileUpdater_UpdateOrCreateFile_Call struct {
	*mock.Call
}

func (_e *MockFileUpdater_Expecter) UpdateOrCreateFile(ctx, file any) *MockFileUpdater_UpdateOrCreateFile_Call {
	return &MockFileUpdater_UpdateOrCreateFile_Call{Call: _e.mock.On("UpdateOrCreateFile", ctx, file)}
}

func (_c *MockFileUpdater_UpdateOrCreateFile_Call) Return(err error) *MockFileUpdater_UpdateOrCreateFile_Call {
	_c.Call.Return(err)
	return _c
}

// MockRegistersSaver

type MockRegistersSaver struct {
	mock.Mock
}

type MockRegistersSaver_Expecter struct {
	mock *mock.Mock
}

func NewMockRegistersSaver(t testingT) *MockRegistersSaver {
	m := &MockRegistersSaver{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockRegistersSaver) EXPECT() *MockRegistersSaver_Expecter {
	return &MockRegistersSaver_Expecter{mock: &_m.Mock}
}

func (_m *MockRegistersSaver) SaveRegisters(ctx context.Context, sourceFile string, entries ...domain.MapEntry) error {
	ret := _m.Called(ctx, sourceFile, entries)
	return ret.Error(0)
}

type MockRegistersSaver_SaveRegisters_Call struct {
	*mock.Call
}

func (_e *MockRegistersSaver_Expecter) SaveRegisters(ctx, sourceFile, entries any) *MockRegistersSaver_SaveRegisters_Call {
	return &MockRegistersSaver_SaveRegisters_Call{Call: _e.mock.On("SaveRegisters", ctx, sourceFile, entries)}
}

func (_c *MockRegistersSaver_SaveRegisters_Call) Return(err error) *MockRegistersSaver_SaveRegisters_Call {
	_c.Call.Return(err)
	return _c
}

// MockTransactor

type MockTransactor struct {
	mock.Mock
}

type MockTransactor_Expecter struct {
	mock *mock.Mock
}

func NewMockTransactor(t testingT) *MockTransactor {
	m := &MockTransactor{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockTransactor) EXPECT() *MockTransactor_Expecter {
	return &MockTransactor_Expecter{mock: &_m.Mock}
}

func (_m *MockTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	ret := _m.Called(ctx, fn)
	return ret.Error(0)
}

type MockTransactor_WithTransaction_Call struct {
	*mock.Call
}

func (_e *MockTransactor_Expecter) WithTransaction(ctx, fn any) *MockTransactor_WithTransaction_Call {
	return &MockTransactor_WithTransaction_Call{Call: _e.mock.On("WithTransaction", ctx, fn)}
}

func (_c *MockTransactor_WithTransaction_Call) Return(err error) *MockTransactor_WithTransaction_Call {
	_c.Call.Return(err)
	return _c
}

func (_c *MockTransactor_WithTransaction_Call) Run(
	run func(ctx context.Context, fn func(ctx context.Context) error),
) *MockTransactor_WithTransaction_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args.Get(0).(context.Context), args.Get(1).(func(ctx context.Context) error))
	})
	return _c
}

// MockReportGenerator

type MockReportGenerator struct {
	mock.Mock
}

type MockReportGenerator_Expecter struct {
	mock *mock.Mock
}

func NewMockReportGenerator(t testingT) *MockReportGenerator {
	m := &MockReportGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (_m *MockReportGenerator) EXPECT() *MockReportGenerator_Expecter {
	return &MockReportGenerator_Expecter{mock: &_m.Mock}
}

func (_m *MockReportGenerator) GenerateReport(outputPath, device, sourceFile string, entries []domain.MapEntry) error {
	ret := _m.Called(outputPath, device, sourceFile, entries)
	return ret.Error(0)
}

type MockReportGenerator_GenerateReport_Call struct {
	*mock.Call
}

func (_e *MockReportGenerator_Expecter) GenerateReport(
	outputPath, device, sourceFile, entries any,
) *MockReportGenerator_GenerateReport_Call {
	return &MockReportGenerator_GenerateReport_Call{
		Call: _e.mock.On("GenerateReport", outputPath, device, sourceFile, entries),
	}
}

func (_c *MockReportGenerator_GenerateReport_Call) Return(err error) *MockReportGenerator_GenerateReport_Call {
	_c.Call.Return(err)
	return _c
}
