package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
	"github.com/stretchr/testify/require"
)

const waitTimeout = time.Second

const sampleCSV = `device,name,address,dtype,scale,offset,unit
DEV1,TEMP,100,INT16,0.1,0,degC
DEV1,HUM,101,UINT16,1,0,%
DEV2,FLOW,200,FLOAT32,1,0,m3/h
DEV2,FLOW,204,FLOAT32R,1,0,m3/h
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func sampleSpec(t *testing.T) *domain.MapSpec {
	t.Helper()

	fields := []map[string]any{
		{"device": "DEV1", "name": "TEMP", "address": 100, "dtype": "INT16", "scale": 0.1, "unit": "degC"},
		{"device": "DEV1", "name": "HUM", "address": 101, "dtype": "UINT16"},
		{"device": "DEV2", "name": "FLOW", "address": 200, "dtype": "FLOAT32"},
	}

	spec := &domain.MapSpec{}
	for _, f := range fields {
		e, err := domain.NewEntry(f)
		require.NoError(t, err)
		spec.Entries = append(spec.Entries, e)
	}

	return spec
}
