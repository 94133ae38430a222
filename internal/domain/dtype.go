package domain

// DType is the register data type of a mapping entry.
type DType string

const (
	DTypeInt16    DType = "INT16"
	DTypeUint16   DType = "UINT16"
	DTypeInt32    DType = "INT32"
	DTypeUint32   DType = "UINT32"
	DTypeInt32R   DType = "INT32R"
	DTypeFloat32  DType = "FLOAT32"
	DTypeFloat32R DType = "FLOAT32R"
)

type dtypeInfo struct {
	registers    int
	cType        string
	structFormat string
	plcType      string
}

var dtypes = map[DType]dtypeInfo{
	DTypeInt16:    {registers: 1, cType: "int16_t", structFormat: "h", plcType: "INT"},
	DTypeUint16:   {registers: 1, cType: "uint16_t", structFormat: "H", plcType: "UINT"},
	DTypeInt32:    {registers: 2, cType: "int32_t", structFormat: "i", plcType: "DINT"},
	DTypeUint32:   {registers: 2, cType: "uint32_t", structFormat: "I", plcType: "UDINT"},
	DTypeInt32R:   {registers: 2, cType: "int32_t", structFormat: "i", plcType: "DINT"},
	DTypeFloat32:  {registers: 2, cType: "float", structFormat: "f", plcType: "REAL"},
	DTypeFloat32R: {registers: 2, cType: "float", structFormat: "f", plcType: "REAL"},
}

func (d DType) Valid() bool {
	_, ok := dtypes[d]
	return ok
}

// Reversed reports whether the type is stored with swapped words.
func (d DType) Reversed() bool {
	return d == DTypeInt32R || d == DTypeFloat32R
}

// Registers is the number of 16-bit registers the value occupies.
func (d DType) Registers() int {
	return dtypes[d].registers
}

func (d DType) CType() string {
	return dtypes[d].cType
}

// StructFormat is the Python struct format character for the value.
func (d DType) StructFormat() string {
	return dtypes[d].structFormat
}

// PLCType is the IEC 61131-3 elementary type name.
func (d DType) PLCType() string {
	return dtypes[d].plcType
}

type Access string

const (
	AccessRead      Access = "R"
	AccessWrite     Access = "W"
	AccessReadWrite Access = "RW"
)

func (a Access) Valid() bool {
	switch a {
	case AccessRead, AccessWrite, AccessReadWrite:
		return true
	}
	return false
}

// Function is the Modbus register table an entry lives in.
type Function string

const (
	FunctionHolding Function = "HR"
	FunctionInput   Function = "IR"
)

func (f Function) Valid() bool {
	return f == FunctionHolding || f == FunctionInput
}

type ByteOrder string

const (
	ByteOrderBig    ByteOrder = "big"
	ByteOrderLittle ByteOrder = "little"
)

func (b ByteOrder) Valid() bool {
	return b == ByteOrderBig || b == ByteOrderLittle
}

type WordOrder string

const (
	WordOrderNormal  WordOrder = "normal"
	WordOrderSwapped WordOrder = "swapped"
)

func (w WordOrder) Valid() bool {
	return w == WordOrderNormal || w == WordOrderSwapped
}
