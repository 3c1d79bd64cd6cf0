package walk

import "daisyc/types"

// The runtime builtin signatures available in every module without import.
// Each entry corresponds to a fixed runtime symbol the emitter binds against.
var builtinSigs = map[string]*types.FuncType{
	"str_len":         sig(types.PrimTypeInt, types.PrimTypeString),
	"str_len_of":      sig(types.PrimTypeInt, types.PrimTypeString),
	"str_char_at":     sig(types.PrimTypeInt, types.PrimTypeString, types.PrimTypeInt),
	"str_find_char":   sig(types.PrimTypeInt, types.PrimTypeString, types.PrimTypeInt, types.PrimTypeInt),
	"str_starts_with": sig(types.PrimTypeBool, types.PrimTypeString, types.PrimTypeString),
	"str_to_int":      sig(types.PrimTypeInt, types.PrimTypeString),
	"str_substr":      sig(types.PrimTypeString, types.PrimTypeString, types.PrimTypeInt, types.PrimTypeInt),
	"str_trim":        sig(types.PrimTypeString, types.PrimTypeString),
	"str_concat":      sig(types.PrimTypeString, types.PrimTypeString, types.PrimTypeString),
	"str_release":     sig(types.PrimTypeUnit, types.PrimTypeString),

	"file_read":   sig(types.PrimTypeString, types.PrimTypeString),
	"file_write":  sig(types.PrimTypeInt, types.PrimTypeString, types.PrimTypeString),
	"file_exists": sig(types.PrimTypeBool, types.PrimTypeString),
	"file_delete": sig(types.PrimTypeBool, types.PrimTypeString),
	"file_move":   sig(types.PrimTypeBool, types.PrimTypeString, types.PrimTypeString),
	"file_copy":   sig(types.PrimTypeBool, types.PrimTypeString, types.PrimTypeString),
	"dir_create":  sig(types.PrimTypeBool, types.PrimTypeString),
	"dir_exists":  sig(types.PrimTypeBool, types.PrimTypeString),

	"log_set_level": sig(types.PrimTypeUnit, types.PrimTypeInt),
	"log_info":      sig(types.PrimTypeUnit, types.PrimTypeString),
	"log_warn":      sig(types.PrimTypeUnit, types.PrimTypeString),
	"log_error":     sig(types.PrimTypeUnit, types.PrimTypeString),

	"net_connect": sig(types.PrimTypeInt, types.PrimTypeString, types.PrimTypeInt),
	"net_send":    sig(types.PrimTypeInt, types.PrimTypeInt, types.PrimTypeString),
	"net_recv":    sig(types.PrimTypeString, types.PrimTypeInt, types.PrimTypeInt),
	"net_close":   sig(types.PrimTypeUnit, types.PrimTypeInt),

	"vec_new":     sig(vecInt),
	"vec_push":    sig(types.PrimTypeUnit, vecInt, types.PrimTypeInt),
	"vec_get":     sig(types.PrimTypeInt, vecInt, types.PrimTypeInt),
	"vec_len":     sig(types.PrimTypeInt, vecInt),
	"vec_release": sig(types.PrimTypeUnit, vecInt),

	"tensor_create":  sig(types.PrimTypeTensor, types.PrimTypeInt, types.PrimTypeInt),
	"tensor_matmul":  sig(types.PrimTypeTensor, types.PrimTypeTensor, types.PrimTypeTensor),
	"tensor_release": sig(types.PrimTypeUnit, types.PrimTypeTensor),

	"channel":         sig(types.PrimTypeChannel),
	"send":            sig(types.PrimTypeUnit, types.PrimTypeChannel, types.PrimTypeInt),
	"recv":            sig(types.PrimTypeInt, types.PrimTypeChannel),
	"channel_close":   sig(types.PrimTypeUnit, types.PrimTypeChannel),
	"channel_release": sig(types.PrimTypeUnit, types.PrimTypeChannel),

	"int_to_str":  sig(types.PrimTypeString, types.PrimTypeInt),
	"bool_to_str": sig(types.PrimTypeString, types.PrimTypeBool),

	"error_last":  sig(types.PrimTypeString),
	"error_clear": sig(types.PrimTypeUnit),
	"panic":       sig(types.PrimTypeUnit, types.PrimTypeString),
}

var vecInt = &types.VectorType{ElemType: types.PrimTypeInt}

func sig(ret types.Type, params ...types.Type) *types.FuncType {
	return &types.FuncType{ParamTypes: params, ReturnType: ret}
}

// IsBuiltin returns whether a name refers to a runtime builtin.
func IsBuiltin(name string) bool {
	_, ok := builtinSigs[name]
	return ok || name == "spawn"
}
