package codegen

// runtimeSymbols binds the builtin callees surviving in MIR call position
// onto the fixed runtime symbol table.  The channel and tensor builtins have
// first-class ops and do not appear here.
var runtimeSymbols = map[string]string{
	"str_len":         "daisy_str_len",
	"str_len_of":      "daisy_str_len",
	"str_char_at":     "daisy_str_char_at",
	"str_find_char":   "daisy_str_find_char",
	"str_starts_with": "daisy_str_starts_with",
	"str_to_int":      "daisy_str_to_int",
	"str_substr":      "daisy_str_substr",
	"str_trim":        "daisy_str_trim",
	"str_concat":      "daisy_str_concat",
	"str_release":     "daisy_str_release",

	"file_read":   "daisy_file_read",
	"file_write":  "daisy_file_write",
	"file_exists": "daisy_file_exists",
	"file_delete": "daisy_file_delete",
	"file_move":   "daisy_file_move",
	"file_copy":   "daisy_file_copy",
	"dir_create":  "daisy_dir_create",
	"dir_exists":  "daisy_dir_exists",

	"log_set_level": "daisy_log_set_level",
	"log_info":      "daisy_log_info",
	"log_warn":      "daisy_log_warn",
	"log_error":     "daisy_log_error",

	"net_connect": "daisy_net_connect",
	"net_send":    "daisy_net_send",
	"net_recv":    "daisy_net_recv",
	"net_close":   "daisy_net_close",

	"vec_new":     "daisy_vec_new",
	"vec_push":    "daisy_vec_push",
	"vec_get":     "daisy_vec_get",
	"vec_len":     "daisy_vec_len",
	"vec_release": "daisy_vec_release",

	"int_to_str":  "daisy_int_to_str",
	"bool_to_str": "daisy_bool_to_str",

	"error_last":  "daisy_error_last",
	"error_clear": "daisy_error_clear",
	"panic":       "daisy_panic",
}

// unownedResults names the runtime builtins whose string results stay owned
// by the runtime: scope-end cleanup must not release them.
var unownedResults = map[string]bool{
	"error_last": true,
}

// releasingBuiltins names the builtins that consume their first argument's
// ownership.
var releasingBuiltins = map[string]bool{
	"str_release": true,
	"vec_release": true,
}
