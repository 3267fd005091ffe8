package logging

// Field keys shared by every component that logs a conversion step, so log
// lines from the classifier, parsers and storage layers can be filtered on the
// same names.
const (
	FieldFile        = "file_path"
	FieldFormat      = "format"
	FieldMethod      = "method"
	FieldScore       = "score"
	FieldHeaderRow   = "header_row"
	FieldRows        = "rows"
	FieldCount       = "count"
	FieldDelimiter   = "delimiter"
	FieldEncoding    = "encoding"
	FieldStatementID = "statement_id"
	FieldWorkers     = "workers"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldOutputFile  = "output_file"
)
