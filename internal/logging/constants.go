package logging

// Field names shared by every component so reconciliation logs can be
// filtered on the same keys whatever service emitted them.
const (
	FieldFile             = "file_path"
	FieldParser           = "parser"
	FieldParserConfig     = "parser_config"
	FieldFormat           = "format"
	FieldBankAccountID    = "bank_account_id"
	FieldStatementID      = "statement_id"
	FieldItemID           = "item_id"
	FieldTransactionID    = "transaction_id"
	FieldReconciliationID = "reconciliation_id"
	FieldEventID          = "event_id"
	FieldMatchType        = "match_type"
	FieldActor            = "actor"
	FieldLine             = "line"
	FieldReason           = "reason"
	FieldOperation        = "operation"
	FieldStatus           = "status"
	FieldError            = "error"
	FieldDuration         = "duration_ms"
	FieldCount            = "count"
	FieldSkipped          = "skipped"
	FieldDelimiter        = "delimiter"
	FieldComponent        = "component"
)
