package arena

const (
	operationDeposit      = "deposit"
	operationWithdraw     = "withdraw"
	operationRegister     = "register"
	operationRecordResult = "record_result"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	defaultMetadataJSON = "{}"
)
