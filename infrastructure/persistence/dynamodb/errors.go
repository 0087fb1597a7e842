package dynamodb

import (
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	pkgerrors "infinicraft-backend/pkg/errors"
)

// classify maps SDK errors onto the application error taxonomy.
// Request-shape problems are database errors; everything else means the
// store cannot serve the request.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ValidationException", "SerializationException":
			return pkgerrors.NewDatabaseError(operation, err)
		}
	}
	return pkgerrors.NewStoreUnavailableError(operation, err)
}

// isConditionFailed reports whether a single-item write lost its condition
func isConditionFailed(err error) (*types.ConditionalCheckFailedException, bool) {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return ccf, true
	}
	return nil, false
}

// isTransactionConditionFailed reports whether any write of a transaction lost its condition
func isTransactionConditionFailed(err error) bool {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false
	}
	for _, reason := range tce.CancellationReasons {
		if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
			return true
		}
	}
	return false
}
