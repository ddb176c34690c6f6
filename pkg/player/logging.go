package player

import "context"

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// OperationLogger records domain-level events emitted by Service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes one ledger operation outcome. Detail carries
// non-fatal notes such as a dropped optional field.
type OperationLog struct {
	Operation string
	Handle    Handle
	ItemID    string
	Category  Category
	Amount    int64
	Status    string
	Detail    string
	Error     error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}
