// Package results carries the success-or-failure envelope used by service
// operations. A populated Failure is a handled domain outcome; infrastructure
// problems travel on the ordinary error return instead.
package results

// OperationResult holds either a success payload or a domain failure payload.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

func (r OperationResult[S, F]) IsSuccess() bool {
	return r.Success != nil
}

func (r OperationResult[S, F]) IsFailure() bool {
	return r.Failure != nil
}

// Ok wraps a success payload.
func Ok[S any, F any](s S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &s}
}

// Fail wraps a domain failure payload.
func Fail[S any, F any](f F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &f}
}
