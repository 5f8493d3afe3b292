package http

// Status codes the exchange driver and codec branch on.
const (
	StatusContinue           = 100
	StatusSwitchingProtocols = 101
	StatusOK                 = 200
	StatusNoContent          = 204
	StatusNotModified        = 304
	StatusExpectationFailed  = 417
)
