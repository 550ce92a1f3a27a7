package errx

import (
	"errors"
	"net/http"
)

// Error kinds raised while driving a conversation turn. Only ErrGeneration,
// ErrInvalidInput and ErrNotReady ever leave the orchestrator; the others are
// logged and the turn degrades.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotReady       = errors.New("orchestrator not ready")
	ErrClassification = errors.New("classification failed")
	ErrRetrieval      = errors.New("retrieval failed")
	ErrGeneration     = errors.New("generation failed")
	ErrTicketCreation = errors.New("ticket creation failed")
	// ErrContent marks generator output that is unusable (empty, blocked).
	// It is never retried.
	ErrContent = errors.New("generator content rejected")
)

func kinded(kind error, status int, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{Kind: kind, Err: err, Status: status, Message: kind.Error()}
}

// Invalid reports a caller mistake such as an empty session id.
func Invalid(msg string) error {
	return &AppError{Kind: ErrInvalidInput, Err: errors.New(msg), Status: http.StatusBadRequest, Message: ErrInvalidInput.Error()}
}

func Classification(err error) error {
	return kinded(ErrClassification, http.StatusBadGateway, err)
}

func Retrieval(err error) error {
	return kinded(ErrRetrieval, http.StatusBadGateway, err)
}

// Generation wraps a failed generator call. It is fatal for the turn.
func Generation(err error) error {
	return kinded(ErrGeneration, http.StatusBadGateway, err)
}

func TicketCreation(err error) error {
	return kinded(ErrTicketCreation, http.StatusBadGateway, err)
}

// Content wraps a reason into an ErrContent error.
func Content(reason string) error {
	return &AppError{Kind: ErrContent, Err: errors.New(reason), Status: http.StatusBadGateway, Message: ErrContent.Error()}
}

// NotReady is returned when the orchestrator is built from ports that have
// not finished initialising.
func NotReady(what string) error {
	return &AppError{Kind: ErrNotReady, Err: errors.New(what), Status: http.StatusServiceUnavailable, Message: ErrNotReady.Error()}
}
