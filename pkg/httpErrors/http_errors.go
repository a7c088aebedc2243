package httpErrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared between the upload API, the job API and the pipeline.
const (
	CodeInvalidArgument      = "InvalidArgument"
	CodeSessionNotFound      = "SessionNotFound"
	CodeIncompleteUpload     = "IncompleteUpload"
	CodeIntegrityError       = "IntegrityError"
	CodeSessionTerminal      = "SessionTerminal"
	CodeJobNotFound          = "JobNotFound"
	CodeUnsupportedMedia     = "UnsupportedMedia"
	CodePartialEncodeFailure = "PartialEncodeFailure"
	CodeProcessingFailed     = "ProcessingFailed"
	CodeQueueUnavailable     = "QueueUnavailable"
	CodeInternal             = "InternalServerError"
)

type RestErr interface {
	Status() int
	Code() string
	Error() string
	Causes() interface{}
}

type restError struct {
	ErrStatus int         `json:"status"`
	ErrCode   string      `json:"code"`
	ErrError  string      `json:"error"`
	ErrCauses interface{} `json:"causes,omitempty"`
}

func (e restError) Status() int {
	return e.ErrStatus
}

func (e restError) Code() string {
	return e.ErrCode
}

func (e restError) Error() string {
	return fmt.Sprintf("status: %d - code: %s - error: %s", e.ErrStatus, e.ErrCode, e.ErrError)
}

func (e restError) Causes() interface{} {
	return e.ErrCauses
}

func NewRestError(status int, code, err string, causes interface{}) RestErr {
	return restError{
		ErrStatus: status,
		ErrCode:   code,
		ErrError:  err,
		ErrCauses: causes,
	}
}

func NewInvalidArgumentError(err string) RestErr {
	return NewRestError(http.StatusBadRequest, CodeInvalidArgument, err, nil)
}

func NewSessionNotFoundError(sessionID string) RestErr {
	return NewRestError(http.StatusNotFound, CodeSessionNotFound, fmt.Sprintf("upload session %s not found", sessionID), nil)
}

func NewJobNotFoundError(jobID string) RestErr {
	return NewRestError(http.StatusNotFound, CodeJobNotFound, fmt.Sprintf("processing job %s not found", jobID), nil)
}

// NewIncompleteUploadError lists the exact absent indices so a client can
// resume precisely.
func NewIncompleteUploadError(missing []int) RestErr {
	return NewRestError(http.StatusConflict, CodeIncompleteUpload, "upload is missing chunks", missing)
}

func NewIntegrityError(err string) RestErr {
	return NewRestError(http.StatusUnprocessableEntity, CodeIntegrityError, err, nil)
}

func NewSessionTerminalError(status string) RestErr {
	return NewRestError(http.StatusConflict, CodeSessionTerminal, fmt.Sprintf("session is already %s", status), nil)
}

func NewQueueUnavailableError(err string) RestErr {
	return NewRestError(http.StatusServiceUnavailable, CodeQueueUnavailable, err, nil)
}

func NewInternalServerError(causes interface{}) RestErr {
	return restError{
		ErrStatus: http.StatusInternalServerError,
		ErrCode:   CodeInternal,
		ErrError:  "internal server error",
		ErrCauses: causes,
	}
}

// ParseErrors maps any error onto a RestErr, preserving a typed one when
// present anywhere in the chain.
func ParseErrors(err error) RestErr {
	var restErr RestErr
	if errors.As(err, &restErr) {
		return restErr
	}
	return NewInternalServerError(err.Error())
}

// ErrorResponse returns the status and body to write for an error.
func ErrorResponse(err error) (int, interface{}) {
	restErr := ParseErrors(err)
	return restErr.Status(), restErr
}
