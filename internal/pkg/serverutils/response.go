package serverutils

// Response is the uniform success envelope returned by every endpoint.
type Response[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Message: message,
		Data:    data,
	}
}

// ErrorBody is the uniform error envelope produced by the error middleware.
type ErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
