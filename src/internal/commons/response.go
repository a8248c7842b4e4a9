package commons

type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Page    *Page    `json:"page,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// Page describes the window a list response was cut from.
type Page struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

func PagedResponse[T any](message string, data []T, limit, offset int) Response[[]T] {
	if data == nil {
		data = []T{}
	}
	resp := SuccessResponse(message, data)
	resp.Page = &Page{Limit: limit, Offset: offset, Count: len(data)}
	return resp
}

func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}
