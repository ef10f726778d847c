package models

type ServiceResponse[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error"`
}

func GetServiceResponseOk[T any](data *T) ServiceResponse[T] {
	return ServiceResponse[T]{
		Data:  data,
		Error: "",
	}
}

// GetServiceResponseError keeps whatever partial data the failing call returned
func GetServiceResponseError[T any](data *T, errorMessage string) ServiceResponse[T] {
	return ServiceResponse[T]{
		Data:  data,
		Error: errorMessage,
	}
}
