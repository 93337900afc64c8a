package helpers

import (
	"net/http"

	internaldto "github.com/udistrital/marketplace_mid/internal/dto"
	"github.com/udistrital/marketplace_mid/models/requestresponse"
)

// Ok construye una respuesta estándar exitosa.
func Ok(data interface{}) internaldto.APIResponseDTO {
	return requestresponse.NewSuccess(http.StatusOK, "OK", data)
}

// Created construye la respuesta de un recurso nuevo.
func Created(data interface{}) internaldto.APIResponseDTO {
	return requestresponse.NewSuccess(http.StatusCreated, "Creado", data)
}

// Fail construye una respuesta estándar de error.
func Fail(status int, message string) internaldto.APIResponseDTO {
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	return requestresponse.NewError(status, message, nil)
}
